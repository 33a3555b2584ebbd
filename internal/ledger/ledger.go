// Package ledger holds the per-address pending balances credited at
// settlement and the single withdrawal path that pays them out.
package ledger

import (
	"context"
	"time"

	"split-or-steal/internal/apperr"
	"split-or-steal/internal/events"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidAddress    = apperr.New(apperr.ErrValidation, "invalid_address")
	ErrInvalidAmount     = apperr.New(apperr.ErrValidation, "invalid_amount")
	ErrNothingToWithdraw = apperr.New(apperr.ErrLedger, "nothing_to_withdraw")
	ErrTransferFailed    = apperr.New(apperr.ErrLedger, "transfer_failed")
)

// Creditor adds to a pending balance inside an open transaction.
type Creditor interface {
	CreditPending(ctx context.Context, addr common.Address, amount int64) (int64, error)
}

// Balances is the durable pending-balance table. TakePending reads and zeroes
// a balance and must be committed before it returns.
type Balances interface {
	TakePending(ctx context.Context, addr common.Address) (int64, error)
	RestorePending(ctx context.Context, addr common.Address, amount int64) error
	PendingBalance(ctx context.Context, addr common.Address) (int64, error)
}

// Transferer moves funds out of custody.
type Transferer interface {
	Transfer(ctx context.Context, to common.Address, amount int64, receipt string) error
}

type Entry struct {
	RoomID  uint64         `json:"room_id"`
	Address common.Address `json:"address"`
	Amount  int64          `json:"amount"`
	Balance int64          `json:"balance"`
}

type Withdrawal struct {
	Receipt string         `json:"receipt"`
	Address common.Address `json:"address"`
	Amount  int64          `json:"amount"`
	At      time.Time      `json:"at"`
}

type Ledger struct {
	balances Balances
	transfer Transferer
	events   events.Publisher
	now      func() time.Time
}

func New(b Balances, t Transferer, pub events.Publisher) *Ledger {
	if pub == nil {
		pub = events.Discard
	}
	if t == nil {
		t = LogTransferer{}
	}
	return &Ledger{balances: b, transfer: t, events: pub, now: time.Now}
}

// Credit adds amount to addr's pending balance through c. Zero amounts are
// skipped so entries are only created by a real credit.
func (l *Ledger) Credit(ctx context.Context, c Creditor, roomID uint64, addr common.Address, amount int64) (Entry, bool, error) {
	if amount < 0 {
		return Entry{}, false, ErrInvalidAmount
	}
	if addr == (common.Address{}) {
		return Entry{}, false, ErrInvalidAddress
	}
	if amount == 0 {
		return Entry{}, false, nil
	}
	bal, err := c.CreditPending(ctx, addr, amount)
	if err != nil {
		return Entry{}, false, errors.Wrap(err, "credit pending")
	}
	return Entry{RoomID: roomID, Address: addr, Amount: amount, Balance: bal}, true, nil
}

// Announce publishes credits once the transaction that posted them committed.
func (l *Ledger) Announce(entries []Entry) {
	for _, e := range entries {
		l.events.Publish(events.BalanceCredited, e.RoomID, e)
	}
}

func (l *Ledger) Balance(ctx context.Context, addr common.Address) (int64, error) {
	if addr == (common.Address{}) {
		return 0, ErrInvalidAddress
	}
	bal, err := l.balances.PendingBalance(ctx, addr)
	if err != nil {
		return 0, errors.Wrap(err, "pending balance")
	}
	return bal, nil
}

// Withdraw pays out the whole pending balance of addr. The balance is zeroed
// and committed before the transfer starts, and restored if it fails.
func (l *Ledger) Withdraw(ctx context.Context, addr common.Address) (Withdrawal, error) {
	if addr == (common.Address{}) {
		return Withdrawal{}, ErrInvalidAddress
	}
	amount, err := l.balances.TakePending(ctx, addr)
	if err != nil {
		return Withdrawal{}, errors.Wrap(err, "take pending")
	}
	if amount == 0 {
		return Withdrawal{}, ErrNothingToWithdraw
	}
	w := Withdrawal{Receipt: NewReceiptID(), Address: addr, Amount: amount, At: l.now().UTC()}
	if terr := l.transfer.Transfer(ctx, addr, amount, w.Receipt); terr != nil {
		if rerr := l.balances.RestorePending(context.WithoutCancel(ctx), addr, amount); rerr != nil {
			log.Error().Err(rerr).Str("address", addr.Hex()).Int64("amount", amount).Str("receipt", w.Receipt).Msg("restore pending balance failed")
			return Withdrawal{}, errors.Wrap(rerr, "restore pending")
		}
		log.Error().Err(terr).Str("address", addr.Hex()).Int64("amount", amount).Str("receipt", w.Receipt).Msg("withdrawal transfer failed")
		l.events.Publish(events.WithdrawalFailed, 0, map[string]any{
			"receipt": w.Receipt,
			"address": addr,
			"amount":  amount,
			"reason":  terr.Error(),
		})
		return Withdrawal{}, errors.Wrap(ErrTransferFailed, terr.Error())
	}
	log.Info().Str("address", addr.Hex()).Int64("amount", amount).Str("receipt", w.Receipt).Msg("withdrawal completed")
	l.events.Publish(events.WithdrawalCompleted, 0, w)
	return w, nil
}

// LogTransferer records transfers in the log only. It stands in for the
// custody backend when none is configured.
type LogTransferer struct{}

func (LogTransferer) Transfer(_ context.Context, to common.Address, amount int64, receipt string) error {
	log.Info().Str("to", to.Hex()).Int64("amount", amount).Str("receipt", receipt).Msg("transfer")
	return nil
}
