package game

import (
	"context"
	"time"

	"split-or-steal/internal/commitment"
	"split-or-steal/internal/events"
	"split-or-steal/internal/identity"
	"split-or-steal/internal/ledger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultSink receives both-steal shares and odd units of split rounds.
var DefaultSink = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

type Options struct {
	Policy    Policy
	Sink      common.Address
	Events    events.Publisher
	Now       func() time.Time
	ScanBatch int
}

type Engine struct {
	repo      Repository
	gate      identity.Gate
	ledger    *ledger.Ledger
	events    events.Publisher
	policy    Policy
	sink      common.Address
	now       func() time.Time
	scanBatch int
	seq       *sequencer
}

func NewEngine(repo Repository, gate identity.Gate, l *ledger.Ledger, opts Options) *Engine {
	e := &Engine{
		repo:      repo,
		gate:      gate,
		ledger:    l,
		events:    opts.Events,
		policy:    opts.Policy,
		sink:      opts.Sink,
		now:       opts.Now,
		scanBatch: opts.ScanBatch,
		seq:       newSequencer(),
	}
	if e.events == nil {
		e.events = events.Discard
	}
	if e.policy == "" {
		e.policy = PolicyBurn
	}
	if e.sink == (common.Address{}) {
		e.sink = DefaultSink
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.scanBatch <= 0 {
		e.scanBatch = 64
	}
	return e
}

type CreateRoomInput struct {
	Player         common.Address
	Identity       uint256.Int
	Stake          int64
	Value          int64
	CommitDeadline time.Time
	RevealDeadline time.Time
}

type JoinRoomInput struct {
	Player   common.Address
	Identity uint256.Int
	Value    int64
}

type CommitInput struct {
	Player     common.Address
	Identity   uint256.Int
	Commitment common.Hash
}

type RevealInput struct {
	Player   common.Address
	Identity uint256.Int
	Choices  uint8
	Salt     commitment.Salt
}

type Settlement struct {
	Room    Room           `json:"room"`
	Payout  Payout         `json:"payout"`
	Credits []ledger.Entry `json:"credits"`
}

type pending struct {
	event string
	data  any
}

func (e *Engine) CreateRoom(ctx context.Context, in CreateRoomInput) (Room, error) {
	now := e.now()
	if err := validateCreate(now, in); err != nil {
		return Room{}, err
	}
	if err := e.checkGate(ctx, in.Identity); err != nil {
		return Room{}, err
	}
	room := Room{
		Stake:          in.Stake,
		Pot:            in.Stake,
		Phase:          PhaseOpen,
		CommitDeadline: in.CommitDeadline.UTC(),
		RevealDeadline: in.RevealDeadline.UTC(),
		CreatedAt:      now.UTC(),
	}
	room.Seats[0] = Seat{Player: in.Player, Identity: in.Identity}
	var ticket uint64
	err := e.repo.InTx(ctx, func(tx Tx) error {
		id, err := tx.InsertRoom(ctx, room)
		if err != nil {
			return errors.Wrap(err, "insert room")
		}
		room.ID = id
		ticket = e.seq.reserve()
		return nil
	})
	if err != nil {
		e.seq.complete(ticket, nil)
		return Room{}, err
	}
	log.Debug().Uint64("room_id", room.ID).Str("op", "create").Int64("stake", room.Stake).Msg("room created")
	e.flush(ticket, room, "", []pending{{events.RoomCreated, map[string]any{
		"host":            in.Player,
		"stake":           room.Stake,
		"commit_deadline": room.CommitDeadline.Unix(),
		"reveal_deadline": room.RevealDeadline.Unix(),
	}}}, nil)
	return room, nil
}

func (e *Engine) JoinRoom(ctx context.Context, roomID uint64, in JoinRoomInput) (Room, error) {
	if err := validateCaller(in.Player, in.Identity); err != nil {
		return Room{}, err
	}
	if err := e.checkGate(ctx, in.Identity); err != nil {
		return Room{}, err
	}
	var out []pending
	room, ticket, err := e.mutate(ctx, roomID, func(r *Room) error {
		if err := validateJoin(e.now(), *r, in); err != nil {
			return err
		}
		r.Seats[1] = Seat{Player: in.Player, Identity: in.Identity}
		r.Pot += in.Value
		r.Phase = PhaseReady
		out = append(out,
			pending{events.RoomJoined, map[string]any{"player": in.Player, "pot": r.Pot}},
			phaseEvent(PhaseOpen, PhaseReady),
		)
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.flush(ticket, room, "join", out, nil)
	return room, nil
}

func (e *Engine) Commit(ctx context.Context, roomID uint64, in CommitInput) (Room, error) {
	if err := validateCaller(in.Player, in.Identity); err != nil {
		return Room{}, err
	}
	if in.Commitment == (common.Hash{}) {
		return Room{}, commitment.ErrInvalidCommitment
	}
	var out []pending
	room, ticket, err := e.mutate(ctx, roomID, func(r *Room) error {
		seat, ok := r.SeatOf(in.Player, in.Identity)
		if !ok {
			return ErrNotParticipant
		}
		if err := validateCommit(e.now(), *r, seat); err != nil {
			return err
		}
		r.Seats[seat].Commitment = in.Commitment
		out = append(out, pending{events.CommitmentRecorded, map[string]any{"seat": seat, "commitment": in.Commitment}})
		if r.Commitments() == 2 {
			r.Phase = PhaseCommitted
			out = append(out, phaseEvent(PhaseReady, PhaseCommitted))
		}
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.flush(ticket, room, "commit", out, nil)
	return room, nil
}

// Reveal checks the opening against the stored commitment. A mismatch leaves
// the room untouched so the player can still reveal the right values.
func (e *Engine) Reveal(ctx context.Context, roomID uint64, in RevealInput) (Room, error) {
	if err := validateCaller(in.Player, in.Identity); err != nil {
		return Room{}, err
	}
	if in.Choices > commitment.MaxPacked {
		return Room{}, commitment.ErrInvalidChoices
	}
	var out []pending
	room, ticket, err := e.mutate(ctx, roomID, func(r *Room) error {
		seat, ok := r.SeatOf(in.Player, in.Identity)
		if !ok {
			return ErrNotParticipant
		}
		if err := validateReveal(e.now(), *r, seat); err != nil {
			return err
		}
		if !commitment.Verify(r.ID, in.Choices, in.Salt, r.Seats[seat].Commitment) {
			return ErrInvalidReveal
		}
		r.Seats[seat].Revealed = true
		r.Seats[seat].Choices = in.Choices
		out = append(out, pending{events.RevealRecorded, map[string]any{"seat": seat, "choices": in.Choices}})
		if r.Reveals() == 2 {
			r.Phase = PhaseRevealed
			out = append(out, phaseEvent(PhaseCommitted, PhaseRevealed))
		}
		return nil
	})
	if err != nil {
		return Room{}, err
	}
	e.flush(ticket, room, "reveal", out, nil)
	return room, nil
}

// Settle resolves a room along the first applicable path and credits the
// ledger in the same transaction that marks the room terminal.
func (e *Engine) Settle(ctx context.Context, roomID uint64) (Settlement, error) {
	var st Settlement
	var out []pending
	room, ticket, err := e.mutateTx(ctx, roomID, func(tx Tx, r *Room) error {
		res, err := Eligibility(*r, e.now())
		if err != nil {
			return err
		}
		payout := ComputePayout(*r, res, e.policy)
		if payout.Total() != r.Pot {
			return errors.Errorf("payout %d does not match pot %d", payout.Total(), r.Pot)
		}
		credits := make([]ledger.Entry, 0, 3)
		post := func(addr common.Address, amount int64) error {
			entry, ok, err := e.ledger.Credit(ctx, tx, r.ID, addr, amount)
			if err != nil {
				return err
			}
			if ok {
				credits = append(credits, entry)
			}
			return nil
		}
		for i := range r.Seats {
			if err := post(r.Seats[i].Player, payout.Players[i]); err != nil {
				return err
			}
		}
		if err := post(e.sink, payout.Sink); err != nil {
			return err
		}
		from := r.Phase
		r.Resolution = res
		r.Phase = PhaseSettled
		name := events.RoomSettled
		if res == ResolutionCancelled {
			r.Phase = PhaseCancelled
			name = events.RoomCancelled
		}
		st.Payout = payout
		st.Credits = credits
		out = append(out, phaseEvent(from, r.Phase), pending{name, payout})
		return nil
	})
	if err != nil {
		return Settlement{}, err
	}
	st.Room = room
	log.Info().Uint64("room_id", room.ID).Str("op", "settle").Str("resolution", string(st.Payout.Resolution)).
		Int64("pot", room.Pot).Int64("p1", st.Payout.Players[0]).Int64("p2", st.Payout.Players[1]).Int64("sink", st.Payout.Sink).
		Msg("room settled")
	credits := st.Credits
	e.flush(ticket, room, "", out, func() { e.ledger.Announce(credits) })
	return st, nil
}

// GetRoom returns the zero Room for an unknown id.
func (e *Engine) GetRoom(ctx context.Context, id uint64) (Room, error) {
	r, ok, err := e.repo.GetRoom(ctx, id)
	if err != nil {
		return Room{}, errors.Wrap(err, "get room")
	}
	if !ok {
		return Room{}, nil
	}
	return r, nil
}

func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) Sink() common.Address {
	return e.sink
}

func (e *Engine) checkGate(ctx context.Context, id uint256.Int) error {
	ok, err := e.gate.IsAllowed(ctx, id)
	if err != nil {
		return errors.Wrap(err, "identity gate")
	}
	if !ok {
		return ErrIdentityBanned
	}
	return nil
}

func (e *Engine) mutate(ctx context.Context, roomID uint64, fn func(r *Room) error) (Room, uint64, error) {
	return e.mutateTx(ctx, roomID, func(_ Tx, r *Room) error { return fn(r) })
}

// mutateTx applies fn to the locked room and reserves the publication ticket
// while the transaction still holds the room.
func (e *Engine) mutateTx(ctx context.Context, roomID uint64, fn func(tx Tx, r *Room) error) (Room, uint64, error) {
	var room Room
	var ticket uint64
	err := e.repo.InTx(ctx, func(tx Tx) error {
		r, ok, err := tx.RoomForUpdate(ctx, roomID)
		if err != nil {
			return errors.Wrap(err, "load room")
		}
		if !ok {
			return ErrRoomNotFound
		}
		if err := fn(tx, &r); err != nil {
			return err
		}
		if err := tx.UpdateRoom(ctx, r); err != nil {
			return errors.Wrap(err, "update room")
		}
		room = r
		ticket = e.seq.reserve()
		return nil
	})
	if err != nil {
		e.seq.complete(ticket, nil)
		return Room{}, 0, err
	}
	return room, ticket, nil
}

func (e *Engine) flush(ticket uint64, r Room, op string, out []pending, after func()) {
	if op != "" {
		log.Debug().Uint64("room_id", r.ID).Str("op", op).Str("phase", r.Phase.String()).Msg("room updated")
	}
	e.seq.complete(ticket, func() {
		for _, p := range out {
			e.events.Publish(p.event, r.ID, p.data)
		}
		if after != nil {
			after()
		}
	})
}

func phaseEvent(from, to Phase) pending {
	return pending{events.PhaseChanged, map[string]any{"from": from.String(), "to": to.String()}}
}
