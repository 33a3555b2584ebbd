package game_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"split-or-steal/internal/commitment"
	"split-or-steal/internal/events"
	"split-or-steal/internal/game"
	"split-or-steal/internal/identity"
	"split-or-steal/internal/ledger"
	"split-or-steal/internal/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol = common.HexToAddress("0x00000000000000000000000000000000000ca201")

	aliceID = *uint256.NewInt(1001)
	bobID   = *uint256.NewInt(1002)
	carolID = *uint256.NewInt(1003)

	t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type harness struct {
	engine   *game.Engine
	ledger   *ledger.Ledger
	mem      *store.Memory
	registry *identity.Registry
	events   *events.Buffer
	clock    *clock
}

func newHarness(t *testing.T, policy game.Policy) *harness {
	t.Helper()
	buf := events.NewBuffer(1000)
	t.Cleanup(buf.Close)
	reg := identity.NewRegistry(true, buf)
	for _, id := range []uint256.Int{aliceID, bobID, carolID} {
		require.NoError(t, reg.Issue(id, ""))
	}
	mem := store.NewMemory()
	led := ledger.New(mem, ledger.LogTransferer{}, buf)
	clk := &clock{now: t0}
	eng := game.NewEngine(mem, reg, led, game.Options{
		Policy:    policy,
		Events:    buf,
		Now:       clk.Now,
		ScanBatch: 2,
	})
	return &harness{engine: eng, ledger: led, mem: mem, registry: reg, events: buf, clock: clk}
}

func (h *harness) create(t *testing.T, stake int64) game.Room {
	t.Helper()
	r, err := h.engine.CreateRoom(context.Background(), game.CreateRoomInput{
		Player:         alice,
		Identity:       aliceID,
		Stake:          stake,
		Value:          stake,
		CommitDeadline: t0.Add(10 * time.Minute),
		RevealDeadline: t0.Add(20 * time.Minute),
	})
	require.NoError(t, err)
	return r
}

func (h *harness) ready(t *testing.T, stake int64) game.Room {
	t.Helper()
	r := h.create(t, stake)
	r, err := h.engine.JoinRoom(context.Background(), r.ID, game.JoinRoomInput{Player: bob, Identity: bobID, Value: stake})
	require.NoError(t, err)
	return r
}

type opening struct {
	packed uint8
	salt   commitment.Salt
}

func mustOpen(t *testing.T, choices ...bool) opening {
	t.Helper()
	packed, err := commitment.Pack(choices)
	require.NoError(t, err)
	salt, err := commitment.NewSalt()
	require.NoError(t, err)
	return opening{packed: packed, salt: salt}
}

func (h *harness) commit(t *testing.T, roomID uint64, who common.Address, id uint256.Int, o opening) error {
	t.Helper()
	_, err := h.engine.Commit(context.Background(), roomID, game.CommitInput{
		Player:     who,
		Identity:   id,
		Commitment: commitment.Commit(roomID, o.packed, o.salt),
	})
	return err
}

func (h *harness) reveal(t *testing.T, roomID uint64, who common.Address, id uint256.Int, o opening) error {
	t.Helper()
	_, err := h.engine.Reveal(context.Background(), roomID, game.RevealInput{
		Player:   who,
		Identity: id,
		Choices:  o.packed,
		Salt:     o.salt,
	})
	return err
}

func (h *harness) balance(t *testing.T, addr common.Address) int64 {
	t.Helper()
	b, err := h.ledger.Balance(context.Background(), addr)
	require.NoError(t, err)
	return b
}

func creditsFor(buf *events.Buffer, roomID uint64) int64 {
	var sum int64
	for _, ev := range buf.ReplayAfter("") {
		if ev.Event != events.BalanceCredited || ev.RoomID != roomID {
			continue
		}
		sum += ev.Data.(ledger.Entry).Amount
	}
	return sum
}

func splits() []bool { return []bool{false, false, false, false, false} }
