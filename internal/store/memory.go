package store

import (
	"context"
	"sync"

	"split-or-steal/internal/game"

	"github.com/ethereum/go-ethereum/common"
)

// Memory keeps rooms in an arena indexed by id-1 and pending balances by
// address. Transactions are serialized and staged; a failed transaction
// leaves nothing behind.
type Memory struct {
	mu      sync.Mutex
	rooms   []game.Room
	pending map[common.Address]int64
}

func NewMemory() *Memory {
	return &Memory{pending: make(map[common.Address]int64)}
}

func (m *Memory) InTx(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{m: m, rooms: map[uint64]game.Room{}, credits: map[common.Address]int64{}}
	if err := fn(tx); err != nil {
		return err
	}
	m.rooms = append(m.rooms, tx.inserted...)
	for id, r := range tx.rooms {
		m.rooms[id-1] = r
	}
	for addr, amount := range tx.credits {
		m.pending[addr] += amount
	}
	return nil
}

func (m *Memory) GetRoom(_ context.Context, id uint64) (game.Room, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roomLocked(id)
	return r, ok, nil
}

func (m *Memory) ListRoomsFrom(_ context.Context, fromID uint64, limit int) ([]game.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fromID == 0 {
		fromID = 1
	}
	if limit <= 0 || fromID > uint64(len(m.rooms)) {
		return nil, nil
	}
	end := fromID - 1 + uint64(limit)
	if end > uint64(len(m.rooms)) {
		end = uint64(len(m.rooms))
	}
	out := make([]game.Room, end-(fromID-1))
	copy(out, m.rooms[fromID-1:end])
	return out, nil
}

func (m *Memory) TakePending(_ context.Context, addr common.Address) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	amount := m.pending[addr]
	if amount > 0 {
		m.pending[addr] = 0
	}
	return amount, nil
}

func (m *Memory) RestorePending(_ context.Context, addr common.Address, amount int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[addr] += amount
	return nil
}

func (m *Memory) PendingBalance(_ context.Context, addr common.Address) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[addr], nil
}

func (m *Memory) roomLocked(id uint64) (game.Room, bool) {
	if id == 0 || id > uint64(len(m.rooms)) {
		return game.Room{}, false
	}
	return m.rooms[id-1], true
}

type memTx struct {
	m        *Memory
	inserted []game.Room
	rooms    map[uint64]game.Room
	credits  map[common.Address]int64
}

func (tx *memTx) InsertRoom(_ context.Context, r game.Room) (uint64, error) {
	r.ID = uint64(len(tx.m.rooms)+len(tx.inserted)) + 1
	tx.inserted = append(tx.inserted, r)
	return r.ID, nil
}

func (tx *memTx) RoomForUpdate(_ context.Context, id uint64) (game.Room, bool, error) {
	if r, ok := tx.rooms[id]; ok {
		return r, true, nil
	}
	base := uint64(len(tx.m.rooms))
	if id > base && id <= base+uint64(len(tx.inserted)) {
		return tx.inserted[id-base-1], true, nil
	}
	r, ok := tx.m.roomLocked(id)
	return r, ok, nil
}

func (tx *memTx) UpdateRoom(_ context.Context, r game.Room) error {
	base := uint64(len(tx.m.rooms))
	if r.ID > base && r.ID <= base+uint64(len(tx.inserted)) {
		tx.inserted[r.ID-base-1] = r
		return nil
	}
	if _, ok := tx.m.roomLocked(r.ID); !ok {
		return ErrNotFound
	}
	tx.rooms[r.ID] = r
	return nil
}

func (tx *memTx) CreditPending(_ context.Context, addr common.Address, amount int64) (int64, error) {
	tx.credits[addr] += amount
	return tx.m.pending[addr] + tx.credits[addr], nil
}
