package game

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Repository is the durable Room table plus the pending-balance table that
// settlement credits inside the same transaction.
type Repository interface {
	// InTx runs fn in one serialized transaction. Nothing fn wrote survives
	// when it returns an error.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	GetRoom(ctx context.Context, id uint64) (Room, bool, error)
	// ListRoomsFrom returns up to limit rooms with id >= fromID in id order.
	ListRoomsFrom(ctx context.Context, fromID uint64, limit int) ([]Room, error)
}

type Tx interface {
	// InsertRoom stores r under the next room id and returns it.
	InsertRoom(ctx context.Context, r Room) (uint64, error)
	RoomForUpdate(ctx context.Context, id uint64) (Room, bool, error)
	UpdateRoom(ctx context.Context, r Room) error
	CreditPending(ctx context.Context, addr common.Address, amount int64) (int64, error)
}
