package store

import (
	"context"
	"time"

	"split-or-steal/internal/game"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

const DefaultCacheSize = 1024

// Store keeps rooms and pending balances in Postgres. Terminal rooms never
// change again and are served from an LRU cache.
type Store struct {
	Pool  *pgxpool.Pool
	cache *lru.Cache[uint64, game.Room]
}

func New(dsn string) (*Store, error) {
	return NewWithCache(dsn, DefaultCacheSize)
}

func NewWithCache(dsn string, cacheSize int) (*Store, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open pool")
	}
	cache, err := lru.New[uint64, game.Room](cacheSize)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "room cache")
	}
	return &Store{Pool: pool, cache: cache}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Store) InTx(ctx context.Context, fn func(tx game.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()
	ptx := &pgTx{tx: tx}
	if err := fn(ptx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit")
	}
	for _, r := range ptx.terminal {
		s.cache.Add(r.ID, r)
	}
	return nil
}

func (s *Store) GetRoom(ctx context.Context, id uint64) (game.Room, bool, error) {
	if r, ok := s.cache.Get(id); ok {
		return r, true, nil
	}
	r, err := scanRoom(s.Pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Room{}, false, nil
	}
	if err != nil {
		return game.Room{}, false, errors.Wrap(err, "select room")
	}
	if r.Phase.Terminal() {
		s.cache.Add(r.ID, r)
	}
	return r, true, nil
}

func (s *Store) ListRoomsFrom(ctx context.Context, fromID uint64, limit int) ([]game.Room, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id >= $1 ORDER BY id LIMIT $2`, int64(fromID), limit)
	if err != nil {
		return nil, errors.Wrap(err, "list rooms")
	}
	defer rows.Close()
	var out []game.Room
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan room")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "list rooms")
}

func (s *Store) TakePending(ctx context.Context, addr common.Address) (int64, error) {
	var amount int64
	err := s.Pool.QueryRow(ctx, `
WITH prev AS (
	SELECT address, amount FROM pending_withdrawals WHERE address = $1 FOR UPDATE
)
UPDATE pending_withdrawals p
SET amount = 0, updated_at = now()
FROM prev
WHERE p.address = prev.address
RETURNING prev.amount`, addr.Hex()).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "take pending")
	}
	return amount, nil
}

func (s *Store) RestorePending(ctx context.Context, addr common.Address, amount int64) error {
	_, err := creditPending(ctx, s.Pool, addr, amount)
	return err
}

func (s *Store) PendingBalance(ctx context.Context, addr common.Address) (int64, error) {
	var amount int64
	err := s.Pool.QueryRow(ctx, `SELECT amount FROM pending_withdrawals WHERE address = $1`, addr.Hex()).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "pending balance")
	}
	return amount, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func creditPending(ctx context.Context, q querier, addr common.Address, amount int64) (int64, error) {
	var bal int64
	err := q.QueryRow(ctx, `
INSERT INTO pending_withdrawals (address, amount) VALUES ($1, $2)
ON CONFLICT (address) DO UPDATE
SET amount = pending_withdrawals.amount + EXCLUDED.amount, updated_at = now()
RETURNING amount`, addr.Hex(), amount).Scan(&bal)
	if err != nil {
		return 0, errors.Wrap(err, "credit pending")
	}
	return bal, nil
}

type pgTx struct {
	tx       pgx.Tx
	terminal []game.Room
}

func (t *pgTx) InsertRoom(ctx context.Context, r game.Room) (uint64, error) {
	host := r.Seats[0]
	var id int64
	err := t.tx.QueryRow(ctx, `
INSERT INTO rooms (stake, pot, phase, resolution, commit_deadline, reveal_deadline, created_at, player1, identity1)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CAST($9::text AS NUMERIC))
RETURNING id`,
		r.Stake, r.Pot, int16(r.Phase), string(r.Resolution), r.CommitDeadline, r.RevealDeadline, r.CreatedAt,
		host.Player.Hex(), host.Identity.Dec(),
	).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "insert room")
	}
	return uint64(id), nil
}

func (t *pgTx) RoomForUpdate(ctx context.Context, id uint64) (game.Room, bool, error) {
	r, err := scanRoom(t.tx.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1 FOR UPDATE`, int64(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return game.Room{}, false, nil
	}
	if err != nil {
		return game.Room{}, false, errors.Wrap(err, "select room for update")
	}
	return r, true, nil
}

func (t *pgTx) UpdateRoom(ctx context.Context, r game.Room) error {
	a, b := r.Seats[0], r.Seats[1]
	player2 := ""
	if b.Joined() {
		player2 = b.Player.Hex()
	}
	tag, err := t.tx.Exec(ctx, `
UPDATE rooms SET
	pot = $2, phase = $3, resolution = $4,
	player2 = $5, identity2 = CAST($6::text AS NUMERIC),
	commitment1 = $7, revealed1 = $8, choices1 = $9,
	commitment2 = $10, revealed2 = $11, choices2 = $12
WHERE id = $1`,
		int64(r.ID), r.Pot, int16(r.Phase), string(r.Resolution),
		player2, b.Identity.Dec(),
		hashBytes(a.Commitment), a.Revealed, int16(a.Choices),
		hashBytes(b.Commitment), b.Revealed, int16(b.Choices),
	)
	if err != nil {
		return errors.Wrap(err, "update room")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if r.Phase.Terminal() {
		t.terminal = append(t.terminal, r)
	}
	return nil
}

func (t *pgTx) CreditPending(ctx context.Context, addr common.Address, amount int64) (int64, error) {
	return creditPending(ctx, t.tx, addr, amount)
}
