package store

import (
	"split-or-steal/internal/game"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const roomColumns = `id, stake, pot, phase, resolution, commit_deadline, reveal_deadline, created_at,
	player1, identity1::text, commitment1, revealed1, choices1,
	player2, identity2::text, commitment2, revealed2, choices2`

type seatRow struct {
	player     string
	identity   string
	commitment []byte
	revealed   bool
	choices    int16
}

func (s seatRow) seat() (game.Seat, error) {
	var out game.Seat
	if s.player == "" {
		return out, nil
	}
	if !common.IsHexAddress(s.player) {
		return out, errors.Errorf("bad player address %q", s.player)
	}
	out.Player = common.HexToAddress(s.player)
	var id uint256.Int
	if err := id.SetFromDecimal(s.identity); err != nil {
		return out, errors.Wrapf(err, "bad identity %q", s.identity)
	}
	out.Identity = id
	if len(s.commitment) == common.HashLength {
		out.Commitment = common.BytesToHash(s.commitment)
	}
	out.Revealed = s.revealed
	out.Choices = uint8(s.choices)
	return out, nil
}

func scanRoom(row pgx.Row) (game.Room, error) {
	var (
		r          game.Room
		id         int64
		phase      int16
		resolution string
		seats      [2]seatRow
	)
	err := row.Scan(
		&id, &r.Stake, &r.Pot, &phase, &resolution, &r.CommitDeadline, &r.RevealDeadline, &r.CreatedAt,
		&seats[0].player, &seats[0].identity, &seats[0].commitment, &seats[0].revealed, &seats[0].choices,
		&seats[1].player, &seats[1].identity, &seats[1].commitment, &seats[1].revealed, &seats[1].choices,
	)
	if err != nil {
		return game.Room{}, err
	}
	r.ID = uint64(id)
	r.Phase = game.Phase(phase)
	r.Resolution = game.Resolution(resolution)
	r.CommitDeadline = r.CommitDeadline.UTC()
	r.RevealDeadline = r.RevealDeadline.UTC()
	r.CreatedAt = r.CreatedAt.UTC()
	for i := range seats {
		s, err := seats[i].seat()
		if err != nil {
			return game.Room{}, err
		}
		r.Seats[i] = s
	}
	return r, nil
}

func hashBytes(h common.Hash) []byte {
	if h == (common.Hash{}) {
		return nil
	}
	return h.Bytes()
}
