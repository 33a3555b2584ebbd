package game

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type Phase uint8

const (
	PhaseOpen Phase = iota
	PhaseReady
	PhaseCommitted
	PhaseRevealed
	PhaseSettled
	PhaseCancelled
)

var phaseNames = [...]string{"open", "ready", "committed", "revealed", "settled", "cancelled"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "unknown"
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Phase) Terminal() bool {
	return p == PhaseSettled || p == PhaseCancelled
}

// Resolution records which settlement path closed a room.
type Resolution string

const (
	ResolutionNone          Resolution = ""
	ResolutionCancelled     Resolution = "cancelled"
	ResolutionCommitForfeit Resolution = "commit_forfeit"
	ResolutionRevealForfeit Resolution = "reveal_forfeit"
	ResolutionPlayed        Resolution = "played"
)

// Seat is one side of a room. The zero Seat is an empty seat.
type Seat struct {
	Player     common.Address
	Identity   uint256.Int
	Commitment common.Hash
	Revealed   bool
	Choices    uint8
}

func (s Seat) Joined() bool {
	return s.Player != (common.Address{})
}

func (s Seat) Committed() bool {
	return s.Commitment != (common.Hash{})
}

type Room struct {
	ID             uint64
	Stake          int64
	Pot            int64
	Phase          Phase
	Resolution     Resolution
	CommitDeadline time.Time
	RevealDeadline time.Time
	Seats          [2]Seat
	CreatedAt      time.Time
}

func (r Room) Exists() bool {
	return r.ID != 0
}

// SeatOf returns the seat held by the given address and identity. Both must
// match the same seat.
func (r Room) SeatOf(player common.Address, id uint256.Int) (int, bool) {
	for i, s := range r.Seats {
		if s.Joined() && s.Player == player && s.Identity == id {
			return i, true
		}
	}
	return -1, false
}

func (r Room) Commitments() int {
	n := 0
	for _, s := range r.Seats {
		if s.Committed() {
			n++
		}
	}
	return n
}

func (r Room) Reveals() int {
	n := 0
	for _, s := range r.Seats {
		if s.Revealed {
			n++
		}
	}
	return n
}
