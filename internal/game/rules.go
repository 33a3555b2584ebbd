package game

import (
	"math"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxStake is the largest stake whose pot still fits in int64.
const MaxStake int64 = math.MaxInt64 / 2

func validateCaller(player common.Address, id uint256.Int) error {
	if player == (common.Address{}) {
		return ErrInvalidPlayer
	}
	if id.IsZero() {
		return ErrInvalidIdentity
	}
	return nil
}

func validateCreate(now time.Time, in CreateRoomInput) error {
	if err := validateCaller(in.Player, in.Identity); err != nil {
		return err
	}
	// The pot holds two stakes.
	if in.Stake <= 0 || in.Stake > MaxStake {
		return ErrInvalidStake
	}
	if in.Value != in.Stake {
		return ErrStakeMismatch
	}
	if !now.Before(in.CommitDeadline) || !in.CommitDeadline.Before(in.RevealDeadline) {
		return ErrInvalidDeadlines
	}
	return nil
}

func validateJoin(now time.Time, r Room, in JoinRoomInput) error {
	if r.Phase != PhaseOpen {
		return ErrRoomNotOpen
	}
	if !now.Before(r.CommitDeadline) {
		return ErrDeadlinePassed
	}
	host := r.Seats[0]
	if host.Identity == in.Identity || host.Player == in.Player {
		return ErrSameIdentity
	}
	if in.Value != r.Stake {
		return ErrStakeMismatch
	}
	return nil
}

func validateCommit(now time.Time, r Room, seat int) error {
	if r.Seats[seat].Committed() {
		return ErrAlreadyCommitted
	}
	if r.Phase != PhaseReady {
		return ErrInvalidPhase
	}
	if now.After(r.CommitDeadline) {
		return ErrDeadlinePassed
	}
	return nil
}

func validateReveal(now time.Time, r Room, seat int) error {
	if r.Seats[seat].Revealed {
		return ErrAlreadyRevealed
	}
	if r.Phase != PhaseCommitted {
		return ErrInvalidPhase
	}
	if now.After(r.RevealDeadline) {
		return ErrDeadlinePassed
	}
	return nil
}

// Eligibility reports which settlement path applies to r at now.
func Eligibility(r Room, now time.Time) (Resolution, error) {
	switch r.Phase {
	case PhaseSettled, PhaseCancelled:
		return ResolutionNone, ErrAlreadySettled
	case PhaseRevealed:
		return ResolutionPlayed, nil
	case PhaseOpen:
		if now.After(r.CommitDeadline) {
			return ResolutionCancelled, nil
		}
	case PhaseReady:
		if now.After(r.CommitDeadline) {
			return ResolutionCommitForfeit, nil
		}
	case PhaseCommitted:
		if now.After(r.RevealDeadline) {
			return ResolutionRevealForfeit, nil
		}
	}
	return ResolutionNone, ErrNotEligible
}
