package game

import (
	"strings"

	"split-or-steal/internal/commitment"
)

// Policy decides what happens to a round's share when both players steal.
type Policy string

const (
	PolicyBurn   Policy = "burn"
	PolicyRefund Policy = "refund"
)

func ParsePolicy(v string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(v))) {
	case "", PolicyBurn:
		return PolicyBurn, nil
	case PolicyRefund:
		return PolicyRefund, nil
	default:
		return "", ErrInvalidPolicy
	}
}

type RoundResult struct {
	Round  int      `json:"round"`
	Steal  [2]bool  `json:"steal"`
	Share  int64    `json:"share"`
	Payout [2]int64 `json:"payout"`
	Sink   int64    `json:"sink"`
}

// Payout is the full distribution of a room's pot. Players and Sink always
// sum to the pot.
type Payout struct {
	Resolution Resolution    `json:"resolution"`
	Players    [2]int64      `json:"players"`
	Sink       int64         `json:"sink"`
	Rounds     []RoundResult `json:"rounds,omitempty"`
}

func (p Payout) Total() int64 {
	return p.Players[0] + p.Players[1] + p.Sink
}

// ComputePayout distributes r.Pot along the given settlement path.
func ComputePayout(r Room, res Resolution, policy Policy) Payout {
	out := Payout{Resolution: res}
	switch res {
	case ResolutionCancelled:
		out.Players[0] = r.Pot
	case ResolutionCommitForfeit:
		out.Players = forfeit(r, r.Seats[0].Committed(), r.Seats[1].Committed())
	case ResolutionRevealForfeit:
		out.Players = forfeit(r, r.Seats[0].Revealed, r.Seats[1].Revealed)
	case ResolutionPlayed:
		playRounds(r, policy, &out)
	}
	return out
}

// forfeit hands the pot to the only responsive player, or refunds both when
// neither responded.
func forfeit(r Room, ok0, ok1 bool) [2]int64 {
	switch {
	case ok0 && !ok1:
		return [2]int64{r.Pot, 0}
	case ok1 && !ok0:
		return [2]int64{0, r.Pot}
	default:
		return [2]int64{r.Stake, r.Pot - r.Stake}
	}
}

func playRounds(r Room, policy Policy, out *Payout) {
	share := r.Pot / commitment.Rounds
	rem := r.Pot % commitment.Rounds
	out.Rounds = make([]RoundResult, 0, commitment.Rounds)
	for i := 0; i < commitment.Rounds; i++ {
		rr := RoundResult{
			Round: i + 1,
			Share: share,
			Steal: [2]bool{
				commitment.Steals(r.Seats[0].Choices, i),
				commitment.Steals(r.Seats[1].Choices, i),
			},
		}
		if i == commitment.Rounds-1 {
			rr.Share += rem
		}
		switch {
		case rr.Steal[0] && rr.Steal[1]:
			if policy == PolicyRefund {
				half := rr.Share / 2
				rr.Payout = [2]int64{half, half}
				rr.Sink = rr.Share - 2*half
			} else {
				rr.Sink = rr.Share
			}
		case rr.Steal[0]:
			rr.Payout[0] = rr.Share
		case rr.Steal[1]:
			rr.Payout[1] = rr.Share
		default:
			half := rr.Share / 2
			rr.Payout = [2]int64{half, half}
			rr.Sink = rr.Share - 2*half
		}
		out.Players[0] += rr.Payout[0]
		out.Players[1] += rr.Payout[1]
		out.Sink += rr.Sink
		out.Rounds = append(out.Rounds, rr)
	}
}
