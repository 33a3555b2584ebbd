package game_test

import (
	"context"
	"testing"
	"time"

	"split-or-steal/internal/apperr"
	"split-or-steal/internal/commitment"
	"split-or-steal/internal/game"

	"github.com/stretchr/testify/require"
)

func TestAllSplitReturnsStakes(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	a, b := mustOpen(t, splits()...), mustOpen(t, splits()...)

	require.NoError(t, h.commit(t, r.ID, alice, aliceID, a))
	require.NoError(t, h.commit(t, r.ID, bob, bobID, b))
	require.NoError(t, h.reveal(t, r.ID, alice, aliceID, a))
	require.NoError(t, h.reveal(t, r.ID, bob, bobID, b))

	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.ResolutionPlayed, st.Payout.Resolution)
	require.Equal(t, game.PhaseSettled, st.Room.Phase)
	require.Equal(t, int64(100), h.balance(t, alice))
	require.Equal(t, int64(100), h.balance(t, bob))
	require.Equal(t, int64(0), h.balance(t, game.DefaultSink))
	require.Equal(t, int64(200), creditsFor(h.events, r.ID))
}

func TestFirstRoundStealTakesShare(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	a := mustOpen(t, true, false, false, false, false)
	b := mustOpen(t, splits()...)

	require.NoError(t, h.commit(t, r.ID, alice, aliceID, a))
	require.NoError(t, h.commit(t, r.ID, bob, bobID, b))
	require.NoError(t, h.reveal(t, r.ID, bob, bobID, b))
	require.NoError(t, h.reveal(t, r.ID, alice, aliceID, a))

	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, [2]int64{120, 80}, st.Payout.Players)
	require.Equal(t, int64(120), h.balance(t, alice))
	require.Equal(t, int64(80), h.balance(t, bob))
}

func TestCommitForfeitOnlyAfterDeadline(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	require.NoError(t, h.commit(t, r.ID, alice, aliceID, mustOpen(t, splits()...)))

	_, err := h.engine.Settle(context.Background(), r.ID)
	require.ErrorIs(t, err, game.ErrNotEligible)

	h.clock.Set(r.CommitDeadline)
	_, err = h.engine.Settle(context.Background(), r.ID)
	require.ErrorIs(t, err, game.ErrNotEligible)

	h.clock.Set(r.CommitDeadline.Add(time.Second))
	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.ResolutionCommitForfeit, st.Payout.Resolution)
	require.Equal(t, int64(200), h.balance(t, alice))
	require.Equal(t, int64(0), h.balance(t, bob))
}

func TestCommitForfeitNeitherCommittedRefundsBoth(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 70)
	h.clock.Set(r.CommitDeadline.Add(time.Second))

	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, [2]int64{70, 70}, st.Payout.Players)
	require.Equal(t, int64(140), creditsFor(h.events, r.ID))
}

func TestRevealForfeit(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	a, b := mustOpen(t, splits()...), mustOpen(t, true, true, true, true, true)
	require.NoError(t, h.commit(t, r.ID, alice, aliceID, a))
	require.NoError(t, h.commit(t, r.ID, bob, bobID, b))
	require.NoError(t, h.reveal(t, r.ID, bob, bobID, b))

	h.clock.Set(r.RevealDeadline)
	_, err := h.engine.Settle(context.Background(), r.ID)
	require.ErrorIs(t, err, game.ErrNotEligible)

	h.clock.Set(r.RevealDeadline.Add(time.Second))
	require.ErrorIs(t, h.reveal(t, r.ID, alice, aliceID, a), game.ErrDeadlinePassed)
	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.ResolutionRevealForfeit, st.Payout.Resolution)
	require.Equal(t, int64(0), h.balance(t, alice))
	require.Equal(t, int64(200), h.balance(t, bob))
}

func TestCancelledRoomRefundsHost(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.create(t, 50)

	_, err := h.engine.Settle(context.Background(), r.ID)
	require.ErrorIs(t, err, game.ErrNotEligible)

	h.clock.Set(r.CommitDeadline.Add(time.Second))
	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.PhaseCancelled, st.Room.Phase)
	require.Equal(t, int64(50), h.balance(t, alice))
	require.Equal(t, int64(50), creditsFor(h.events, r.ID))
}

func TestDoubleSettleCreditsOnce(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	h.clock.Set(r.CommitDeadline.Add(time.Second))

	_, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	_, err = h.engine.Settle(context.Background(), r.ID)
	require.ErrorIs(t, err, game.ErrAlreadySettled)
	require.ErrorIs(t, err, apperr.ErrState)
	require.Equal(t, int64(100), h.balance(t, alice))
	require.Equal(t, int64(200), creditsFor(h.events, r.ID))
}

func TestPotConservedAcrossChoices(t *testing.T) {
	for _, policy := range []game.Policy{game.PolicyBurn, game.PolicyRefund} {
		for packedA := uint8(0); packedA <= commitment.MaxPacked; packedA += 5 {
			for packedB := uint8(0); packedB <= commitment.MaxPacked; packedB += 7 {
				h := newHarness(t, policy)
				r := h.ready(t, 101)
				a := opening{packed: packedA, salt: commitment.Salt{1}}
				b := opening{packed: packedB, salt: commitment.Salt{2}}
				require.NoError(t, h.commit(t, r.ID, alice, aliceID, a))
				require.NoError(t, h.commit(t, r.ID, bob, bobID, b))
				require.NoError(t, h.reveal(t, r.ID, alice, aliceID, a))
				require.NoError(t, h.reveal(t, r.ID, bob, bobID, b))
				st, err := h.engine.Settle(context.Background(), r.ID)
				require.NoError(t, err)
				require.Equal(t, r.Pot, st.Payout.Total())
				require.Equal(t, r.Pot, creditsFor(h.events, r.ID))
			}
		}
	}
}

func TestBannedIdentityCannotCreateOrJoin(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	require.NoError(t, h.registry.MarkCheater(bobID))

	_, err := h.engine.CreateRoom(context.Background(), game.CreateRoomInput{
		Player: bob, Identity: bobID, Stake: 10, Value: 10,
		CommitDeadline: t0.Add(time.Minute), RevealDeadline: t0.Add(2 * time.Minute),
	})
	require.ErrorIs(t, err, game.ErrIdentityBanned)
	require.ErrorIs(t, err, apperr.ErrAuthorization)

	r := h.create(t, 10)
	_, err = h.engine.JoinRoom(context.Background(), r.ID, game.JoinRoomInput{Player: bob, Identity: bobID, Value: 10})
	require.ErrorIs(t, err, game.ErrIdentityBanned)

	got, err := h.engine.GetRoom(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.PhaseOpen, got.Phase)
	require.Equal(t, int64(10), got.Pot)
}

func TestBanAfterJoinDoesNotVoidRoom(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 10)
	require.NoError(t, h.registry.MarkCheater(bobID))
	require.NoError(t, h.commit(t, r.ID, bob, bobID, mustOpen(t, splits()...)))
}

func TestRevealMismatchKeepsSlot(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	a, b := mustOpen(t, true, false, true, false, false), mustOpen(t, splits()...)
	require.NoError(t, h.commit(t, r.ID, alice, aliceID, a))
	require.NoError(t, h.commit(t, r.ID, bob, bobID, b))

	flipped := a
	flipped.packed ^= 1 << 3
	err := h.reveal(t, r.ID, alice, aliceID, flipped)
	require.ErrorIs(t, err, game.ErrInvalidReveal)
	require.ErrorIs(t, err, apperr.ErrCryptoMismatch)

	badSalt := a
	badSalt.salt[31] ^= 0x01
	require.ErrorIs(t, h.reveal(t, r.ID, alice, aliceID, badSalt), game.ErrInvalidReveal)

	got, err := h.engine.GetRoom(context.Background(), r.ID)
	require.NoError(t, err)
	require.False(t, got.Seats[0].Revealed)

	require.NoError(t, h.reveal(t, r.ID, alice, aliceID, a))
	require.ErrorIs(t, h.reveal(t, r.ID, alice, aliceID, a), game.ErrAlreadyRevealed)
}

func TestJoinRules(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.PolicyBurn)
	r := h.create(t, 100)

	_, err := h.engine.JoinRoom(ctx, r.ID, game.JoinRoomInput{Player: bob, Identity: aliceID, Value: 100})
	require.ErrorIs(t, err, game.ErrSameIdentity)
	_, err = h.engine.JoinRoom(ctx, r.ID, game.JoinRoomInput{Player: alice, Identity: bobID, Value: 100})
	require.ErrorIs(t, err, game.ErrSameIdentity)
	_, err = h.engine.JoinRoom(ctx, r.ID, game.JoinRoomInput{Player: bob, Identity: bobID, Value: 99})
	require.ErrorIs(t, err, game.ErrStakeMismatch)
	_, err = h.engine.JoinRoom(ctx, 99, game.JoinRoomInput{Player: bob, Identity: bobID, Value: 100})
	require.ErrorIs(t, err, game.ErrRoomNotFound)

	got, err := h.engine.JoinRoom(ctx, r.ID, game.JoinRoomInput{Player: bob, Identity: bobID, Value: 100})
	require.NoError(t, err)
	require.Equal(t, game.PhaseReady, got.Phase)
	require.Equal(t, int64(200), got.Pot)

	_, err = h.engine.JoinRoom(ctx, r.ID, game.JoinRoomInput{Player: carol, Identity: carolID, Value: 100})
	require.ErrorIs(t, err, game.ErrRoomNotOpen)

	late := h.create(t, 100)
	h.clock.Set(late.CommitDeadline)
	_, err = h.engine.JoinRoom(ctx, late.ID, game.JoinRoomInput{Player: carol, Identity: carolID, Value: 100})
	require.ErrorIs(t, err, game.ErrDeadlinePassed)
}

func TestCommitRules(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	open := h.create(t, 100)
	o := mustOpen(t, splits()...)
	require.ErrorIs(t, h.commit(t, open.ID, alice, aliceID, o), game.ErrInvalidPhase)

	r := h.ready(t, 100)
	require.ErrorIs(t, h.commit(t, r.ID, carol, carolID, o), game.ErrNotParticipant)
	require.ErrorIs(t, h.commit(t, r.ID, alice, bobID, o), game.ErrNotParticipant)

	require.NoError(t, h.commit(t, r.ID, alice, aliceID, o))
	require.ErrorIs(t, h.commit(t, r.ID, alice, aliceID, o), game.ErrAlreadyCommitted)

	got, err := h.engine.GetRoom(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.PhaseReady, got.Phase)

	h.clock.Set(r.CommitDeadline)
	require.NoError(t, h.commit(t, r.ID, bob, bobID, mustOpen(t, splits()...)))
	got, err = h.engine.GetRoom(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.PhaseCommitted, got.Phase)

	h.clock.Set(t0)
	late := h.ready(t, 100)
	h.clock.Set(late.CommitDeadline.Add(time.Second))
	require.ErrorIs(t, h.commit(t, late.ID, alice, aliceID, o), game.ErrDeadlinePassed)
}

func TestRevealRules(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, 100)
	a, b := mustOpen(t, splits()...), mustOpen(t, true, false, false, false, false)
	require.ErrorIs(t, h.reveal(t, r.ID, alice, aliceID, a), game.ErrInvalidPhase)

	require.NoError(t, h.commit(t, r.ID, alice, aliceID, a))
	require.ErrorIs(t, h.reveal(t, r.ID, alice, aliceID, a), game.ErrInvalidPhase)
	require.NoError(t, h.commit(t, r.ID, bob, bobID, b))

	require.ErrorIs(t, h.reveal(t, r.ID, carol, carolID, a), game.ErrNotParticipant)
	require.ErrorIs(t, h.reveal(t, r.ID, alice, bobID, a), game.ErrNotParticipant)

	require.NoError(t, h.reveal(t, r.ID, alice, aliceID, a))
	require.ErrorIs(t, h.reveal(t, r.ID, alice, aliceID, a), game.ErrAlreadyRevealed)

	h.clock.Set(r.RevealDeadline.Add(time.Second))
	require.ErrorIs(t, h.reveal(t, r.ID, bob, bobID, b), game.ErrDeadlinePassed)
}

func TestMaxStakePotFits(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r := h.ready(t, game.MaxStake)
	require.Equal(t, 2*game.MaxStake, r.Pot)
	require.Positive(t, r.Pot)

	h.clock.Set(r.CommitDeadline.Add(time.Second))
	st, err := h.engine.Settle(context.Background(), r.ID)
	require.NoError(t, err)
	require.Equal(t, game.ResolutionCommitForfeit, st.Payout.Resolution)
	require.Equal(t, r.Pot, st.Payout.Total())
}

func TestCreateRoomValidation(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	base := game.CreateRoomInput{
		Player: alice, Identity: aliceID, Stake: 10, Value: 10,
		CommitDeadline: t0.Add(time.Minute), RevealDeadline: t0.Add(2 * time.Minute),
	}
	cases := []struct {
		name string
		edit func(in *game.CreateRoomInput)
		want error
	}{
		{"zero stake", func(in *game.CreateRoomInput) { in.Stake, in.Value = 0, 0 }, game.ErrInvalidStake},
		{"value mismatch", func(in *game.CreateRoomInput) { in.Value = 9 }, game.ErrStakeMismatch},
		{"deadlines equal", func(in *game.CreateRoomInput) { in.RevealDeadline = in.CommitDeadline }, game.ErrInvalidDeadlines},
		{"commit in past", func(in *game.CreateRoomInput) { in.CommitDeadline = t0 }, game.ErrInvalidDeadlines},
		{"no identity", func(in *game.CreateRoomInput) { in.Identity.Clear() }, game.ErrInvalidIdentity},
		{"pot overflows", func(in *game.CreateRoomInput) { in.Stake, in.Value = game.MaxStake+1, game.MaxStake+1 }, game.ErrInvalidStake},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.edit(&in)
			_, err := h.engine.CreateRoom(context.Background(), in)
			require.ErrorIs(t, err, tc.want)
			require.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	r, err := h.engine.CreateRoom(context.Background(), base)
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.ID)
}

func TestGetRoomUnknownIsZero(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	r, err := h.engine.GetRoom(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, r.Exists())
	require.Equal(t, game.Room{}, r)
}
