package game_test

import (
	"context"
	"testing"
	"time"

	"split-or-steal/internal/game"

	"github.com/stretchr/testify/require"
)

func TestListJoinableSkipsFullAndExpired(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.PolicyBurn)

	open1 := h.create(t, 10)
	full := h.ready(t, 10)
	open2 := h.create(t, 10)
	short, err := h.engine.CreateRoom(ctx, game.CreateRoomInput{
		Player: carol, Identity: carolID, Stake: 10, Value: 10,
		CommitDeadline: t0.Add(time.Minute), RevealDeadline: t0.Add(2 * time.Minute),
	})
	require.NoError(t, err)
	open3 := h.create(t, 10)

	ids, err := h.engine.ListJoinable(ctx, 1, 50)
	require.NoError(t, err)
	require.Equal(t, []uint64{open1.ID, open2.ID, short.ID, open3.ID}, ids)
	require.NotContains(t, ids, full.ID)

	h.clock.Set(short.CommitDeadline)
	ids, err = h.engine.ListJoinable(ctx, 1, 50)
	require.NoError(t, err)
	require.Equal(t, []uint64{open1.ID, open2.ID, open3.ID}, ids)
}

func TestListJoinableBoundsAndRestart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, game.PolicyBurn)
	for i := 0; i < 7; i++ {
		h.create(t, 10)
	}

	first, err := h.engine.ListJoinable(ctx, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, first)

	rest, err := h.engine.ListJoinable(ctx, first[len(first)-1]+1, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 5, 6, 7}, rest)

	none, err := h.engine.ListJoinable(ctx, 100, 10)
	require.NoError(t, err)
	require.Empty(t, none)

	zero, err := h.engine.ListJoinable(ctx, 1, 0)
	require.NoError(t, err)
	require.Empty(t, zero)
}

func TestJoinableStopsEarly(t *testing.T) {
	h := newHarness(t, game.PolicyBurn)
	for i := 0; i < 5; i++ {
		h.create(t, 10)
	}
	var seen []uint64
	for id, err := range h.engine.Joinable(context.Background(), 0, 10) {
		require.NoError(t, err)
		seen = append(seen, id)
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []uint64{1, 2}, seen)
}
