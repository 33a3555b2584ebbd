package game

import (
	"context"
	"iter"

	"github.com/pkg/errors"
)

// Joinable yields ids of Open rooms whose commit deadline is still ahead,
// scanning forward from startID and stopping after max ids. The sequence
// reads the repository in batches and can be restarted from the last id + 1.
func (e *Engine) Joinable(ctx context.Context, startID uint64, max int) iter.Seq2[uint64, error] {
	return func(yield func(uint64, error) bool) {
		if max <= 0 {
			return
		}
		if startID == 0 {
			startID = 1
		}
		found := 0
		next := startID
		for {
			batch, err := e.repo.ListRoomsFrom(ctx, next, e.scanBatch)
			if err != nil {
				yield(0, errors.Wrap(err, "list rooms"))
				return
			}
			now := e.now()
			for _, r := range batch {
				next = r.ID + 1
				if r.Phase != PhaseOpen || !now.Before(r.CommitDeadline) {
					continue
				}
				if !yield(r.ID, nil) {
					return
				}
				found++
				if found >= max {
					return
				}
			}
			if len(batch) < e.scanBatch {
				return
			}
		}
	}
}

func (e *Engine) ListJoinable(ctx context.Context, startID uint64, max int) ([]uint64, error) {
	ids := []uint64{}
	for id, err := range e.Joinable(ctx, startID, max) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
