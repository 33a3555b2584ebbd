// Package identity consumes the durable per-person identifier (nullifier)
// issued by the external attestation system. The room engine only asks Gate
// whether a nullifier may play; Registry is the in-process trust component
// that answers and that admins use to flag cheaters.
package identity

import (
	"context"
	"strings"
	"sync"

	"split-or-steal/internal/apperr"
	"split-or-steal/internal/events"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

type Nullifier = uint256.Int

var (
	ErrInvalidNullifier = apperr.New(apperr.ErrValidation, "invalid_nullifier")
	ErrAlreadyIssued    = apperr.New(apperr.ErrState, "nullifier_already_issued")
	ErrNotIssued        = apperr.New(apperr.ErrState, "nullifier_not_issued")
)

// Gate reports whether a nullifier is currently allowed to play.
type Gate interface {
	IsAllowed(ctx context.Context, n Nullifier) (bool, error)
}

// ParseNullifier accepts a decimal or 0x-prefixed hex uint256. Zero is not a
// valid nullifier.
func ParseNullifier(v string) (Nullifier, error) {
	v = strings.TrimSpace(v)
	var n Nullifier
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		b, err := hexutil.Decode(v)
		if err != nil || len(b) > 32 {
			return Nullifier{}, ErrInvalidNullifier
		}
		n.SetBytes(b)
	} else {
		if err := n.SetFromDecimal(v); err != nil {
			return Nullifier{}, ErrInvalidNullifier
		}
	}
	if n.IsZero() {
		return Nullifier{}, ErrInvalidNullifier
	}
	return n, nil
}

type Status struct {
	Nullifier string `json:"nullifier"`
	Issued    bool   `json:"issued"`
	Cheater   bool   `json:"cheater"`
	Allowed   bool   `json:"allowed"`
	Name      string `json:"name,omitempty"`
}

type Registry struct {
	mu            sync.RWMutex
	requireIssued bool
	names         map[Nullifier]string
	cheaters      map[Nullifier]struct{}
	events        events.Publisher
}

// NewRegistry builds an empty registry. With requireIssued set, only issued
// nullifiers are allowed; otherwise any unflagged nullifier is.
func NewRegistry(requireIssued bool, pub events.Publisher) *Registry {
	if pub == nil {
		pub = events.Discard
	}
	return &Registry{
		requireIssued: requireIssued,
		names:         map[Nullifier]string{},
		cheaters:      map[Nullifier]struct{}{},
		events:        pub,
	}
}

func (r *Registry) Issue(n Nullifier, name string) error {
	if n.IsZero() {
		return ErrInvalidNullifier
	}
	r.mu.Lock()
	if _, ok := r.names[n]; ok {
		r.mu.Unlock()
		return ErrAlreadyIssued
	}
	r.names[n] = strings.TrimSpace(name)
	r.mu.Unlock()
	r.events.Publish(events.NullifierIssued, 0, map[string]any{"nullifier": n.Dec()})
	return nil
}

func (r *Registry) IsAllowed(_ context.Context, n Nullifier) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allowedLocked(n), nil
}

func (r *Registry) MarkCheater(n Nullifier) error {
	if n.IsZero() {
		return ErrInvalidNullifier
	}
	r.mu.Lock()
	if r.requireIssued {
		if _, ok := r.names[n]; !ok {
			r.mu.Unlock()
			return ErrNotIssued
		}
	}
	r.cheaters[n] = struct{}{}
	r.mu.Unlock()
	r.events.Publish(events.CheaterFlagged, 0, map[string]any{"nullifier": n.Dec()})
	return nil
}

func (r *Registry) UnmarkCheater(n Nullifier) error {
	if n.IsZero() {
		return ErrInvalidNullifier
	}
	r.mu.Lock()
	_, flagged := r.cheaters[n]
	delete(r.cheaters, n)
	r.mu.Unlock()
	if flagged {
		r.events.Publish(events.CheaterUnflagged, 0, map[string]any{"nullifier": n.Dec()})
	}
	return nil
}

func (r *Registry) NameOf(n Nullifier) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[n]
	return name, ok
}

func (r *Registry) Status(n Nullifier) Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, issued := r.names[n]
	_, cheater := r.cheaters[n]
	return Status{
		Nullifier: n.Dec(),
		Issued:    issued,
		Cheater:   cheater,
		Allowed:   r.allowedLocked(n),
		Name:      name,
	}
}

func (r *Registry) allowedLocked(n Nullifier) bool {
	if n.IsZero() {
		return false
	}
	if _, banned := r.cheaters[n]; banned {
		return false
	}
	if r.requireIssued {
		_, ok := r.names[n]
		return ok
	}
	return true
}
