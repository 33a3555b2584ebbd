// Package admin exposes the identity registry operations that the trust
// component performs: issuing nullifiers and flagging cheaters.
package admin

import (
	"context"

	"split-or-steal/internal/identity"

	"github.com/rs/zerolog/log"
)

type IssueRequest struct {
	Nullifier string `json:"nullifier"`
	Name      string `json:"name"`
}

type Service struct {
	registry *identity.Registry
}

func NewService(reg *identity.Registry) *Service {
	return &Service{registry: reg}
}

func (s *Service) Issue(_ context.Context, req IssueRequest) (identity.Status, error) {
	n, err := identity.ParseNullifier(req.Nullifier)
	if err != nil {
		return identity.Status{}, err
	}
	if err := s.registry.Issue(n, req.Name); err != nil {
		return identity.Status{}, err
	}
	log.Info().Str("nullifier", n.Dec()).Msg("nullifier issued")
	return s.registry.Status(n), nil
}

func (s *Service) Ban(_ context.Context, nullifier string) (identity.Status, error) {
	n, err := identity.ParseNullifier(nullifier)
	if err != nil {
		return identity.Status{}, err
	}
	if err := s.registry.MarkCheater(n); err != nil {
		return identity.Status{}, err
	}
	log.Warn().Str("nullifier", n.Dec()).Msg("cheater flagged")
	return s.registry.Status(n), nil
}

func (s *Service) Unban(_ context.Context, nullifier string) (identity.Status, error) {
	n, err := identity.ParseNullifier(nullifier)
	if err != nil {
		return identity.Status{}, err
	}
	if err := s.registry.UnmarkCheater(n); err != nil {
		return identity.Status{}, err
	}
	log.Info().Str("nullifier", n.Dec()).Msg("cheater unflagged")
	return s.registry.Status(n), nil
}

func (s *Service) Status(_ context.Context, nullifier string) (identity.Status, error) {
	n, err := identity.ParseNullifier(nullifier)
	if err != nil {
		return identity.Status{}, err
	}
	return s.registry.Status(n), nil
}
