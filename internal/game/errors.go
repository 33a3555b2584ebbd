package game

import "split-or-steal/internal/apperr"

var (
	ErrInvalidStake     = apperr.New(apperr.ErrValidation, "invalid_stake")
	ErrStakeMismatch    = apperr.New(apperr.ErrValidation, "stake_mismatch")
	ErrInvalidDeadlines = apperr.New(apperr.ErrValidation, "invalid_deadlines")
	ErrInvalidPlayer    = apperr.New(apperr.ErrValidation, "invalid_player")
	ErrInvalidIdentity  = apperr.New(apperr.ErrValidation, "invalid_identity")
	ErrInvalidPolicy    = apperr.New(apperr.ErrValidation, "invalid_policy")

	ErrIdentityBanned = apperr.New(apperr.ErrAuthorization, "identity_banned")
	ErrSameIdentity   = apperr.New(apperr.ErrAuthorization, "same_identity")
	ErrNotParticipant = apperr.New(apperr.ErrAuthorization, "not_participant")

	ErrRoomNotFound     = apperr.New(apperr.ErrState, "room_not_found")
	ErrRoomNotOpen      = apperr.New(apperr.ErrState, "room_not_open")
	ErrInvalidPhase     = apperr.New(apperr.ErrState, "invalid_phase")
	ErrDeadlinePassed   = apperr.New(apperr.ErrState, "deadline_passed")
	ErrAlreadyCommitted = apperr.New(apperr.ErrState, "already_committed")
	ErrAlreadyRevealed  = apperr.New(apperr.ErrState, "already_revealed")
	ErrAlreadySettled   = apperr.New(apperr.ErrState, "already_settled")
	ErrNotEligible      = apperr.New(apperr.ErrState, "settle_not_eligible")

	ErrInvalidReveal = apperr.New(apperr.ErrCryptoMismatch, "invalid_reveal")
)
