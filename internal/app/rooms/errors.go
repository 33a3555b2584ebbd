package rooms

import "split-or-steal/internal/apperr"

var (
	ErrInvalidRequest  = apperr.New(apperr.ErrValidation, "invalid_request")
	ErrInvalidRoomID   = apperr.New(apperr.ErrValidation, "invalid_room_id")
	ErrInvalidDeadline = apperr.New(apperr.ErrValidation, "invalid_deadline")
)
