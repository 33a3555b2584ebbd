package httptransport

import (
	"errors"
	"net/http"

	"split-or-steal/internal/apperr"
	"split-or-steal/internal/game"
	"split-or-steal/internal/ledger"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrState), errors.Is(err, apperr.ErrLedger):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrCryptoMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteServiceError renders err with its class status and code. Unclassified
// errors are logged and reported as internal_error.
func WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := apperr.Code(err)
	if status == http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		code = "internal_error"
	}
	WriteHTTPError(w, status, code)
}
