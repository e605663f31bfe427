package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	respond "github.com/mycelian/mycelian-journal/internal/api/respond"
	"github.com/mycelian/mycelian-journal/internal/model"
)

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and answered with fallback, which should tell the user what to do.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve model.ValidationError
	switch {
	case errors.As(err, &ve):
		respond.WriteBadRequest(w, ve.Error())
	case model.IsValidationError(err):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, "entry not found")
	case errors.Is(err, model.ErrConflict):
		respond.WriteConflict(w, err.Error())
	case errors.Is(err, model.ErrBackendUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("backend unavailable")
		respond.WriteUnavailable(w, fallback)
	default:
		log.Error().Stack().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respond.WriteInternalError(w, fallback)
	}
}
