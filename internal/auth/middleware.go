package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	respond "github.com/mycelian/mycelian-journal/internal/api/respond"
)

type principalKey struct{}

// FromContext returns the caller set by Middleware, if any.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok
}

// Middleware rejects requests without a valid key for the route's {userId}.
// Routes without a userId only need a valid key.
func Middleware(a Authorizer, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := ExtractAPIKey(r)
			if err != nil {
				respond.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			userID := mux.Vars(r)["userId"]
			p, err := a.Authorize(r.Context(), key, userID)
			switch {
			case errors.Is(err, ErrForbidden):
				log.Warn().Str("user_id", userID).Str("path", r.URL.Path).Msg("api key used outside its user")
				respond.WriteError(w, http.StatusForbidden, err.Error())
				return
			case err != nil:
				respond.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
		})
	}
}
