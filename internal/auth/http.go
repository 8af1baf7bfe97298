package auth

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"notebookService/internal/apperr"
)

// Middleware authenticates every request with the bearer token of its
// Authorization header and stores the Principal in the request context.
func Middleware(v *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, err := BearerToken(r.Header.Get("Authorization"))
			var p *Principal
			if err == nil {
				p, err = v.Verify(tok)
			}
			if err != nil {
				hlog.FromRequest(r).Debug().Err(err).Msg("rejected credential")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": apperr.Message(err)})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}
