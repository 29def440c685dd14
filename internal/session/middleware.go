package session

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/myrjola/coach21k/internal/contexthelpers"
	"github.com/myrjola/coach21k/internal/logging"
)

// Authenticate puts the signed-in user into the request context and adds the session to the logging context.
func (m *Manager) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.User(r.Context())

		// User has not yet authenticated.
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		r = contexthelpers.AuthenticateContext(r, user.UserID, user.Username)

		// Hash token with sha256 to avoid leaking it in logs.
		token := m.sessions.Token(r.Context())
		tokenHash := sha256.Sum256([]byte(token))
		ctx := logging.WithAttrs(r.Context(),
			slog.String("session_hash", hex.EncodeToString(tokenHash[:])),
			slog.String("user_id", user.UserID),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
