package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// LoginRecorder is called after each successful verification, for example to
// upsert the user row.
type LoginRecorder func(ctx context.Context, id *Identity) error

// Middleware rejects requests without a valid bearer token and stores the
// verified identity in the request context. A nil verifier yields 500.
func Middleware(v Verifier, record LoginRecorder, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				writeDetail(w, http.StatusInternalServerError, "Authentication is not configured")
				return
			}

			token, err := bearerToken(r)
			if err != nil {
				unauthorized(w, "Not authenticated")
				return
			}

			id, err := v.Verify(r.Context(), token)
			if err != nil {
				logger.DebugContext(r.Context(), "token verification failed", "error", err)
				if errors.Is(err, ErrInvalidToken) {
					unauthorized(w, "Invalid authentication token")
				} else {
					unauthorized(w, "Authentication failed: "+err.Error())
				}
				return
			}

			if record != nil {
				if err := record(r.Context(), id); err != nil {
					logger.ErrorContext(r.Context(), "recording login", "uid", id.UID, "error", err)
					writeDetail(w, http.StatusInternalServerError, "Failed to record user")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeDetail(w, http.StatusUnauthorized, detail)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
