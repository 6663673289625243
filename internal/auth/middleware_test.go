package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/justestif/go-sleep-meditation/internal/logging"
)

func TestMiddleware(t *testing.T) {
	const secret = "dev-secret"
	valid, err := IssueHMACToken(secret, "user-123", "sleeper@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueHMACToken() error = %v", err)
	}

	tests := []struct {
		name       string
		header     string
		verifier   Verifier
		wantStatus int
		wantDetail string
	}{
		{"valid token", "Bearer " + valid, NewHMACVerifier(secret), http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, NewHMACVerifier(secret), http.StatusOK, ""},
		{"missing header", "", NewHMACVerifier(secret), http.StatusUnauthorized, "Not authenticated"},
		{"basic scheme", "Basic dXNlcjpwYXNz", NewHMACVerifier(secret), http.StatusUnauthorized, "Not authenticated"},
		{"bad token", "Bearer nope", NewHMACVerifier(secret), http.StatusUnauthorized, "Invalid authentication token"},
		{"not configured", "Bearer " + valid, nil, http.StatusInternalServerError, "Authentication is not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var recorded *Identity
			record := func(_ context.Context, id *Identity) error {
				recorded = id
				return nil
			}

			var seen *Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := Middleware(tt.verifier, record, logging.Discard())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/meditations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if seen == nil || seen.UID != "user-123" {
					t.Errorf("identity in context = %+v", seen)
				}
				if recorded == nil || recorded.Email != "sleeper@example.com" {
					t.Errorf("recorded identity = %+v", recorded)
				}
				return
			}
			if !strings.Contains(rec.Body.String(), tt.wantDetail) {
				t.Errorf("body = %q, want detail %q", rec.Body.String(), tt.wantDetail)
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Errorf("WWW-Authenticate = %q, want Bearer", rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestMiddleware_RecorderError(t *testing.T) {
	const secret = "dev-secret"
	token, err := IssueHMACToken(secret, "user-123", "", time.Hour)
	if err != nil {
		t.Fatalf("IssueHMACToken() error = %v", err)
	}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	record := func(context.Context, *Identity) error { return errors.New("db down") }

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	Middleware(NewHMACVerifier(secret), record, logging.Discard())(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if called {
		t.Error("next handler called after recorder failure")
	}
}
