package middleware_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/rapid/pkg/middleware"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	h := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "handler" {
		t.Errorf("order = %v, want [first second handler]", order)
	}
}

func TestCORS(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: true, Origins: []string{"https://review.example.com"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed origin", "GET", "https://review.example.com", "https://review.example.com", http.StatusOK},
		{"other origin", "GET", "https://evil.example.com", "", http.StatusOK},
		{"preflight", "OPTIONS", "https://review.example.com", "https://review.example.com", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/results", nil)
			req.Header.Set("Origin", tt.origin)
			middleware.CORS(cfg)(ok()).ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORSDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://review.example.com")
	middleware.CORS(&middleware.CORSConfig{Origins: []string{"https://review.example.com"}})(ok()).ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS headers should not be set when disabled")
	}
}

func TestCORSConfigEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg := &middleware.CORSConfig{}
	err := cfg.Finalize(&middleware.CORSEnv{Enabled: "TEST_CORS_ENABLED", Origins: "TEST_CORS_ORIGINS"})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if !cfg.Enabled || len(cfg.Origins) != 2 {
		t.Errorf("cfg = %+v, want enabled with two origins", cfg)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", cfg.MaxAge)
	}
}

type fakeVerifier struct {
	subject string
	err     error
	raw     string
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (string, error) {
	f.raw = raw
	return f.subject, f.err
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		method      string
		verifier    *fakeVerifier
		wantStatus  int
		wantSubject string
	}{
		{"valid token", "Bearer abc", "GET", &fakeVerifier{subject: "reviewer-7"}, http.StatusOK, "reviewer-7"},
		{"missing header", "", "GET", &fakeVerifier{subject: "x"}, http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", "GET", &fakeVerifier{subject: "x"}, http.StatusUnauthorized, ""},
		{"rejected token", "Bearer bad", "GET", &fakeVerifier{err: errors.New("expired")}, http.StatusUnauthorized, ""},
		{"preflight passes", "", "OPTIONS", &fakeVerifier{}, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subject string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				subject, _ = middleware.Subject(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/results", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			middleware.Auth(tt.verifier, discard())(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
		})
	}
}

func TestAuthConfigFinalize(t *testing.T) {
	tests := []struct {
		name    string
		cfg     middleware.AuthConfig
		wantErr bool
	}{
		{"disabled", middleware.AuthConfig{}, false},
		{"enabled complete", middleware.AuthConfig{Enabled: true, Issuer: "https://idp.example.com", ClientID: "rapid"}, false},
		{"enabled without issuer", middleware.AuthConfig{Enabled: true, ClientID: "rapid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	h := middleware.Logger(discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
