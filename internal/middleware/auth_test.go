package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/authweb/internal/session"
)

// fixedSessionFactory は全リクエストで同じManagerを返すファクトリ。
func fixedSessionFactory(sess *session.Manager) SessionFactory {
	return func(w http.ResponseWriter, r *http.Request) *session.Manager {
		return sess
	}
}

func authenticatedSession(t *testing.T, userID, userName string) *session.Manager {
	t.Helper()
	sess := session.NewManager(session.NewMemoryStore())
	if _, err := sess.GetOrCreateSessionID(); err != nil {
		t.Fatalf("GetOrCreateSessionID() error = %v", err)
	}
	if err := sess.Bind(userID, userName, nil); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	return sess
}

func TestAuthMiddleware_Unauthenticated_RedirectsToLogin(t *testing.T) {
	sess := session.NewManager(session.NewMemoryStore())
	mw := NewAuthMiddleware(fixedSessionFactory(sess))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/u1/JSON", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	location := rec.Header().Get("Location")
	if location != "/login?next_url=%2Fusers%2Fu1%2FJSON" {
		t.Errorf("Location = %q", location)
	}
}

func TestAuthMiddleware_Authenticated_InjectsUserID(t *testing.T) {
	sess := authenticatedSession(t, "u1", "Alice")
	mw := NewAuthMiddleware(fixedSessionFactory(sess))

	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users/u1/JSON", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotUserID != "u1" {
		t.Errorf("user ID = %q, want %q", gotUserID, "u1")
	}
}

func TestUserIDFromContext_Missing(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID")
	}
}

func TestContextWithUserID_Roundtrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "u42")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("UserIDFromContext() error = %v", err)
	}
	if userID != "u42" {
		t.Errorf("user ID = %q, want %q", userID, "u42")
	}
}
