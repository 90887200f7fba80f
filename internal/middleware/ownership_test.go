package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/authweb/internal/model"
)

type mockOwnerResolver struct {
	ownerOfFn func(ctx context.Context, resourceID string) (string, error)
}

func (m *mockOwnerResolver) OwnerOf(ctx context.Context, resourceID string) (string, error) {
	return m.ownerOfFn(ctx, resourceID)
}

// newOwnershipRouter は{id}パラメータ付きルートに所有権ガードを配線する。
func newOwnershipRouter(resolver OwnerResolver, next http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.With(NewOwnershipMiddleware(resolver)).Get("/users/{id}/JSON", next)
	return r
}

func TestOwnershipMiddleware_Owner_Passes(t *testing.T) {
	resolver := &mockOwnerResolver{
		ownerOfFn: func(ctx context.Context, resourceID string) (string, error) {
			return "u1", nil
		},
	}
	reached := false
	router := newOwnershipRouter(resolver, func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u1/JSON", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if !reached {
		t.Error("handler should be reached for owner")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestOwnershipMiddleware_NonOwner_Redirects(t *testing.T) {
	resolver := &mockOwnerResolver{
		ownerOfFn: func(ctx context.Context, resourceID string) (string, error) {
			return "u1", nil
		},
	}
	router := newOwnershipRouter(resolver, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached for non-owner")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u1/JSON", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "u2"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if location := rec.Header().Get("Location"); location != "/users/u1" {
		t.Errorf("Location = %q, want %q", location, "/users/u1")
	}
}

func TestOwnershipMiddleware_ResourceNotFound(t *testing.T) {
	resolver := &mockOwnerResolver{
		ownerOfFn: func(ctx context.Context, resourceID string) (string, error) {
			return "", model.NewUserNotFoundError(resourceID)
		},
	}
	router := newOwnershipRouter(resolver, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/missing/JSON", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestOwnershipMiddleware_ResolverError(t *testing.T) {
	resolver := &mockOwnerResolver{
		ownerOfFn: func(ctx context.Context, resourceID string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	router := newOwnershipRouter(resolver, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u1/JSON", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "u1"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestOwnershipMiddleware_MissingAuth(t *testing.T) {
	resolver := &mockOwnerResolver{
		ownerOfFn: func(ctx context.Context, resourceID string) (string, error) {
			return "u1", nil
		},
	}
	router := newOwnershipRouter(resolver, func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/u1/JSON", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
