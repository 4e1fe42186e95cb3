package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/identity"
)

type singleUserRepo struct {
	user *identity.User
}

func (r *singleUserRepo) Create(context.Context, string, string, string) (*identity.User, error) {
	return nil, identity.ErrDuplicate
}

func (r *singleUserRepo) GetByID(_ context.Context, id string) (*identity.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, identity.ErrNotFound
}

func (r *singleUserRepo) GetByEmail(context.Context, string) (*identity.User, error) {
	return nil, identity.ErrNotFound
}

func (r *singleUserRepo) GetByUsername(context.Context, string) (*identity.User, error) {
	return nil, identity.ErrNotFound
}

func (r *singleUserRepo) Search(context.Context, string, string, int) ([]*identity.User, error) {
	return nil, nil
}

func (r *singleUserRepo) List(context.Context, string, int) ([]*identity.User, error) {
	return nil, nil
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	repo := &singleUserRepo{user: &identity.User{ID: "u1", Username: "alice"}}

	var seen *identity.User
	handler := AuthMiddleware(jwtService, repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := CurrentUser(r.Context())
		require.True(t, ok)
		seen = u
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := jwtService.Sign("u1")
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "u1", seen.ID)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		ghost, err := jwtService.Sign("ghost")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+ghost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
