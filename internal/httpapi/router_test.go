package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/rules"
	"github.com/neumannchess/server/internal/session"
	"github.com/neumannchess/server/pkg/gamedto"
)

type mapUserRepo struct {
	users  map[string]*identity.User
	nextID int
}

func newMapUserRepo() *mapUserRepo {
	return &mapUserRepo{users: map[string]*identity.User{}}
}

func (r *mapUserRepo) Create(_ context.Context, username, email, passwordHash string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Username == username || u.Email == email {
			return nil, identity.ErrDuplicate
		}
	}
	r.nextID++
	u := &identity.User{
		ID:           fmt.Sprintf("user-%d", r.nextID),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *mapUserRepo) GetByID(_ context.Context, id string) (*identity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, identity.ErrNotFound
}

func (r *mapUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (r *mapUserRepo) GetByUsername(_ context.Context, username string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, identity.ErrNotFound
}

func (r *mapUserRepo) Search(_ context.Context, callerID, query string, _ int) ([]*identity.User, error) {
	var out []*identity.User
	for _, u := range r.users {
		if u.ID != callerID && u.Username == query {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *mapUserRepo) List(_ context.Context, callerID string, _ int) ([]*identity.User, error) {
	var out []*identity.User
	for _, u := range r.users {
		if u.ID != callerID {
			out = append(out, u)
		}
	}
	return out, nil
}

func newTestServer(t *testing.T) (http.Handler, *mapUserRepo) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb, err := session.NewRedisClient(context.Background(), fmt.Sprintf("redis://%s/0", mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { rdb.Close() })

	repo := newMapUserRepo()
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	authService := auth.NewService(repo, jwtService, bcrypt.MinCost)

	manager := session.NewManager(rdb, session.NewStore(rdb, 0), rules.NewEngine(), repo)

	router := NewRouter(
		NewAuthHandler(authService, repo),
		NewGameHandler(manager, nil, 20),
		jwtService,
		repo,
	)
	return router, repo
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code < 400 {
		require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func registerUser(t *testing.T, h http.Handler, username, email string) gamedto.AuthResponse {
	t.Helper()
	var resp gamedto.AuthResponse
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		gamedto.RegisterRequest{Username: username, Email: email, Password: "secret1"}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, resp.Token)
	return resp
}

func TestGameFlowOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	alice := registerUser(t, h, "alice", "alice@example.com")
	bob := registerUser(t, h, "bob", "bob@example.com")

	// alice challenges bob, taking white
	var created gamedto.SessionView
	rec := doJSON(t, h, http.MethodPost, "/api/games", alice.Token,
		gamedto.CreateSessionRequest{OpponentID: bob.ID, Color: "white"}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created.WhitePlayer)
	assert.Equal(t, alice.ID, created.WhitePlayer.ID)
	assert.Equal(t, "pending", created.Status)

	// bob sees it in his pending view
	var pending gamedto.PendingResponse
	rec = doJSON(t, h, http.MethodGet, "/api/games/pending", bob.Token, nil, &pending)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pending.DirectChallenges, 1)
	assert.Equal(t, created.ID, pending.DirectChallenges[0].ID)

	// bob accepts
	var accepted gamedto.SessionView
	rec = doJSON(t, h, http.MethodPost, "/api/games/"+created.ID+"/accept", bob.Token, nil, &accepted)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "active", accepted.Status)
	assert.True(t, accepted.Accepted)

	// both players now have a current game
	var current gamedto.SessionView
	rec = doJSON(t, h, http.MethodGet, "/api/games/current", alice.Token, nil, &current)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, current.ID)

	// bob cannot move first
	rec = doJSON(t, h, http.MethodPost, "/api/games/"+created.ID+"/move", bob.Token,
		gamedto.MoveRequest{From: "e7", To: "e5"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// alice opens with e4
	var moved gamedto.MoveResponse
	rec = doJSON(t, h, http.MethodPost, "/api/games/"+created.ID+"/move", alice.Token,
		gamedto.MoveRequest{From: "e2", To: "e4"}, &moved)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, moved.Session.Moves, 1)
	assert.Equal(t, "e4", moved.Session.Moves[0].SAN)
	require.NotNil(t, moved.Verdict)
	assert.False(t, moved.Verdict.Checkmate)

	// bob resigns
	var ended gamedto.SessionView
	rec = doJSON(t, h, http.MethodPut, "/api/games/"+created.ID+"/end", bob.Token,
		gamedto.EndSessionRequest{Status: "abandoned", Result: "1-0", WinnerID: alice.ID}, &ended)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abandoned", ended.Status)
	require.NotNil(t, ended.Winner)
	assert.Equal(t, alice.ID, ended.Winner.ID)

	// ending twice conflicts
	rec = doJSON(t, h, http.MethodPut, "/api/games/"+created.ID+"/end", alice.Token,
		gamedto.EndSessionRequest{Status: "abandoned", Result: "1-0", WinnerID: alice.ID}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestOpenChallengeOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	alice := registerUser(t, h, "alice", "alice@example.com")
	bob := registerUser(t, h, "bob", "bob@example.com")

	var created gamedto.SessionView
	rec := doJSON(t, h, http.MethodPost, "/api/games", alice.Token,
		gamedto.CreateSessionRequest{Color: "black"}, &created)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, created.IsOpenChallenge)
	assert.Nil(t, created.WhitePlayer)

	// visible to bob, not to alice
	var bobPending gamedto.PendingResponse
	doJSON(t, h, http.MethodGet, "/api/games/pending", bob.Token, nil, &bobPending)
	require.Len(t, bobPending.OpenChallenges, 1)

	var alicePending gamedto.PendingResponse
	doJSON(t, h, http.MethodGet, "/api/games/pending", alice.Token, nil, &alicePending)
	assert.Empty(t, alicePending.OpenChallenges)
	require.Len(t, alicePending.MyChallenges, 1)

	// alice cancels her own challenge
	rec = doJSON(t, h, http.MethodDelete, "/api/games/"+created.ID, alice.Token, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/games/"+created.ID+"/accept", bob.Token, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthRoutesOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	alice := registerUser(t, h, "alice", "alice@example.com")
	registerUser(t, h, "bob", "bob@example.com")

	// duplicate registration conflicts
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "",
		gamedto.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret1"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var login gamedto.AuthResponse
	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "",
		gamedto.LoginRequest{Email: "alice@example.com", Password: "secret1"}, &login)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice.ID, login.ID)

	rec = doJSON(t, h, http.MethodPost, "/api/auth/login", "",
		gamedto.LoginRequest{Email: "alice@example.com", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var me gamedto.UserView
	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", alice.Token, nil, &me)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", me.Username)

	var found []gamedto.UserView
	rec = doJSON(t, h, http.MethodGet, "/api/auth/search?query=bob", alice.Token, nil, &found)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, found, 1)
	assert.Equal(t, "bob", found[0].Username)

	// protected routes refuse anonymous requests
	rec = doJSON(t, h, http.MethodGet, "/api/auth/me", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
