package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/pkg/gamedto"
)

// AuthHandler serves registration, login and user lookup.
type AuthHandler struct {
	service *auth.Service
	users   identity.Repository
}

func NewAuthHandler(service *auth.Service, users identity.Repository) *AuthHandler {
	return &AuthHandler{service: service, users: users}
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req gamedto.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gamedto.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req gamedto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamedto.AuthResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Stats:    statsView(user.Stats),
		Token:    token,
	})
}

func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

func (h *AuthHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeJSON(w, http.StatusOK, []gamedto.UserView{})
		return
	}
	found, err := h.users.Search(r.Context(), user.ID, query, 10)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userViews(found))
}

func (h *AuthHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	list, err := h.users.List(r.Context(), user.ID, limit)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userViews(list))
}

func userViews(list []*identity.User) []gamedto.UserView {
	out := make([]gamedto.UserView, 0, len(list))
	for _, u := range list {
		out = append(out, userView(u))
	}
	return out
}
