package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/neumannchess/server/internal/session"
	"github.com/neumannchess/server/pkg/gamedto"
)

// GameHandler serves the session lifecycle and matchmaking endpoints.
type GameHandler struct {
	manager  *session.Manager
	archive  *session.Repository
	pageSize int
}

func NewGameHandler(manager *session.Manager, archive *session.Repository, pageSize int) *GameHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &GameHandler{manager: manager, archive: archive, pageSize: pageSize}
}

func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req gamedto.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.manager.CreateChallenge(r.Context(), user.ID, user.Username, req.OpponentID, session.Color(req.Color))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionView(s))
}

func (h *GameHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s, err := h.manager.AcceptChallenge(r.Context(), user.ID, user.Username, chi.URLParam(r, "gameId"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

func (h *GameHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s, err := h.manager.CurrentActiveSession(r.Context(), user.ID)
	if err != nil {
		fail(w, err)
		return
	}
	if s == nil {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

func (h *GameHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	views, err := h.manager.PendingOverview(r.Context(), user.ID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamedto.PendingResponse{
		DirectChallenges: sessionViews(views.DirectChallenges),
		OpenChallenges:   sessionViews(views.OpenChallenges),
		MyChallenges:     sessionViews(views.MyChallenges),
		ActiveGames:      sessionViews(views.ActiveGames),
	})
}

func (h *GameHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	userID := chi.URLParam(r, "userId")

	limit := h.pageSize
	page := 1
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}
	status := session.Status(r.URL.Query().Get("status"))

	result, err := h.archive.History(r.Context(), userID, status, limit, page)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamedto.HistoryResponse{
		Games:       sessionViews(result.Games),
		CurrentPage: result.Page,
		TotalPages:  result.TotalPages,
		TotalGames:  result.Total,
	})
}

func (h *GameHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	s, err := h.manager.GetSession(r.Context(), user.ID, chi.URLParam(r, "gameId"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

func (h *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req gamedto.MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, verdict, err := h.manager.SubmitMove(r.Context(), user.ID, chi.URLParam(r, "gameId"), req.From, req.To, req.Promotion)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamedto.MoveResponse{
		Session: sessionView(s),
		Verdict: verdictView(verdict),
	})
}

func (h *GameHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	var req gamedto.EndSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.manager.EndSession(r.Context(), user.ID, chi.URLParam(r, "gameId"),
		session.Status(req.Status), session.Result(req.Result), req.WinnerID)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(s))
}

func (h *GameHandler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	if err := h.manager.DeclineOrCancel(r.Context(), user.ID, chi.URLParam(r, "gameId")); err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gamedto.ConfirmationResponse{Message: "session declined"})
}
