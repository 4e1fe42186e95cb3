package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/session"
	"github.com/neumannchess/server/pkg/gamedto"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, gamedto.ErrorResponse{Message: message})
}

// fail maps a typed error onto its HTTP status and writes the body.
func fail(w http.ResponseWriter, err error) {
	writeError(w, errStatus(err), err.Error())
}

// errStatus maps the error taxonomy onto status codes: validation 400,
// authentication 401, authorization 403, not-found 404, conflict 409.
func errStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrOpponentNotFound),
		errors.Is(err, identity.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, session.ErrInvalidColor),
		errors.Is(err, session.ErrInvalidStatus),
		errors.Is(err, session.ErrInvalidResult),
		errors.Is(err, session.ErrIllegalMove),
		errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidPassword):
		return http.StatusBadRequest

	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, session.ErrForbidden),
		errors.Is(err, session.ErrNotAPlayer),
		errors.Is(err, session.ErrNotAuthorized),
		errors.Is(err, session.ErrNotYourChallenge),
		errors.Is(err, session.ErrSelfChallenge),
		errors.Is(err, session.ErrSelfAccept):
		return http.StatusForbidden

	case errors.Is(err, session.ErrAlreadyInSession),
		errors.Is(err, session.ErrOpponentBusy),
		errors.Is(err, session.ErrAcceptorBusy),
		errors.Is(err, session.ErrAlreadyAccepted),
		errors.Is(err, session.ErrNotAvailable),
		errors.Is(err, session.ErrBothSlotsFilled),
		errors.Is(err, session.ErrAlreadyStarted),
		errors.Is(err, session.ErrGameFinished),
		errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrConflict),
		errors.Is(err, auth.ErrDuplicateUser):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
