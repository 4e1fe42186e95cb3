package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neumannchess/server/internal/auth"
	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/session"
)

func TestErrStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{session.ErrNotFound, http.StatusNotFound},
		{session.ErrOpponentNotFound, http.StatusNotFound},
		{identity.ErrNotFound, http.StatusNotFound},

		{session.ErrInvalidColor, http.StatusBadRequest},
		{session.ErrInvalidStatus, http.StatusBadRequest},
		{session.ErrInvalidResult, http.StatusBadRequest},
		{session.ErrIllegalMove, http.StatusBadRequest},
		{auth.ErrInvalidUsername, http.StatusBadRequest},
		{auth.ErrInvalidEmail, http.StatusBadRequest},
		{auth.ErrInvalidPassword, http.StatusBadRequest},

		{auth.ErrInvalidCredentials, http.StatusUnauthorized},

		{session.ErrForbidden, http.StatusForbidden},
		{session.ErrNotAPlayer, http.StatusForbidden},
		{session.ErrNotAuthorized, http.StatusForbidden},
		{session.ErrNotYourChallenge, http.StatusForbidden},
		{session.ErrSelfChallenge, http.StatusForbidden},
		{session.ErrSelfAccept, http.StatusForbidden},

		{session.ErrAlreadyInSession, http.StatusConflict},
		{session.ErrOpponentBusy, http.StatusConflict},
		{session.ErrAcceptorBusy, http.StatusConflict},
		{session.ErrAlreadyAccepted, http.StatusConflict},
		{session.ErrNotAvailable, http.StatusConflict},
		{session.ErrBothSlotsFilled, http.StatusConflict},
		{session.ErrAlreadyStarted, http.StatusConflict},
		{session.ErrGameFinished, http.StatusConflict},
		{session.ErrNotYourTurn, http.StatusConflict},
		{session.ErrConflict, http.StatusConflict},
		{auth.ErrDuplicateUser, http.StatusConflict},

		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, errStatus(tc.err), "error %v", tc.err)
	}
}

func TestErrStatusWrapped(t *testing.T) {
	wrapped := fmt.Errorf("accept: %w", session.ErrAlreadyAccepted)
	assert.Equal(t, http.StatusConflict, errStatus(wrapped))
}
