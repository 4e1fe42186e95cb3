package gamedto

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Stats    *StatsView `json:"stats,omitempty"`
	Token    string     `json:"token"`
}

// CreateSessionRequest starts a challenge. Omitting opponentId creates an
// open challenge anyone except the creator can accept.
type CreateSessionRequest struct {
	OpponentID string `json:"opponentId,omitempty"`
	Color      string `json:"myColor"`
}

// MoveRequest submits one move in coordinate form.
type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// EndSessionRequest moves a session to a terminal state.
type EndSessionRequest struct {
	Status   string `json:"status"`
	Result   string `json:"result"`
	WinnerID string `json:"winnerId,omitempty"`
}

// ConfirmationResponse acknowledges an operation with no payload.
type ConfirmationResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Message string `json:"message"`
}
