package session

// Typed operation failures. The transport layer maps these onto HTTP status
// codes; none of them leave partial session state behind.
var (
	// validation
	ErrInvalidColor  = errf("color must be white or black")
	ErrInvalidStatus = errf("status must be a terminal state")
	ErrInvalidResult = errf("invalid result token")
	ErrIllegalMove   = errf("move is not legal in the current position")

	// authorization
	ErrForbidden        = errf("you do not have access to this session")
	ErrNotAPlayer       = errf("you are not a player in this session")
	ErrNotAuthorized    = errf("only a player or the creator may do this")
	ErrNotYourChallenge = errf("this challenge is not addressed to you")
	ErrSelfChallenge    = errf("you cannot challenge yourself")
	ErrSelfAccept       = errf("you cannot accept your own challenge")

	// conflicts; the caller should re-fetch state and retry on its next poll
	ErrAlreadyInSession = errf("you already have a pending or active session")
	ErrOpponentBusy     = errf("opponent already has a pending or active session")
	ErrAcceptorBusy     = errf("you already have a pending or active session")
	ErrAlreadyAccepted  = errf("session was already accepted")
	ErrNotAvailable     = errf("session is no longer available")
	ErrBothSlotsFilled  = errf("challenge has no open color slot")
	ErrAlreadyStarted   = errf("session already has moves and cannot be declined")
	ErrGameFinished     = errf("session is not active")
	ErrNotYourTurn      = errf("it is not your turn")
	ErrConflict         = errf("concurrent update detected")

	// not found
	ErrNotFound         = errf("session not found")
	ErrOpponentNotFound = errf("opponent not found")
)

type staticErr string

func (e staticErr) Error() string { return string(e) }

func errf(s string) error { return staticErr(s) }
