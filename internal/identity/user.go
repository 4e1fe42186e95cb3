package identity

import "time"

// Stats are the aggregate game counters for a user. They are mutated only
// by the settlement engine, inside a single transaction per finished game.
type Stats struct {
	GamesPlayed int `json:"gamesPlayed"`
	GamesWon    int `json:"gamesWon"`
	GamesLost   int `json:"gamesLost"`
	GamesDraw   int `json:"gamesDraw"`
}

// User is an account record. PasswordHash is never serialized.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"createdAt"`

	PasswordHash string `json:"-"`
}
