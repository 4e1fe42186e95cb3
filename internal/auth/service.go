package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/neumannchess/server/internal/identity"
	"github.com/neumannchess/server/internal/obslog"
	"go.uber.org/zap"
)

var (
	ErrInvalidUsername    = errors.New("username must be between 3 and 30 characters")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("password must be at least 6 characters")
	ErrDuplicateUser      = errors.New("username or email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Service registers users and exchanges credentials for tokens.
type Service struct {
	users      identity.Repository
	jwt        *JWTService
	bcryptCost int
}

func NewService(users identity.Repository, jwt *JWTService, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, jwt: jwt, bcryptCost: bcryptCost}
}

// Register validates credentials, hashes the password and creates the user.
// Returns the created user and a signed token.
func (s *Service) Register(ctx context.Context, username, email, password string) (*identity.User, string, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(username) < 3 || len(username) > 30 {
		return nil, "", ErrInvalidUsername
	}
	if !emailRe.MatchString(email) {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < 6 {
		return nil, "", ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}
	user, err := s.users.Create(ctx, username, email, string(hash))
	if err != nil {
		if errors.Is(err, identity.ErrDuplicate) {
			return nil, "", ErrDuplicateUser
		}
		return nil, "", err
	}
	token, err := s.jwt.Sign(user.ID)
	if err != nil {
		return nil, "", err
	}
	obslog.L().Info("user_register", zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, token, nil
}

// Login verifies email+password and returns the user with a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*identity.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.jwt.Sign(user.ID)
	if err != nil {
		return nil, "", err
	}
	obslog.L().Info("user_login", zap.String("user_id", user.ID))
	return user, token, nil
}
