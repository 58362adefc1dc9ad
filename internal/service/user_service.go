package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tazhate/tisscal/internal/domain"
	"github.com/tazhate/tisscal/internal/storage"
)

const DefaultSessionTTL = 3 * time.Hour

// UserService handles account registration and cookie sessions.
type UserService struct {
	storage    *storage.Storage
	sessionTTL time.Duration
}

func NewUserService(s *storage.Storage, sessionTTL time.Duration) *UserService {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &UserService{storage: s, sessionTTL: sessionTTL}
}

// Register creates a new account. Usernames are unique case-insensitively.
func (s *UserService) Register(username, password string) (*domain.User, error) {
	if len(username) < 3 {
		return nil, errors.New("username must be at least 3 characters")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.storage.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a session token. Wrong username
// and wrong password are indistinguishable to the caller.
func (s *UserService) Login(username, password string) (string, error) {
	user, err := s.storage.GetUserByUsername(username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	sess := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.storage.CreateSession(sess); err != nil {
		return "", err
	}
	return sess.Token, nil
}

// Verify resolves a session token to its user. Expired or unknown sessions
// report domain.ErrUnauthorized.
func (s *UserService) Verify(token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	sess, err := s.storage.GetSession(token)
	if err != nil {
		return nil, err
	}
	if sess == nil || sess.Expired(time.Now()) {
		return nil, domain.ErrUnauthorized
	}
	user, err := s.storage.GetUserByID(sess.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}

func (s *UserService) Logout(token string) error {
	return s.storage.DeleteSession(token)
}

// PurgeExpiredSessions removes sessions past their expiry; called
// periodically by the scheduler.
func (s *UserService) PurgeExpiredSessions() (int64, error) {
	return s.storage.DeleteExpiredSessions(time.Now())
}
