package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/healflow/healflow/internal/platform/auth"
	"github.com/healflow/healflow/internal/platform/validate"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 80
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID, username, role string) (*auth.IssuedToken, error)
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	*auth.IssuedToken
	User *User `json:"user"`
}

type Service struct {
	repo        Repository
	tokens      TokenIssuer
	revocations auth.RevocationStore
}

func NewService(repo Repository, tokens TokenIssuer, revocations auth.RevocationStore) *Service {
	return &Service{repo: repo, tokens: tokens, revocations: revocations}
}

// CreateUser validates and stores a new active account. A username or email
// already in use is rejected with ErrDuplicateUser before anything is written.
func (s *Service) CreateUser(ctx context.Context, username, email, password, role string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return nil, validate.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if !validate.Email(email) {
		return nil, validate.Errorf("email must be a valid email address")
	}
	if !auth.IsValidRole(role) {
		return nil, validate.Errorf("invalid role: %s", role)
	}
	if len(password) < auth.MinPasswordLength {
		return nil, validate.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}

	exists, err := s.repo.Exists(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrDuplicateUser
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks the credentials and issues an access token. Unknown users,
// wrong passwords and deactivated accounts all get ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.Active || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	tok, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &LoginResult{IssuedToken: tok, User: u}, nil
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, id auth.Identity) error {
	if id.TokenID == "" {
		return validate.Errorf("token has no id")
	}
	return s.revocations.Revoke(ctx, id.TokenID, id.ExpiresAt)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateEmail changes the account email unless another account holds it.
func (s *Service) UpdateEmail(ctx context.Context, id uuid.UUID, email string) error {
	email = strings.TrimSpace(email)
	if !validate.Email(email) {
		return validate.Errorf("email must be a valid email address")
	}
	taken, err := s.repo.EmailInUse(ctx, email, id)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return s.repo.UpdateEmail(ctx, id, email)
}

func (s *Service) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	if len(password) < auth.MinPasswordLength {
		return validate.Errorf("password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// EnsureAdmin creates the admin account when no user named username exists.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, email string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}
	if _, err := s.CreateUser(ctx, username, email, password, auth.RoleAdmin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
