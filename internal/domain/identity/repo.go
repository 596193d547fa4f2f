package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// Exists reports whether any account already uses username or email.
	Exists(ctx context.Context, username, email string) (bool, error)
	// EmailInUse reports whether an account other than except uses email.
	EmailInUse(ctx context.Context, email string, except uuid.UUID) (bool, error)
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
