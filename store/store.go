// Package store persists user accounts.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/raushankrgupta/fitly/models"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrDuplicate        = errors.New("user already exists")
	ErrUnhashedPassword = errors.New("password change must be hashed before it is persisted")
)

// UserStore is the persistence gateway for accounts. Uniqueness of email and
// of the Google subject id is enforced here and reported as ErrDuplicate.
type UserStore interface {
	// FindByEmail returns the full record, password hash included.
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// FindByID returns the record without the password hash or reset credential.
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update applies a change-set and returns the record as FindByID would.
	Update(ctx context.Context, id string, changes *Changes) (*models.User, error)
	// ConsumeResetToken applies changes to the one user whose reset token hash
	// matches and has not expired at now, clearing the reset credential in the
	// same write. It returns ErrNotFound when no such user exists.
	ConsumeResetToken(ctx context.Context, tokenHash string, now time.Time, changes *Changes) (*models.User, error)
	List(ctx context.Context, page, limit int) ([]models.User, int64, error)
}
