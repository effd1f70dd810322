package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/kbukum/miroapi/internal/database"
)

var (
	// ErrDuplicateUser is returned when the username or email is taken.
	ErrDuplicateUser = errors.New("users: duplicate username or email")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("users: not found")
)

// Store is the credential store used by the auth service.
type Store interface {
	Create(ctx context.Context, u *User) error
	FindByUsername(ctx context.Context, username string) (*User, error)
}

// Repository is the gorm-backed Store.
type Repository struct {
	db *database.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a repository over db.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts u. The id is assigned before insert and visible on u
// afterwards.
func (r *Repository) Create(ctx context.Context, u *User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	switch {
	case err == nil:
		return nil
	case database.IsDuplicateError(err):
		return fmt.Errorf("%w: %s", ErrDuplicateUser, database.DuplicateConstraint(err))
	default:
		return fmt.Errorf("create user: %w", err)
	}
}

// FindByUsername returns the user with the exact username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&u).Error
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return &u, nil
}
