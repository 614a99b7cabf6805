package db

import (
	"context"
	"errors"

	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/security"
)

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// AdminStore is the slice of the users repo needed to seed an admin.
type AdminStore interface {
	GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash string, role user.Role) (int64, error)
}

// EnsureAdminUser creates the seed admin unless a user with that username
// already exists. It reports whether a row was created.
func EnsureAdminUser(ctx context.Context, users AdminStore, seed AdminSeed) (bool, error) {
	if seed.Username == "" || seed.Password == "" {
		return false, nil
	}

	_, err := users.GetByUsernameOrEmail(ctx, seed.Username)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(seed.Password)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, seed.Username, seed.Email, hash, user.RoleAdmin)

	if errors.Is(err, user.ErrAlreadyExists) {
		// raced with another instance, or the email belongs to someone else
		return false, nil
	}

	return err == nil, err
}
