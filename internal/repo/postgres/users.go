package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/geocoder89/chairgo/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

const userColumns = `id, username, email, password_hash, role, created_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}
	u.Role = user.Role(role)
	if !u.Role.Valid() {
		return user.User{}, fmt.Errorf("user %d: %w %q", u.ID, user.ErrInvalidRole, role)
	}
	return u, nil
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `WHERE id = $1`, id)
}

// GetByUsernameOrEmail matches login against either column. An exact username
// match wins over an email match.
func (r *UsersRepo) GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_login",
		`WHERE username = $1 OR lower(email) = lower($1)
		ORDER BY (username = $1) DESC, id
		LIMIT 1`, login)
}

// ExistsByUsernameOrEmail checks both values against both columns, since
// either one can be typed into the login form.
func (r *UsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool

	err := r.prom.ObserveDB("users.exists", func() error {
		return r.pool.QueryRow(ctx, `SELECT EXISTS(
			SELECT 1 FROM users
			WHERE username IN ($1, $2)
				OR lower(email) IN (lower($1), lower($2))
		)`, username, email).Scan(&exists)
	})

	return exists, err
}

func (r *UsersRepo) Create(ctx context.Context, username, email, passwordHash string, role user.Role) (int64, error) {
	var id int64

	err := r.prom.ObserveDB("users.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			username, email, passwordHash, string(role),
		).Scan(&id)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return 0, user.ErrAlreadyExists
		}
		return 0, err
	}
	return id, nil
}

func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, error) {
	out := make([]user.User, 0, f.Limit)

	err := r.prom.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+userColumns+` FROM users
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`, f.Limit, f.Offset)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			out = append(out, u)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.prom.ObserveDB("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	})
	return n, err
}

func (r *UsersRepo) UpdateRole(ctx context.Context, id int64, role user.Role) (store.WriteResult, error) {
	return r.exec(ctx, "users.update_role", `UPDATE users SET role = $2 WHERE id = $1`, id, string(role))
}

func (r *UsersRepo) Delete(ctx context.Context, id int64) (store.WriteResult, error) {
	return r.exec(ctx, "users.delete", `DELETE FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) exec(ctx context.Context, op, sql string, args ...any) (store.WriteResult, error) {
	var res store.WriteResult

	err := r.prom.ObserveDB(op, func() error {
		tag, err := r.pool.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		res = store.Changed(tag.RowsAffected())
		return nil
	})

	return res, err
}
