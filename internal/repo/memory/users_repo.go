package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/store"
)

type UsersRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		nextID: 1,
		items:  make(map[int64]user.User),
	}
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByUsernameOrEmail(_ context.Context, login string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var byEmail *user.User
	for _, u := range r.sorted() {
		if u.Username == login {
			return u, nil
		}
		if byEmail == nil && strings.EqualFold(u.Email, login) {
			byEmail = &u
		}
	}
	if byEmail != nil {
		return *byEmail, nil
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.taken(username, email), nil
}

// taken checks both values against both columns, since either one can be
// typed into the login form.
func (r *UsersRepo) taken(username, email string) bool {
	for _, u := range r.items {
		if u.Username == username || u.Username == email ||
			strings.EqualFold(u.Email, email) || strings.EqualFold(u.Email, username) {
			return true
		}
	}
	return false
}

func (r *UsersRepo) Create(_ context.Context, username, email, passwordHash string, role user.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(username, email) {
		return 0, user.ErrAlreadyExists
	}

	u := user.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	r.items[u.ID] = u
	r.nextID++

	return u.ID, nil
}

func (r *UsersRepo) List(_ context.Context, f user.ListFilter) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.sorted()
	// newest first, matching the postgres ordering
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	return page(all, f.Limit, f.Offset), nil
}

func (r *UsersRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}

func (r *UsersRepo) UpdateRole(_ context.Context, id int64, role user.Role) (store.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return store.Changed(0), nil
	}
	u.Role = role
	r.items[id] = u

	return store.Changed(1), nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) (store.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return store.Changed(0), nil
	}
	delete(r.items, id)

	return store.Changed(1), nil
}

// sorted returns users by ascending id. Callers hold the lock.
func (r *UsersRepo) sorted() []user.User {
	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func page[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	out := make([]T, end-offset)
	copy(out, all[offset:end])
	return out
}
