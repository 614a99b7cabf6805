package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/http/handlers"
	"github.com/geocoder89/chairgo/internal/security"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func decodeError(t *testing.T, body []byte) errorBody {
	t.Helper()

	var resp errorBody
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("failed to unmarshal error body: %v body=%s", err, string(body))
	}
	return resp
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
		wantCode       string
	}{
		{
			name: "success",
			body: `{"username":"alice","email":"alice@example.com","password":"secret1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, hash string, role user.Role) (int64, error) {
					if role != user.RoleAdmin {
						return 0, errors.New("unexpected role " + string(role))
					}
					if hash == "secret1" || security.CheckPassword(hash, "secret1") != nil {
						return 0, errors.New("password was not hashed")
					}
					return 7, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "validation_error",
			body:           `{"username":"al","email":"not-an-email","password":"123"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       handlers.CodeInvalidInput,
		},
		{
			name: "email_shaped_username",
			body: `{"username":"victim@example.com","email":"mallory@example.com","password":"secret1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.existsFn = func(ctx context.Context, username, email string) (bool, error) {
					return false, errors.New("store must not be reached")
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantCode:       handlers.CodeInvalidInput,
		},
		{
			name: "username_or_email_taken",
			body: `{"username":"alice","email":"alice@example.com","password":"secret1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.existsFn = func(ctx context.Context, username, email string) (bool, error) {
					return true, nil
				}
			},
			wantStatusCode: http.StatusConflict,
			wantCode:       handlers.CodeUserAlreadyExists,
		},
		{
			name: "lost_insert_race",
			body: `{"username":"alice","email":"alice@example.com","password":"secret1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, username, email, hash string, role user.Role) (int64, error) {
					return 0, user.ErrAlreadyExists
				}
			},
			wantStatusCode: http.StatusConflict,
			wantCode:       handlers.CodeUserAlreadyExists,
		},
		{
			name: "repo_error",
			body: `{"username":"alice","email":"alice@example.com","password":"secret1"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.existsFn = func(ctx context.Context, username, email string) (bool, error) {
					return false, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       handlers.CodeInternal,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, &fakeTokens{}, nil)
			r := setupRouter(http.MethodPost, "/auth/register", h.Register)

			w := doRequest(r, http.MethodPost, "/auth/register", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d,body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				if got := decodeError(t, w.Body.Bytes()).Code; got != tt.wantCode {
					t.Fatalf("got code %q, want %q", got, tt.wantCode)
				}
				return
			}

			var resp struct {
				Success bool  `json:"success"`
				UserID  int64 `json:"userId"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if !resp.Success || resp.UserID != 7 {
				t.Fatalf("unexpected register response: %s", w.Body.String())
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("admin123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	admin := user.User{ID: 1, Username: "admin", Email: "admin@chairgo.local", PasswordHash: hash, Role: user.RoleAdmin}

	knownAdmin := func(f *fakeUsersRepo) {
		f.getByLoginFn = func(ctx context.Context, login string) (user.User, error) {
			if login == "admin" || login == "admin@chairgo.local" {
				return admin, nil
			}
			return user.User{}, user.ErrNotFound
		}
	}

	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "success_by_username",
			body:           `{"username":"admin","password":"admin123"}`,
			repoSetUp:      knownAdmin,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "success_by_email",
			body:           `{"username":"admin@chairgo.local","password":"admin123"}`,
			repoSetUp:      knownAdmin,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "wrong_password",
			body:           `{"username":"admin","password":"nope"}`,
			repoSetUp:      knownAdmin,
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       handlers.CodeInvalidCredentials,
		},
		{
			name:           "unknown_user",
			body:           `{"username":"ghost","password":"admin123"}`,
			repoSetUp:      knownAdmin,
			wantStatusCode: http.StatusUnauthorized,
			wantCode:       handlers.CodeInvalidCredentials,
		},
		{
			name:           "missing_password",
			body:           `{"username":"admin"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       handlers.CodeInvalidInput,
		},
		{
			name: "repo_error",
			body: `{"username":"admin","password":"admin123"}`,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByLoginFn = func(ctx context.Context, login string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       handlers.CodeInternal,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			tokens := &fakeTokens{
				generateFn: func(userID int64, username, role string) (string, error) {
					return "signed-" + username + "-" + role, nil
				},
			}

			h := handlers.NewAuthHandler(repo, repo, tokens, nil)
			r := setupRouter(http.MethodPost, "/auth/login", h.Login)

			w := doRequest(r, http.MethodPost, "/auth/login", tt.body)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d,body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantCode != "" {
				resp := decodeError(t, w.Body.Bytes())
				if resp.Code != tt.wantCode {
					t.Fatalf("got code %q, want %q", resp.Code, tt.wantCode)
				}
				if tt.wantCode == handlers.CodeInvalidCredentials && resp.Error != "Invalid credentials" {
					t.Fatalf("unexpected message %q", resp.Error)
				}
				return
			}

			if strings.Contains(w.Body.String(), "passwordHash") || strings.Contains(w.Body.String(), hash) {
				t.Fatalf("login response leaked the password hash: %s", w.Body.String())
			}

			var resp struct {
				Success bool        `json:"success"`
				Token   string      `json:"token"`
				User    user.Public `json:"user"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal: %v", err)
			}
			if resp.Token != "signed-admin-admin" {
				t.Fatalf("unexpected token %q", resp.Token)
			}
			if resp.User.ID != 1 || resp.User.Role != user.RoleAdmin {
				t.Fatalf("unexpected user: %+v", resp.User)
			}
		})
	}
}

func TestVerifyHandler(t *testing.T) {
	tests := []struct {
		name           string
		withUser       bool
		repoSetUp      func(*fakeUsersRepo)
		wantStatusCode int
	}{
		{
			name:     "success",
			withUser: true,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id int64) (user.User, error) {
					return user.User{ID: id, Username: "admin", Role: user.RoleAdmin}, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "user_deleted_since_login",
			withUser:       true,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "no_identity_on_context",
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:     "repo_error",
			withUser: true,
			repoSetUp: func(f *fakeUsersRepo) {
				f.getByIDFn = func(ctx context.Context, id int64) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeUsersRepo{}
			if tt.repoSetUp != nil {
				tt.repoSetUp(repo)
			}

			h := handlers.NewAuthHandler(repo, repo, &fakeTokens{}, nil)

			r := setupRouter(http.MethodGet, "/auth/verify", h.Verify)
			if tt.withUser {
				r = setupRouter(http.MethodGet, "/auth/verify", asUser(3), h.Verify)
			}

			w := doRequest(r, http.MethodGet, "/auth/verify", "")

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d,body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestLogoutHandler(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeUsersRepo{}, &fakeUsersRepo{}, &fakeTokens{}, nil)
	r := setupRouter(http.MethodPost, "/auth/logout", h.Logout)

	w := doRequest(r, http.MethodPost, "/auth/logout", "")

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d,body=%s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Logged out successfully") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
