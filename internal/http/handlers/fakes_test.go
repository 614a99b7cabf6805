package handlers_test

import (
	"bytes"
	"context"
	"net/http/httptest"

	"github.com/geocoder89/chairgo/internal/domain/order"
	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/http/middlewares"
	"github.com/geocoder89/chairgo/internal/store"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

// Fake user store covering the auth and admin handler interfaces

type fakeUsersRepo struct {
	getByIDFn    func(ctx context.Context, id int64) (user.User, error)
	getByLoginFn func(ctx context.Context, login string) (user.User, error)
	existsFn     func(ctx context.Context, username, email string) (bool, error)
	createFn     func(ctx context.Context, username, email, hash string, role user.Role) (int64, error)
	listFn       func(ctx context.Context, f user.ListFilter) ([]user.User, error)
	countFn      func(ctx context.Context) (int, error)
	updateRoleFn func(ctx context.Context, id int64, role user.Role) (store.WriteResult, error)
	deleteFn     func(ctx context.Context, id int64) (store.WriteResult, error)
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) GetByUsernameOrEmail(ctx context.Context, login string) (user.User, error) {
	if f.getByLoginFn != nil {
		return f.getByLoginFn(ctx, login)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if f.existsFn != nil {
		return f.existsFn(ctx, username, email)
	}
	return false, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, username, email, hash string, role user.Role) (int64, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, email, hash, role)
	}
	return 1, nil
}

func (f *fakeUsersRepo) List(ctx context.Context, filter user.ListFilter) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeUsersRepo) Count(ctx context.Context) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx)
	}
	return 0, nil
}

func (f *fakeUsersRepo) UpdateRole(ctx context.Context, id int64, role user.Role) (store.WriteResult, error) {
	if f.updateRoleFn != nil {
		return f.updateRoleFn(ctx, id, role)
	}
	return store.Changed(1), nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id int64) (store.WriteResult, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return store.Changed(1), nil
}

// Fake product store covering the products and admin handler interfaces

type fakeProductsRepo struct {
	listFn            func(ctx context.Context, f product.ListFilter) ([]product.Product, int, error)
	getFn             func(ctx context.Context, id int64) (product.Product, error)
	createFn          func(ctx context.Context, req product.CreateRequest) (store.WriteResult, error)
	updateFn          func(ctx context.Context, id int64, p product.Patch) (store.WriteResult, error)
	deleteFn          func(ctx context.Context, id int64) (store.WriteResult, error)
	countFn           func(ctx context.Context) (int, error)
	recentFn          func(ctx context.Context, n int) ([]product.Product, error)
	lowStockFn        func(ctx context.Context, threshold int) ([]product.Product, error)
	categoryStatsFn   func(ctx context.Context) ([]product.CategoryStat, error)
	countFeaturedFn   func(ctx context.Context) (int, error)
	countOutOfStockFn func(ctx context.Context) (int, error)
	bulkUpdateFn      func(ctx context.Context, ids []int64, p product.Patch) (store.WriteResult, error)
}

func (f *fakeProductsRepo) List(ctx context.Context, filter product.ListFilter) ([]product.Product, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return []product.Product{}, 0, nil
}

func (f *fakeProductsRepo) GetByID(ctx context.Context, id int64) (product.Product, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return product.Product{ID: id}, nil
}

func (f *fakeProductsRepo) Create(ctx context.Context, req product.CreateRequest) (store.WriteResult, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return store.Inserted(1), nil
}

func (f *fakeProductsRepo) Update(ctx context.Context, id int64, p product.Patch) (store.WriteResult, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, p)
	}
	return store.Changed(1), nil
}

func (f *fakeProductsRepo) Delete(ctx context.Context, id int64) (store.WriteResult, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return store.Changed(1), nil
}

func (f *fakeProductsRepo) Count(ctx context.Context) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx)
	}
	return 0, nil
}

func (f *fakeProductsRepo) ListRecent(ctx context.Context, n int) ([]product.Product, error) {
	if f.recentFn != nil {
		return f.recentFn(ctx, n)
	}
	return []product.Product{}, nil
}

func (f *fakeProductsRepo) ListLowStock(ctx context.Context, threshold int) ([]product.Product, error) {
	if f.lowStockFn != nil {
		return f.lowStockFn(ctx, threshold)
	}
	return []product.Product{}, nil
}

func (f *fakeProductsRepo) CategoryStats(ctx context.Context) ([]product.CategoryStat, error) {
	if f.categoryStatsFn != nil {
		return f.categoryStatsFn(ctx)
	}
	return []product.CategoryStat{}, nil
}

func (f *fakeProductsRepo) CountFeatured(ctx context.Context) (int, error) {
	if f.countFeaturedFn != nil {
		return f.countFeaturedFn(ctx)
	}
	return 0, nil
}

func (f *fakeProductsRepo) CountOutOfStock(ctx context.Context) (int, error) {
	if f.countOutOfStockFn != nil {
		return f.countOutOfStockFn(ctx)
	}
	return 0, nil
}

func (f *fakeProductsRepo) BulkUpdate(ctx context.Context, ids []int64, p product.Patch) (store.WriteResult, error) {
	if f.bulkUpdateFn != nil {
		return f.bulkUpdateFn(ctx, ids, p)
	}
	return store.Changed(int64(len(ids))), nil
}

type fakeOrdersRepo struct {
	getFn func(ctx context.Context, number string) (order.Order, error)
}

func (f *fakeOrdersRepo) GetByNumber(ctx context.Context, number string) (order.Order, error) {
	if f.getFn != nil {
		return f.getFn(ctx, number)
	}
	return order.Order{}, order.ErrNotFound
}

type fakeTokens struct {
	generateFn func(userID int64, username, role string) (string, error)
}

func (f *fakeTokens) GenerateAccessToken(userID int64, username, role string) (string, error) {
	if f.generateFn != nil {
		return f.generateFn(userID, username, role)
	}
	return "token", nil
}

// small helper function which returns the gin engine to mount one handler per test
func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h...)

	return r
}

// asUser stands in for RequireAuth in handler tests.
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxUserID, id)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
