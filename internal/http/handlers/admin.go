package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/geocoder89/chairgo/internal/domain/user"
	"github.com/geocoder89/chairgo/internal/http/middlewares"
	"github.com/geocoder89/chairgo/internal/store"
	"github.com/gin-gonic/gin"
)

const recentProductsLimit = 5

type AdminUsersStore interface {
	List(ctx context.Context, f user.ListFilter) ([]user.User, error)
	Count(ctx context.Context) (int, error)
	UpdateRole(ctx context.Context, id int64, role user.Role) (store.WriteResult, error)
	Delete(ctx context.Context, id int64) (store.WriteResult, error)
}

type AdminProductsStore interface {
	Count(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, n int) ([]product.Product, error)
	ListLowStock(ctx context.Context, threshold int) ([]product.Product, error)
	CategoryStats(ctx context.Context) ([]product.CategoryStat, error)
	CountFeatured(ctx context.Context) (int, error)
	CountOutOfStock(ctx context.Context) (int, error)
	BulkUpdate(ctx context.Context, ids []int64, p product.Patch) (store.WriteResult, error)
}

type AdminHandler struct {
	users    AdminUsersStore
	products AdminProductsStore
}

func NewAdminHandler(users AdminUsersStore, products AdminProductsStore) *AdminHandler {
	return &AdminHandler{
		users:    users,
		products: products,
	}
}

type DashboardStats struct {
	TotalProducts    int               `json:"totalProducts"`
	TotalUsers       int               `json:"totalUsers"`
	RecentProducts   []product.Product `json:"recentProducts"`
	LowStockProducts []product.Product `json:"lowStockProducts"`
}

// GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	var stats DashboardStats
	var err error

	if stats.TotalProducts, err = h.products.Count(cctx); err != nil {
		RespondInternal(ctx, "Could not load dashboard", err)
		return
	}
	if stats.TotalUsers, err = h.users.Count(cctx); err != nil {
		RespondInternal(ctx, "Could not load dashboard", err)
		return
	}
	if stats.RecentProducts, err = h.products.ListRecent(cctx, recentProductsLimit); err != nil {
		RespondInternal(ctx, "Could not load dashboard", err)
		return
	}
	if stats.LowStockProducts, err = h.products.ListLowStock(cctx, product.LowStockThreshold); err != nil {
		RespondInternal(ctx, "Could not load dashboard", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// GET /api/admin/users?limit=20&offset=0
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	limit, offset, ok := parsePagination(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	users, err := h.users.List(cctx, user.ListFilter{Limit: limit, Offset: offset})
	if err != nil {
		RespondInternal(ctx, "Could not list users", err)
		return
	}

	total, err := h.users.Count(cctx)
	if err != nil {
		RespondInternal(ctx, "Could not list users", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"users":   user.PublicList(users),
		"pagination": Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	})
}

// PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateUserRole(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if !BindJSON(ctx, &req) {
		return
	}

	role, err := user.ParseRole(req.Role)
	if err != nil {
		RespondError(ctx, http.StatusBadRequest, CodeInvalidRole, "Invalid role. Must be admin or user", nil)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.users.UpdateRole(cctx, id, role)
	if err != nil {
		RespondInternal(ctx, "Could not update user role", err)
		return
	}

	if res.NotFound() {
		RespondNotFound(ctx, "User not found")
		return
	}

	RespondOK(ctx, "User role updated successfully")
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	callerID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, CodeUnauthorized, "Access token required")
		return
	}

	if id == callerID {
		RespondError(ctx, http.StatusBadRequest, CodeCannotDeleteSelf, "Cannot delete your own account", nil)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.users.Delete(cctx, id)
	if err != nil {
		RespondInternal(ctx, "Could not delete user", err)
		return
	}

	if res.NotFound() {
		RespondNotFound(ctx, "User not found")
		return
	}

	RespondOK(ctx, "User deleted successfully")
}

// GET /api/admin/products/stats
func (h *AdminHandler) ProductStats(ctx *gin.Context) {
	cctx, cancel := storeCtx(ctx)
	defer cancel()

	var stats product.Stats
	var err error

	if stats.Categories, err = h.products.CategoryStats(cctx); err != nil {
		RespondInternal(ctx, "Could not load product stats", err)
		return
	}
	if stats.FeaturedCount, err = h.products.CountFeatured(cctx); err != nil {
		RespondInternal(ctx, "Could not load product stats", err)
		return
	}
	if stats.OutOfStockCount, err = h.products.CountOutOfStock(cctx); err != nil {
		RespondInternal(ctx, "Could not load product stats", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// POST /api/admin/products/bulk-update
func (h *AdminHandler) BulkUpdateProducts(ctx *gin.Context) {
	var req product.BulkUpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if len(req.ProductIDs) == 0 {
		RespondBadRequest(ctx, "productIds must not be empty", nil)
		return
	}

	if req.Updates.IsEmpty() {
		RespondBadRequest(ctx, "No fields to update", nil)
		return
	}

	if req.Updates.Name != nil && strings.TrimSpace(*req.Updates.Name) == "" {
		RespondBadRequest(ctx, "Product name cannot be empty", nil)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.products.BulkUpdate(cctx, req.ProductIDs, req.Updates)
	if err != nil {
		RespondInternal(ctx, "Could not update products", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("%d products updated successfully", res.Changes),
		"updated": res.Changes,
	})
}
