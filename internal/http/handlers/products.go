package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/geocoder89/chairgo/internal/store"
	"github.com/gin-gonic/gin"
)

type ProductsStore interface {
	List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error)
	GetByID(ctx context.Context, id int64) (product.Product, error)
	Create(ctx context.Context, req product.CreateRequest) (store.WriteResult, error)
	Update(ctx context.Context, id int64, p product.Patch) (store.WriteResult, error)
	Delete(ctx context.Context, id int64) (store.WriteResult, error)
}

type ProductsHandler struct {
	repo ProductsStore
}

func NewProductsHandler(repo ProductsStore) *ProductsHandler {
	return &ProductsHandler{repo: repo}
}

// GET /api/products?category=chairs&featured=true&limit=20&offset=0
func (h *ProductsHandler) List(ctx *gin.Context) {
	limit, offset, ok := parsePagination(ctx)
	if !ok {
		return
	}

	filter := product.ListFilter{Limit: limit, Offset: offset}

	if c := strings.TrimSpace(ctx.Query("category")); c != "" {
		filter.Category = &c
	}

	if raw := ctx.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			RespondBadRequest(ctx, "featured must be true or false", nil)
			return
		}
		filter.Featured = &featured
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, total, err := h.repo.List(cctx, filter)
	if err != nil {
		RespondInternal(ctx, "Could not list products", err)
		return
	}

	respondCatalog(ctx, gin.H{
		"success":  true,
		"products": items,
		"pagination": Pagination{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	})
}

func (h *ProductsHandler) Get(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not fetch product", err)
		return
	}

	respondCatalog(ctx, gin.H{
		"success": true,
		"product": p,
	})
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		RespondBadRequest(ctx, "Product name is required", nil)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Create(cctx, req)
	if err != nil {
		RespondInternal(ctx, "Could not create product", err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"message":   "Product created successfully",
		"productId": res.LastInsertID,
	})
}

func (h *ProductsHandler) Update(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	var patch product.Patch
	if !BindJSON(ctx, &patch) {
		return
	}

	if patch.IsEmpty() {
		RespondBadRequest(ctx, "No fields to update", nil)
		return
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		RespondBadRequest(ctx, "Product name cannot be empty", nil)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	if _, err := h.repo.GetByID(cctx, id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		RespondInternal(ctx, "Could not update product", err)
		return
	}

	res, err := h.repo.Update(cctx, id, patch)
	if err != nil {
		RespondInternal(ctx, "Could not update product", err)
		return
	}

	// deleted between the existence check and the write
	if res.NotFound() {
		RespondNotFound(ctx, "Product not found")
		return
	}

	RespondOK(ctx, "Product updated successfully")
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Delete(cctx, id)
	if err != nil {
		RespondInternal(ctx, "Could not delete product", err)
		return
	}

	if res.NotFound() {
		RespondNotFound(ctx, "Product not found")
		return
	}

	RespondOK(ctx, "Product deleted successfully")
}
