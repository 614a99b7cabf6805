package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/geocoder89/chairgo/internal/domain/order"
	"github.com/gin-gonic/gin"
)

type OrdersReader interface {
	GetByNumber(ctx context.Context, number string) (order.Order, error)
}

type OrdersHandler struct {
	repo OrdersReader
}

func NewOrdersHandler(repo OrdersReader) *OrdersHandler {
	return &OrdersHandler{repo: repo}
}

// GET /api/orders/:orderNumber
func (h *OrdersHandler) Track(ctx *gin.Context) {
	number := order.NormalizeNumber(ctx.Param("orderNumber"))
	if number == "" || len(number) > 64 {
		RespondBadRequest(ctx, "Invalid order number", nil)
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	o, err := h.repo.GetByNumber(cctx, number)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			RespondNotFound(ctx, "Order not found")
			return
		}
		RespondInternal(ctx, "Could not fetch order", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"order":   o,
	})
}
