package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

func parseIntDefault(raw string, fallback int) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// parsePagination reads limit/offset, answering 400 itself on bad values.
func parsePagination(ctx *gin.Context) (limit, offset int, ok bool) {
	limit, ok = parseIntDefault(ctx.Query("limit"), defaultLimit)
	if !ok || limit < 1 || limit > maxLimit {
		RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
		return 0, 0, false
	}

	offset, ok = parseIntDefault(ctx.Query("offset"), 0)
	if !ok || offset < 0 {
		RespondBadRequest(ctx, "offset must be a non-negative integer", nil)
		return 0, 0, false
	}

	return limit, offset, true
}

// parseID reads a positive numeric path id, answering 400 itself otherwise.
func parseID(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid id", nil)
		return 0, false
	}
	return id, true
}
