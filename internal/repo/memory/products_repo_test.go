package memory

import (
	"context"
	"testing"
	"time"

	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededProducts(t *testing.T) *ProductsRepo {
	t.Helper()

	clock := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	r := NewProductsRepo()
	r.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	ctx := context.Background()
	for _, req := range []product.CreateRequest{
		{Name: "Oak Chair", Price: 100, Category: "chairs", Stock: 12, Featured: true},
		{Name: "Pine Chair", Price: 60, Category: "chairs", Stock: 0},
		{Name: "Velvet Sofa", Price: 900, Category: "sofas", Stock: 3, Featured: true},
		{Name: "Desk Lamp", Price: 40, Category: "lighting", Stock: 25},
	} {
		_, err := r.Create(ctx, req)
		require.NoError(t, err)
	}
	return r
}

func ids(ps []product.Product) []int64 {
	out := make([]int64, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestProductsRepo_ListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	r := seededProducts(t)

	all, total, err := r.List(ctx, product.ListFilter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, []int64{4, 3, 2, 1}, ids(all))

	chairs := "chairs"
	got, total, err := r.List(ctx, product.ListFilter{Category: &chairs, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total, "total counts every match, not just the page")
	assert.Equal(t, []int64{2}, ids(got))

	featured := true
	got, total, err = r.List(ctx, product.ListFilter{Featured: &featured, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []int64{3, 1}, ids(got))
}

func TestProductsRepo_UpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	r := seededProducts(t)

	stock := 0
	res, err := r.Update(ctx, 1, product.Patch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Changes)

	p, err := r.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, "Oak Chair", p.Name)
	assert.True(t, p.Featured)

	res, err = r.Update(ctx, 99, product.Patch{Stock: &stock})
	require.NoError(t, err)
	assert.True(t, res.NotFound())
}

func TestProductsRepo_BulkUpdateCountsExistingRows(t *testing.T) {
	ctx := context.Background()
	r := seededProducts(t)

	featured := false
	res, err := r.BulkUpdate(ctx, []int64{1, 3, 3, 99}, product.Patch{Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Changes)

	n, err := r.CountFeatured(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProductsRepo_DashboardQueries(t *testing.T) {
	ctx := context.Background()
	r := seededProducts(t)

	recent, err := r.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, ids(recent))

	low, err := r.ListLowStock(ctx, product.LowStockThreshold)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids(low))

	out, err := r.CountOutOfStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out)

	stats, err := r.CategoryStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, product.CategoryStat{Category: "chairs", Count: 2, AveragePrice: 80}, stats[0])
	assert.Equal(t, "lighting", stats[1].Category)
	assert.Equal(t, "sofas", stats[2].Category)
}

func TestProductsRepo_Delete(t *testing.T) {
	ctx := context.Background()
	r := seededProducts(t)

	res, err := r.Delete(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Changes)

	_, err = r.GetByID(ctx, 2)
	assert.ErrorIs(t, err, product.ErrNotFound)

	res, err = r.Delete(ctx, 2)
	require.NoError(t, err)
	assert.True(t, res.NotFound())
}
