package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/geocoder89/chairgo/internal/store"
)

type ProductsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]product.Product
	now    func() time.Time
}

func NewProductsRepo() *ProductsRepo {
	return &ProductsRepo{
		nextID: 1,
		items:  make(map[int64]product.Product),
		now:    time.Now,
	}
}

// newestFirst orders by created_at then id, both descending. Callers hold the lock.
func (r *ProductsRepo) newestFirst() []product.Product {
	out := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *ProductsRepo) List(_ context.Context, f product.ListFilter) ([]product.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]product.Product, 0)
	for _, p := range r.newestFirst() {
		if f.Category != nil && p.Category != *f.Category {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		matched = append(matched, p)
	}

	return page(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *ProductsRepo) GetByID(_ context.Context, id int64) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func (r *ProductsRepo) Create(_ context.Context, req product.CreateRequest) (store.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := product.Product{
		ID:          r.nextID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Image:       req.Image,
		Stock:       req.Stock,
		Featured:    req.Featured,
		CreatedAt:   r.now().UTC(),
	}
	r.items[p.ID] = p
	r.nextID++

	return store.Inserted(p.ID), nil
}

func (r *ProductsRepo) Update(_ context.Context, id int64, patch product.Patch) (store.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok || patch.IsEmpty() {
		return store.Changed(0), nil
	}
	r.items[id] = patch.Apply(p)

	return store.Changed(1), nil
}

func (r *ProductsRepo) BulkUpdate(_ context.Context, ids []int64, patch product.Patch) (store.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if patch.IsEmpty() {
		return store.Changed(0), nil
	}

	seen := make(map[int64]struct{}, len(ids))
	var n int64
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		p, ok := r.items[id]
		if !ok {
			continue
		}
		r.items[id] = patch.Apply(p)
		n++
	}

	return store.Changed(n), nil
}

func (r *ProductsRepo) Delete(_ context.Context, id int64) (store.WriteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return store.Changed(0), nil
	}
	delete(r.items, id)

	return store.Changed(1), nil
}

func (r *ProductsRepo) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items), nil
}

func (r *ProductsRepo) countWhere(keep func(product.Product) bool) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.items {
		if keep(p) {
			n++
		}
	}
	return n
}

func (r *ProductsRepo) CountFeatured(_ context.Context) (int, error) {
	return r.countWhere(func(p product.Product) bool { return p.Featured }), nil
}

func (r *ProductsRepo) CountOutOfStock(_ context.Context) (int, error) {
	return r.countWhere(func(p product.Product) bool { return p.Stock == 0 }), nil
}

func (r *ProductsRepo) ListRecent(_ context.Context, n int) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return page(r.newestFirst(), n, 0), nil
}

func (r *ProductsRepo) ListLowStock(_ context.Context, threshold int) ([]product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]product.Product, 0)
	for _, p := range r.items {
		if p.Stock < threshold {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *ProductsRepo) CategoryStats(_ context.Context) ([]product.CategoryStat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type acc struct {
		count int
		sum   float64
	}
	byCat := map[string]*acc{}
	for _, p := range r.items {
		a, ok := byCat[p.Category]
		if !ok {
			a = &acc{}
			byCat[p.Category] = a
		}
		a.count++
		a.sum += p.Price
	}

	out := make([]product.CategoryStat, 0, len(byCat))
	for cat, a := range byCat {
		out = append(out, product.CategoryStat{
			Category:     cat,
			Count:        a.count,
			AveragePrice: a.sum / float64(a.count),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}
