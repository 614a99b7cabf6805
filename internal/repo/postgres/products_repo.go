package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/chairgo/internal/domain/product"
	"github.com/geocoder89/chairgo/internal/observability"
	"github.com/geocoder89/chairgo/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProductsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProductsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProductsRepo {
	return &ProductsRepo{
		pool: pool,
		prom: prom,
	}
}

const productColumns = `id, name, description, price::float8, category, image, stock, featured, created_at`

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Image, &p.Stock, &p.Featured, &p.CreatedAt)
	return p, err
}

func (r *ProductsRepo) collect(ctx context.Context, op string, capHint int, sql string, args ...any) ([]product.Product, error) {
	out := make([]product.Product, 0, capHint)

	err := r.prom.ObserveDB(op, func() error {
		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func listConditions(f product.ListFilter) ([]string, []any) {
	var conds []string
	var args []any

	argsPosition := 1

	if f.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *f.Category)
		argsPosition++
	}

	if f.Featured != nil {
		conds = append(conds, fmt.Sprintf("featured = $%d", argsPosition))
		args = append(args, *f.Featured)
	}

	return conds, args
}

// List returns one page of products plus the total number of matches.
func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, int, error) {
	conds, args := listConditions(f)

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := r.prom.ObserveDB("products.count_filtered", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := `SELECT ` + productColumns + ` FROM products` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", n+1, n+2)
	args = append(args, f.Limit, f.Offset)

	items, err := r.collect(ctx, "products.list", f.Limit, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product

	err := r.prom.ObserveDB("products.get_by_id", func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

func (r *ProductsRepo) Create(ctx context.Context, req product.CreateRequest) (store.WriteResult, error) {
	var id int64

	err := r.prom.ObserveDB("products.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO products (name, description, price, category, image, stock, featured)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			req.Name, req.Description, req.Price, req.Category, req.Image, req.Stock, req.Featured,
		).Scan(&id)
	})

	if err != nil {
		return store.WriteResult{}, err
	}
	return store.Inserted(id), nil
}

// setClause renders the SET list for the supplied patch fields, numbering
// placeholders from start.
func setClause(p product.Patch, start int) (string, []any) {
	var sets []string
	var args []any

	add := func(col string, v any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, start+len(args)))
		args = append(args, v)
	}

	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Price != nil {
		add("price", *p.Price)
	}
	if p.Category != nil {
		add("category", *p.Category)
	}
	if p.Image != nil {
		add("image", *p.Image)
	}
	if p.Stock != nil {
		add("stock", *p.Stock)
	}
	if p.Featured != nil {
		add("featured", *p.Featured)
	}

	return strings.Join(sets, ", "), args
}

func (r *ProductsRepo) Update(ctx context.Context, id int64, p product.Patch) (store.WriteResult, error) {
	if p.IsEmpty() {
		return store.Changed(0), nil
	}

	set, args := setClause(p, 2)
	return r.exec(ctx, "products.update", `UPDATE products SET `+set+` WHERE id = $1`, append([]any{id}, args...)...)
}

// BulkUpdate applies the same patch to every id in one statement.
func (r *ProductsRepo) BulkUpdate(ctx context.Context, ids []int64, p product.Patch) (store.WriteResult, error) {
	if p.IsEmpty() || len(ids) == 0 {
		return store.Changed(0), nil
	}

	set, args := setClause(p, 2)
	return r.exec(ctx, "products.bulk_update", `UPDATE products SET `+set+` WHERE id = ANY($1)`, append([]any{ids}, args...)...)
}

func (r *ProductsRepo) Delete(ctx context.Context, id int64) (store.WriteResult, error) {
	return r.exec(ctx, "products.delete", `DELETE FROM products WHERE id = $1`, id)
}

func (r *ProductsRepo) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "products.count", `SELECT COUNT(*) FROM products`)
}

func (r *ProductsRepo) CountFeatured(ctx context.Context) (int, error) {
	return r.count(ctx, "products.count_featured", `SELECT COUNT(*) FROM products WHERE featured`)
}

func (r *ProductsRepo) CountOutOfStock(ctx context.Context) (int, error) {
	return r.count(ctx, "products.count_out_of_stock", `SELECT COUNT(*) FROM products WHERE stock = 0`)
}

func (r *ProductsRepo) ListRecent(ctx context.Context, n int) ([]product.Product, error) {
	return r.collect(ctx, "products.list_recent", n,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC LIMIT $1`, n)
}

func (r *ProductsRepo) ListLowStock(ctx context.Context, threshold int) ([]product.Product, error) {
	return r.collect(ctx, "products.list_low_stock", 0,
		`SELECT `+productColumns+` FROM products WHERE stock < $1 ORDER BY stock ASC, id ASC`, threshold)
}

func (r *ProductsRepo) CategoryStats(ctx context.Context) ([]product.CategoryStat, error) {
	out := []product.CategoryStat{}

	err := r.prom.ObserveDB("products.category_stats", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT category, COUNT(*), COALESCE(AVG(price), 0)::float8
			FROM products
			GROUP BY category
			ORDER BY category`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var s product.CategoryStat
			if err := rows.Scan(&s.Category, &s.Count, &s.AveragePrice); err != nil {
				return err
			}
			out = append(out, s)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProductsRepo) count(ctx context.Context, op, sql string) (int, error) {
	var n int
	err := r.prom.ObserveDB(op, func() error {
		return r.pool.QueryRow(ctx, sql).Scan(&n)
	})
	return n, err
}

func (r *ProductsRepo) exec(ctx context.Context, op, sql string, args ...any) (store.WriteResult, error) {
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
