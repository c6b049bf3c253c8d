package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ProductsRepo provides access to the product catalog.
type ProductsRepo struct {
	DB DBTX
}

const productColumns = "id, code, name, type, price, tax_rate, created_at"

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Type, &p.Price, &p.TaxRate, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// GetByCode returns the product with the given catalog code.
func (r ProductsRepo) GetByCode(ctx context.Context, code string) (Product, error) {
	row := r.DB.QueryRow(ctx,
		"SELECT "+productColumns+" FROM products WHERE code = $1", code)
	return scanProduct(row)
}

// List returns a page of products ordered by code.
func (r ProductsRepo) List(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY code LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Type, &p.Price, &p.TaxRate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Count returns the number of catalog products.
func (r ProductsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRow(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

