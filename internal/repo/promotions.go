package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PromotionsRepo provides access to promotions and their order assignments.
type PromotionsRepo struct {
	DB DBTX
}

const promotionColumns = "id, name, type, percent, product_types, created_at"

func scanPromotion(row pgx.Row) (Promotion, error) {
	var p Promotion
	err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Percent, &p.ProductTypes, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Promotion{}, ErrNotFound
	}
	return p, err
}

// Get returns the promotion with the given id.
func (r PromotionsRepo) Get(ctx context.Context, id uuid.UUID) (Promotion, error) {
	row := r.DB.QueryRow(ctx,
		"SELECT "+promotionColumns+" FROM promotions WHERE id = $1", id)
	return scanPromotion(row)
}

// List returns every promotion, newest first.
func (r PromotionsRepo) List(ctx context.Context) ([]Promotion, error) {
	rows, err := r.DB.Query(ctx,
		"SELECT "+promotionColumns+" FROM promotions ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Promotion
	for rows.Next() {
		var p Promotion
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.Percent, &p.ProductTypes, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Insert stores a new promotion and returns its generated id.
func (r PromotionsRepo) Insert(ctx context.Context, p Promotion) (uuid.UUID, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	_, err := r.DB.Exec(ctx,
		`INSERT INTO promotions (id, name, type, percent, product_types)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, p.Name, p.Type, p.Percent, p.ProductTypes)
	return id, err
}

// Assign links a promotion to an order at the given cascade position.
// A duplicate (order, promotion) pair returns ErrDuplicate.
func (r PromotionsRepo) Assign(ctx context.Context, orderID, promotionID uuid.UUID, position int) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO order_promotions (id, order_id, promotion_id, position)
		 VALUES ($1, $2, $3, $4)`,
		uuid.New(), orderID, promotionID, position)
	if IsUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// NextPosition returns the cascade position a new item assignment should
// take, one past the current maximum.
func (r PromotionsRepo) NextPosition(ctx context.Context, orderID uuid.UUID) (int, error) {
	var next int
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(MAX(op.position), 0) + 1
		 FROM order_promotions op
		 JOIN promotions p ON p.id = op.promotion_id
		 WHERE op.order_id = $1 AND p.type = 'item'`,
		orderID).Scan(&next)
	return next, err
}

// ListAssigned returns the item promotions assigned to an order in cascade
// order, joined with their definitions.
func (r PromotionsRepo) ListAssigned(ctx context.Context, orderID uuid.UUID) ([]AssignedPromotion, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT p.id, p.name, p.type, p.percent, p.product_types, p.created_at, op.position
		 FROM order_promotions op
		 JOIN promotions p ON p.id = op.promotion_id
		 WHERE op.order_id = $1 AND p.type = 'item'
		 ORDER BY op.position`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssignedPromotion
	for rows.Next() {
		var a AssignedPromotion
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Percent, &a.ProductTypes, &a.CreatedAt, &a.Position); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetOrderPromotion returns the order scoped promotion set on an order, or
// ErrNotFound when none is set.
func (r PromotionsRepo) GetOrderPromotion(ctx context.Context, orderID uuid.UUID) (Promotion, error) {
	row := r.DB.QueryRow(ctx,
		`SELECT p.id, p.name, p.type, p.percent, p.product_types, p.created_at
		 FROM orders o
		 JOIN promotions p ON p.id = o.order_promotion_id
		 WHERE o.id = $1`,
		orderID)
	return scanPromotion(row)
}
