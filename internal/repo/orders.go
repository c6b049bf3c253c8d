package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrdersRepo provides access to orders and their lines.
type OrdersRepo struct {
	DB DBTX
}

const orderColumns = "id, status, order_promotion_id, items_total, adjustments_total, tax_total, total, created_at, updated_at"

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Status, &o.OrderPromotionID, &o.ItemsTotal,
		&o.AdjustmentsTotal, &o.TaxTotal, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// Create inserts a new open order with zeroed totals.
func (r OrdersRepo) Create(ctx context.Context) (Order, error) {
	row := r.DB.QueryRow(ctx,
		`INSERT INTO orders (id, status) VALUES ($1, $2)
		 RETURNING `+orderColumns,
		uuid.New(), OrderStatusOpen)
	return scanOrder(row)
}

// Get returns the order with the given id.
func (r OrdersRepo) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	row := r.DB.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	return scanOrder(row)
}

// FindOpen returns the most recently created open order.
func (r OrdersRepo) FindOpen(ctx context.Context) (Order, error) {
	row := r.DB.QueryRow(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE status = $1 ORDER BY created_at DESC LIMIT 1",
		OrderStatusOpen)
	return scanOrder(row)
}

// ListItems returns the order's lines joined with their product snapshots,
// in insertion order so pricing sees a stable item sequence.
func (r OrdersRepo) ListItems(ctx context.Context, orderID uuid.UUID) ([]OrderItemDetail, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT i.id, i.order_id, i.product_id, i.qty, i.unit_price,
		        i.discount_percent, i.discount_value, i.discounted_unit_price,
		        i.distributed_order_discount, i.final_unit_price, i.total, i.tax_value,
		        p.code, p.name, p.type, p.tax_rate
		 FROM order_items i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = $1
		 ORDER BY i.created_at, i.id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OrderItemDetail
	for rows.Next() {
		var d OrderItemDetail
		if err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.Qty, &d.UnitPrice,
			&d.DiscountPercent, &d.DiscountValue, &d.DiscountedUnitPrice,
			&d.DistributedOrderDiscount, &d.FinalUnitPrice, &d.Total, &d.TaxValue,
			&d.ProductCode, &d.ProductName, &d.ProductType, &d.ProductTaxRate); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpsertItem adds qty units of a product to the order, snapshotting the unit
// price on first insert. The line's derived price fields are left for the
// next pricing pass.
func (r OrdersRepo) UpsertItem(ctx context.Context, orderID, productID uuid.UUID, qty int, unitPrice int64) error {
	_, err := r.DB.Exec(ctx,
		`INSERT INTO order_items (id, order_id, product_id, qty, unit_price)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (order_id, product_id)
		 DO UPDATE SET qty = order_items.qty + EXCLUDED.qty`,
		uuid.New(), orderID, productID, qty, unitPrice)
	return err
}

// UpdateItemPricing persists the derived price fields of one line.
func (r OrdersRepo) UpdateItemPricing(ctx context.Context, it OrderItem) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE order_items SET
		   discount_percent = $2,
		   discount_value = $3,
		   discounted_unit_price = $4,
		   distributed_order_discount = $5,
		   final_unit_price = $6,
		   total = $7,
		   tax_value = $8
		 WHERE id = $1`,
		it.ID, it.DiscountPercent, it.DiscountValue, it.DiscountedUnitPrice,
		it.DistributedOrderDiscount, it.FinalUnitPrice, it.Total, it.TaxValue)
	return err
}

// SetOrderPromotion records the order's single order scoped promotion,
// replacing any previous one.
func (r OrdersRepo) SetOrderPromotion(ctx context.Context, orderID, promotionID uuid.UUID) error {
	_, err := r.DB.Exec(ctx,
		"UPDATE orders SET order_promotion_id = $2, updated_at = now() WHERE id = $1",
		orderID, promotionID)
	return err
}

// UpdateTotals persists the order level aggregates.
func (r OrdersRepo) UpdateTotals(ctx context.Context, o Order) error {
	_, err := r.DB.Exec(ctx,
		`UPDATE orders SET
		   items_total = $2,
		   adjustments_total = $3,
		   tax_total = $4,
		   total = $5,
		   updated_at = now()
		 WHERE id = $1`,
		o.ID, o.ItemsTotal, o.AdjustmentsTotal, o.TaxTotal, o.Total)
	return err
}
