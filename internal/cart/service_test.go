package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-bookshop/internal/common"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

type fakeProducts struct {
	byCode map[string]repo.Product
}

func (f *fakeProducts) GetByCode(_ context.Context, code string) (repo.Product, error) {
	p, ok := f.byCode[code]
	if !ok {
		return repo.Product{}, repo.ErrNotFound
	}
	return p, nil
}

type fakeOrders struct {
	open    *repo.Order
	items   []repo.OrderItemDetail
	created int
	upserts int
}

func (f *fakeOrders) FindOpen(context.Context) (repo.Order, error) {
	if f.open == nil {
		return repo.Order{}, repo.ErrNotFound
	}
	return *f.open, nil
}

func (f *fakeOrders) Create(context.Context) (repo.Order, error) {
	f.created++
	o := repo.Order{ID: uuid.New(), Status: repo.OrderStatusOpen}
	f.open = &o
	return o, nil
}

func (f *fakeOrders) ListItems(context.Context, uuid.UUID) ([]repo.OrderItemDetail, error) {
	return f.items, nil
}

func (f *fakeOrders) UpsertItem(_ context.Context, orderID, productID uuid.UUID, qty int, unitPrice int64) error {
	f.upserts++
	for i := range f.items {
		if f.items[i].ProductID == productID {
			f.items[i].Qty += qty
			return nil
		}
	}
	f.items = append(f.items, repo.OrderItemDetail{
		OrderItem: repo.OrderItem{ID: uuid.New(), OrderID: orderID, ProductID: productID, Qty: qty, UnitPrice: unitPrice},
	})
	return nil
}

type fakeEnqueuer struct {
	enqueued []uuid.UUID
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, orderID uuid.UUID) error {
	f.enqueued = append(f.enqueued, orderID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeProducts, *fakeOrders, *fakeEnqueuer) {
	t.Helper()
	products := &fakeProducts{byCode: map[string]repo.Product{
		"bk-001":  {ID: uuid.New(), Code: "bk-001", Name: "The Odyssey", Type: "book", Price: 995},
		"aud-001": {ID: uuid.New(), Code: "aud-001", Name: "A Study in Scarlet", Type: "audio", Price: 1290},
	}}
	orders := &fakeOrders{}
	enqueuer := &fakeEnqueuer{}
	svc := NewService(ServiceConfig{
		Products: products,
		Orders:   orders,
		Enqueuer: enqueuer,
		Limits:   DefaultLimits,
		Logger:   zerolog.Nop(),
	})
	return svc, products, orders, enqueuer
}

func requireCartLimit(t *testing.T, err error) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 422, appErr.HTTPStatus)
	require.Equal(t, "CART_LIMIT", appErr.Code)
}

func TestAddProductCreatesOpenOrder(t *testing.T) {
	svc, _, orders, enqueuer := newTestService(t)

	result, err := svc.AddProduct(context.Background(), "bk-001", 2)
	require.NoError(t, err)
	require.Equal(t, 1, orders.created)
	require.Equal(t, 2, result.Quantity)
	require.Equal(t, []uuid.UUID{result.OrderID}, enqueuer.enqueued)

	// second add reuses the open order
	again, err := svc.AddProduct(context.Background(), "aud-001", 1)
	require.NoError(t, err)
	require.Equal(t, 1, orders.created)
	require.Equal(t, result.OrderID, again.OrderID)
}

func TestAddProductAccumulatesLineQuantity(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.AddProduct(context.Background(), "bk-001", 3)
	require.NoError(t, err)
	result, err := svc.AddProduct(context.Background(), "bk-001", 4)
	require.NoError(t, err)
	require.Equal(t, 7, result.Quantity)
}

func TestAddProductUnknownCode(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.AddProduct(context.Background(), "missing", 1)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestAddProductBelowMinimum(t *testing.T) {
	svc, _, orders, _ := newTestService(t)
	_, err := svc.AddProduct(context.Background(), "bk-001", 0)
	requireCartLimit(t, err)
	require.Equal(t, 0, orders.upserts)
}

func TestAddProductOverItemMaximum(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.AddProduct(context.Background(), "bk-001", 15)
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), "bk-001", 6)
	requireCartLimit(t, err)
}

func TestAddProductOverTotalMaximum(t *testing.T) {
	svc, products, _, _ := newTestService(t)
	products.byCode["bk-002"] = repo.Product{ID: uuid.New(), Code: "bk-002", Type: "book", Price: 450}

	_, err := svc.AddProduct(context.Background(), "bk-001", 20)
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), "aud-001", 20)
	require.NoError(t, err)
	_, err = svc.AddProduct(context.Background(), "bk-002", 11)
	requireCartLimit(t, err)
}

func TestAddProductOverDistinctMaximum(t *testing.T) {
	svc, products, _, _ := newTestService(t)
	for i, code := range []string{"p1", "p2", "p3", "p4", "p5"} {
		products.byCode[code] = repo.Product{ID: uuid.New(), Code: code, Type: "book", Price: int64(100 + i)}
		_, err := svc.AddProduct(context.Background(), code, 1)
		require.NoError(t, err)
	}
	_, err := svc.AddProduct(context.Background(), "bk-001", 1)
	requireCartLimit(t, err)
}
