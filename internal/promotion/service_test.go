package promotion

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-bookshop/internal/common"
	"github.com/noah-isme/backend-bookshop/internal/repo"
)

type fakePromoQueries struct {
	promos    map[uuid.UUID]repo.Promotion
	assigned  map[uuid.UUID]bool
	positions []int
	nextPos   int
}

func newFakePromoQueries() *fakePromoQueries {
	return &fakePromoQueries{
		promos:   map[uuid.UUID]repo.Promotion{},
		assigned: map[uuid.UUID]bool{},
		nextPos:  1,
	}
}

func (f *fakePromoQueries) Get(_ context.Context, id uuid.UUID) (repo.Promotion, error) {
	p, ok := f.promos[id]
	if !ok {
		return repo.Promotion{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakePromoQueries) List(context.Context) ([]repo.Promotion, error) {
	out := make([]repo.Promotion, 0, len(f.promos))
	for _, p := range f.promos {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePromoQueries) Insert(_ context.Context, p repo.Promotion) (uuid.UUID, error) {
	id := uuid.New()
	p.ID = id
	f.promos[id] = p
	return id, nil
}

func (f *fakePromoQueries) Assign(_ context.Context, _, promotionID uuid.UUID, position int) error {
	if f.assigned[promotionID] {
		return repo.ErrDuplicate
	}
	f.assigned[promotionID] = true
	f.positions = append(f.positions, position)
	return nil
}

func (f *fakePromoQueries) NextPosition(context.Context, uuid.UUID) (int, error) {
	return f.nextPos, nil
}

type fakeOrderStore struct {
	orderID    uuid.UUID
	orderPromo *uuid.UUID
}

func (f *fakeOrderStore) Get(_ context.Context, id uuid.UUID) (repo.Order, error) {
	if id != f.orderID {
		return repo.Order{}, repo.ErrNotFound
	}
	return repo.Order{ID: id, Status: repo.OrderStatusOpen}, nil
}

func (f *fakeOrderStore) SetOrderPromotion(_ context.Context, _, promotionID uuid.UUID) error {
	f.orderPromo = &promotionID
	return nil
}

type fakeEnqueuer struct {
	enqueued []uuid.UUID
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, orderID uuid.UUID) error {
	f.enqueued = append(f.enqueued, orderID)
	return nil
}

func newTestService(t *testing.T) (*Service, *fakePromoQueries, *fakeOrderStore, *fakeEnqueuer) {
	t.Helper()
	queries := newFakePromoQueries()
	orders := &fakeOrderStore{orderID: uuid.New()}
	enqueuer := &fakeEnqueuer{}
	svc := NewService(ServiceConfig{Queries: queries, Orders: orders, Enqueuer: enqueuer, Logger: zerolog.Nop()})
	return svc, queries, orders, enqueuer
}

func TestCreateRejectsFilteredOrderPromotion(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), CreateInput{
		Name: "sitewide", Type: TypeOrder, Percent: 10, ProductTypes: []string{"book"},
	})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 422, appErr.HTTPStatus)
}

func TestAssignOrderPromotionReplacesCurrent(t *testing.T) {
	svc, _, orders, enqueuer := newTestService(t)
	first, err := svc.Create(context.Background(), CreateInput{Name: "a", Type: TypeOrder, Percent: 10})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), CreateInput{Name: "b", Type: TypeOrder, Percent: 20})
	require.NoError(t, err)

	require.NoError(t, svc.Assign(context.Background(), orders.orderID, first.ID))
	require.NoError(t, svc.Assign(context.Background(), orders.orderID, second.ID))

	require.NotNil(t, orders.orderPromo)
	require.Equal(t, second.ID, *orders.orderPromo)
	require.Len(t, enqueuer.enqueued, 2)
}

func TestAssignItemPromotionAppendsAtNextPosition(t *testing.T) {
	svc, queries, orders, _ := newTestService(t)
	promo, err := svc.Create(context.Background(), CreateInput{Name: "books", Type: TypeItem, Percent: 15, ProductTypes: []string{"book"}})
	require.NoError(t, err)
	queries.nextPos = 3

	require.NoError(t, svc.Assign(context.Background(), orders.orderID, promo.ID))
	require.Equal(t, []int{3}, queries.positions)
}

func TestAssignDuplicateItemPromotionIsIdempotent(t *testing.T) {
	svc, queries, orders, enqueuer := newTestService(t)
	promo, err := svc.Create(context.Background(), CreateInput{Name: "books", Type: TypeItem, Percent: 15})
	require.NoError(t, err)

	require.NoError(t, svc.Assign(context.Background(), orders.orderID, promo.ID))
	require.NoError(t, svc.Assign(context.Background(), orders.orderID, promo.ID))
	require.Len(t, queries.positions, 1)
	// the duplicate changes nothing, so no second reprice is scheduled
	require.Len(t, enqueuer.enqueued, 1)
}

func TestAssignUnknownPromotionType(t *testing.T) {
	svc, queries, orders, _ := newTestService(t)
	id := uuid.New()
	queries.promos[id] = repo.Promotion{ID: id, Name: "legacy", Type: "bundle", Percent: 5}

	err := svc.Assign(context.Background(), orders.orderID, id)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, 422, appErr.HTTPStatus)
	require.Equal(t, "UNKNOWN_PROMOTION_TYPE", appErr.Code)
}

func TestAssignUnknownOrder(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	err := svc.Assign(context.Background(), uuid.New(), uuid.New())
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
}
