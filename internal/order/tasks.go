package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/noah-isme/backend-bookshop/internal/common"
)

// TypeReprice is the asynq task type for background order repricing.
const TypeReprice = "order:reprice"

// RepricePayload is the JSON body of a reprice task.
type RepricePayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// NewRepriceTask builds an asynq task asking the worker to reprice an order.
func NewRepriceTask(orderID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(RepricePayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReprice, payload), nil
}

// RepriceEnqueuer enqueues reprice tasks after order mutations.
type RepriceEnqueuer struct {
	Client *asynq.Client
}

// Enqueue submits a reprice task for the order. A nil client is a no-op so
// callers keep working without the async pipeline.
func (e RepriceEnqueuer) Enqueue(ctx context.Context, orderID uuid.UUID) error {
	if e.Client == nil {
		return nil
	}
	task, err := NewRepriceTask(orderID)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, task, asynq.MaxRetry(5))
	return err
}

// HandleRepriceTask processes an order:reprice task. Orders deleted between
// enqueue and processing are dropped without retry. With a locker configured,
// concurrent tasks for the same order serialize instead of racing on the
// persisted totals.
func (s *Service) HandleRepriceTask(ctx context.Context, t *asynq.Task) error {
	var payload RepricePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode reprice payload: %v: %w", err, asynq.SkipRetry)
	}
	err := s.withRepriceLock(ctx, payload.OrderID, func(ctx context.Context) error {
		return s.Reprice(ctx, payload.OrderID)
	})
	if err != nil {
		var appErr *common.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return fmt.Errorf("order %s gone: %w", payload.OrderID, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

func (s *Service) withRepriceLock(ctx context.Context, orderID uuid.UUID, fn func(context.Context) error) error {
	if s.locker == nil {
		return fn(ctx)
	}
	return s.locker.WithLock(ctx, "reprice:order:"+orderID.String(), repriceLockTTL, fn)
}
