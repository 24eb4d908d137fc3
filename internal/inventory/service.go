// Package inventory covers back-office stock control: manual adjustments,
// low-stock reporting and the alert that fires when a variant runs down.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/orgofarm-labs/backend-orgofarm/internal/events"
	"github.com/orgofarm-labs/backend-orgofarm/internal/lock"
	"github.com/orgofarm-labs/backend-orgofarm/internal/obs"
	"github.com/orgofarm-labs/backend-orgofarm/internal/store"
)

// ErrZeroDelta is returned when an adjustment would not change anything.
var ErrZeroDelta = errors.New("stock delta must be non-zero")

type stockStore interface {
	GetVariantDetail(ctx context.Context, id pgtype.UUID) (store.VariantDetail, error)
	AdjustStock(ctx context.Context, variantID pgtype.UUID, delta int32) (int32, error)
	ListLowStockVariants(ctx context.Context, threshold int32) ([]store.VariantDetail, error)
}

// AlertEnqueuer schedules the low-stock notification task.
type AlertEnqueuer interface {
	EnqueueLowStockAlert(ctx context.Context, variantID, name string, stock int32) error
}

// Service applies stock changes under a distributed lock so API and worker
// writers never interleave on the same variant.
type Service struct {
	Q            stockStore
	Locker       lock.Locker
	LockTTL      time.Duration
	LowThreshold int32
	Events       *events.Bus
	Alerts       AlertEnqueuer
	Log          zerolog.Logger
}

// Adjustment is the outcome of a stock change.
type Adjustment struct {
	VariantID string `json:"variantId"`
	Delta     int32  `json:"delta"`
	Stock     int32  `json:"stock"`
	Low       bool   `json:"low"`
}

// Adjust applies a signed delta to a variant's stock. Stock never goes below
// zero. Crossing the low-stock threshold raises the alert once per call.
func (s *Service) Adjust(ctx context.Context, variantID pgtype.UUID, delta int32) (Adjustment, error) {
	if delta == 0 {
		return Adjustment{}, ErrZeroDelta
	}
	id := store.UUIDString(variantID)
	var adj Adjustment
	run := func(ctx context.Context) error {
		detail, err := s.Q.GetVariantDetail(ctx, variantID)
		if err != nil {
			return err
		}
		remaining, err := s.Q.AdjustStock(ctx, variantID, delta)
		if err != nil {
			return err
		}
		adj = Adjustment{VariantID: id, Delta: delta, Stock: remaining}
		if remaining <= s.LowThreshold && detail.Stock > s.LowThreshold {
			adj.Low = true
			s.raiseLowStock(ctx, detail, remaining)
		}
		return nil
	}
	var err error
	if s.Locker.R != nil {
		err = s.Locker.WithLock(ctx, lock.StockKey(id), s.LockTTL, run)
	} else {
		err = run(ctx)
	}
	return adj, err
}

// LowStock lists every variant at or under the alert threshold.
func (s *Service) LowStock(ctx context.Context) ([]store.VariantDetail, error) {
	return s.Q.ListLowStockVariants(ctx, s.LowThreshold)
}

func (s *Service) raiseLowStock(ctx context.Context, detail store.VariantDetail, remaining int32) {
	if obs.StockLowTotal != nil {
		obs.StockLowTotal.Inc()
	}
	s.Log.Warn().
		Str("variant_id", store.UUIDString(detail.ID)).
		Str("product", detail.ProductName).
		Int32("stock", remaining).
		Msg("variant crossed low-stock threshold")
	if s.Events != nil {
		_, _ = s.Events.Emit(ctx, events.TopicStockLow, detail.ID, map[string]any{
			"variantId": store.UUIDString(detail.ID),
			"product":   detail.ProductName,
			"packSize":  detail.PackSize,
			"stock":     remaining,
		})
	}
	if s.Alerts != nil {
		if err := s.Alerts.EnqueueLowStockAlert(ctx, store.UUIDString(detail.ID), detail.ProductName, remaining); err != nil {
			s.Log.Warn().Err(err).Msg("low-stock alert enqueue failed")
		}
	}
}
