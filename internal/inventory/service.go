// Package inventory is the sole manual entry point for stock changes
// outside the order and payment paths. It shares the non-negative
// stock invariant with those paths by using the same conditional-write
// primitive on the products table.
package inventory

import (
	"context"
	"log"

	"github.com/xact-softwaresolution/e-cart/internal/apperr"
	"github.com/xact-softwaresolution/e-cart/internal/catalog"
	"github.com/xact-softwaresolution/e-cart/internal/db"
)

type Reason string

const (
	ReasonRestock    Reason = "RESTOCK"
	ReasonDamage     Reason = "DAMAGE"
	ReasonLost       Reason = "LOST"
	ReasonAdjustment Reason = "ADJUSTMENT"
)

func ParseReason(s string) (Reason, error) {
	switch Reason(s) {
	case ReasonRestock, ReasonDamage, ReasonLost, ReasonAdjustment:
		return Reason(s), nil
	case "":
		return ReasonAdjustment, nil
	}
	return "", apperr.Newf(apperr.KindValidation, "invalid inventory reason %q", s)
}

type EventPublisher interface {
	PublishStockAdjusted(ctx context.Context, p catalog.Product, delta int, reason Reason) error
}

type Service struct {
	pool     db.Pool
	products *catalog.Repository
	events   EventPublisher
	logger   *log.Logger
}

func NewService(pool db.Pool, events EventPublisher, logger *log.Logger) *Service {
	return &Service{
		pool:     pool,
		products: catalog.NewRepository(),
		events:   events,
		logger:   logger,
	}
}

// Adjust applies a signed delta to a product's stock. The non-negative
// guard sits in the UPDATE predicate, so a rejected adjustment leaves
// stock untouched even under concurrent writers.
func (s *Service) Adjust(ctx context.Context, productID string, delta int, reason Reason) (catalog.Product, error) {
	if _, err := ParseReason(string(reason)); err != nil {
		return catalog.Product{}, err
	}

	p, ok, err := s.products.AdjustStock(ctx, s.pool, productID, delta)
	if err != nil {
		return catalog.Product{}, err
	}
	if !ok {
		// Zero rows: either the product is missing or the delta would
		// drive stock negative. Tell them apart with a plain read.
		if _, err := s.products.Get(ctx, s.pool, productID); err != nil {
			if err == catalog.ErrNotFound {
				return catalog.Product{}, apperr.New(apperr.KindNotFound, "product not found")
			}
			return catalog.Product{}, err
		}
		return catalog.Product{}, apperr.New(apperr.KindConflict, "insufficient stock for this operation")
	}

	if s.events != nil {
		if err := s.events.PublishStockAdjusted(ctx, p, delta, reason); err != nil {
			s.logger.Printf("publish stock.adjusted for %s: %v", p.ID, err)
		}
	}
	return p, nil
}

func (s *Service) Report(ctx context.Context, lowStockThreshold int) (catalog.Report, error) {
	return s.products.Report(ctx, s.pool, lowStockThreshold)
}

func (s *Service) LowStock(ctx context.Context, threshold int) ([]catalog.Product, error) {
	return s.products.ListLowStock(ctx, s.pool, threshold)
}
