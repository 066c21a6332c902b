package store

import (
	"context"

	"github.com/sells-group/dedupe/internal/model"
	"github.com/sells-group/dedupe/internal/resilience"
)

// Guarded runs every data call of a remote Store through a circuit breaker.
// While the breaker is open calls fail with resilience.ErrCircuitOpen.
type Guarded struct {
	Store
	cb *resilience.CircuitBreaker
}

// NewGuarded wraps st with cb.
func NewGuarded(st Store, cb *resilience.CircuitBreaker) *Guarded {
	return &Guarded{Store: st, cb: cb}
}

func (g *Guarded) ListRecords(ctx context.Context, scope string) ([]model.Record, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) ([]model.Record, error) {
		return g.Store.ListRecords(ctx, scope)
	})
}

func (g *Guarded) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) (*model.Record, error) {
		return g.Store.GetRecord(ctx, id)
	})
}

func (g *Guarded) UpdateRecord(ctx context.Context, rec model.Record) error {
	return g.cb.Execute(ctx, func(ctx context.Context) error {
		return g.Store.UpdateRecord(ctx, rec)
	})
}

func (g *Guarded) DeleteRecords(ctx context.Context, ids []string) error {
	return g.cb.Execute(ctx, func(ctx context.Context) error {
		return g.Store.DeleteRecords(ctx, ids)
	})
}

func (g *Guarded) CreateRecord(ctx context.Context, rec model.Record) (*model.Record, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) (*model.Record, error) {
		return g.Store.CreateRecord(ctx, rec)
	})
}

func (g *Guarded) ImportRecords(ctx context.Context, recs []model.Record) (int, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) (int, error) {
		return g.Store.ImportRecords(ctx, recs)
	})
}
