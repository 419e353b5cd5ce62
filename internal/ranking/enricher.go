package ranking

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/skiresort-ranker/internal/region"
	"github.com/JakeFAU/skiresort-ranker/internal/resort"
)

// Router returns the one-way driving time from origin to a named place.
type Router interface {
	TravelTime(ctx context.Context, origin region.Coordinate, destination string) (time.Duration, error)
}

// RankedResort is a stored record plus request-scoped travel data. Both
// pointers are nil when routing failed for this resort.
type RankedResort struct {
	resort.Record
	TravelTime *time.Duration
	Efficiency *float64
}

// EnrichmentFailed reports whether no travel time could be obtained.
func (r RankedResort) EnrichmentFailed() bool {
	return r.TravelTime == nil
}

// Efficiency is drop divided by round-trip hours, rounded to two decimals.
// It returns nil for a zero or negative travel time.
func Efficiency(drop float64, oneWay time.Duration) *float64 {
	hours := oneWay.Hours() * 2
	if hours <= 0 {
		return nil
	}
	v := math.Round(drop/hours*100) / 100
	return &v
}

// Enricher attaches travel data to records.
type Enricher struct {
	router Router
	logger *zap.Logger
}

// NewEnricher builds an Enricher. A nil logger disables logging.
func NewEnricher(router Router, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{router: router, logger: logger}
}

// Enrich issues one routing request per record, all at once, and waits for
// every one of them. The output keeps the input order and length; a failed
// request leaves that resort's travel fields nil. Only cancellation of ctx is
// returned as an error.
func (e *Enricher) Enrich(ctx context.Context, origin region.Coordinate, records []resort.Record) ([]RankedResort, error) {
	out := make([]RankedResort, len(records))
	var g errgroup.Group
	for i, rec := range records {
		out[i].Record = rec
		g.Go(func() error {
			d, err := e.router.TravelTime(ctx, origin, rec.Name)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.logger.Warn("failed to get travel time",
					zap.String("resort", rec.Name),
					zap.String("origin", origin.String()),
					zap.Error(err),
				)
				return nil
			}
			out[i].TravelTime = &d
			out[i].Efficiency = Efficiency(rec.Drop, d)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("enrich interrupted: %w", err)
	}
	return out, nil
}
