package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/region"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

// SortFallHeight orders results by descent efficiency after enrichment.
const SortFallHeight = "fallHeight"

// DefaultEfficiencyPool is how many candidates are enriched before an
// efficiency sort is truncated.
const DefaultEfficiencyPool = 50

var (
	// ErrInvalidRegion is returned when the query names no supported region.
	ErrInvalidRegion = errors.New("invalid region")
	// ErrInvalidCoordinate is returned when the origin is missing or off the globe.
	ErrInvalidCoordinate = errors.New("invalid coordinates")
	// ErrDataUnavailable is returned when the region's records cannot be read.
	ErrDataUnavailable = errors.New("region data unavailable")
)

// Query is one ranking request. Sort and Order are raw caller input; unknown
// values fall back to diff and DESC.
type Query struct {
	Region region.Region
	Origin *region.Coordinate
	Sort   string
	Order  string
}

// Config sizes the result sets.
type Config struct {
	Limit          int
	EfficiencyPool int
}

// Service implements the ranking query.
type Service struct {
	store    storage.Store
	enricher *Enricher
	cfg      Config
	logger   *zap.Logger
}

// NewService builds a Service.
func NewService(store storage.Store, enricher *Enricher, cfg Config, logger *zap.Logger) *Service {
	if cfg.Limit <= 0 {
		cfg.Limit = storage.DefaultLimit
	}
	if cfg.EfficiencyPool < cfg.Limit {
		cfg.EfficiencyPool = max(DefaultEfficiencyPool, cfg.Limit)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, enricher: enricher, cfg: cfg, logger: logger}
}

// Rank returns the enriched top resorts of q.Region.
func (s *Service) Rank(ctx context.Context, q Query) ([]RankedResort, error) {
	if !q.Region.Valid() {
		return nil, ErrInvalidRegion
	}
	if q.Origin == nil {
		return nil, ErrInvalidCoordinate
	}
	origin, err := region.NewCoordinate(q.Origin.Latitude, q.Origin.Longitude)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCoordinate, err)
	}

	if strings.EqualFold(strings.TrimSpace(q.Sort), SortFallHeight) {
		return s.rankByEfficiency(ctx, q.Region, origin, q.Order)
	}

	records, err := s.store.Query(ctx, q.Region.String(), storage.NewSort(q.Sort, q.Order, s.cfg.Limit))
	if err != nil {
		s.logger.Error("failed to load region", zap.String("region", q.Region.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}
	ranked, err := s.enricher.Enrich(ctx, origin, records)
	if err != nil {
		return nil, err
	}
	return ranked, nil
}

// rankByEfficiency enriches the largest-drop candidates and orders them by
// efficiency. Resorts without an efficiency always sort last.
func (s *Service) rankByEfficiency(
	ctx context.Context,
	r region.Region,
	origin region.Coordinate,
	order string,
) ([]RankedResort, error) {
	pool := storage.Sort{Column: storage.ColumnDiff, Direction: storage.Desc, Limit: s.cfg.EfficiencyPool}
	records, err := s.store.Query(ctx, r.String(), pool)
	if err != nil {
		s.logger.Error("failed to load region", zap.String("region", r.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, err)
	}

	ranked, err := s.enricher.Enrich(ctx, origin, records)
	if err != nil {
		return nil, err
	}
	asc := false
	if d, ok := storage.ParseDirection(order); ok {
		asc = d == storage.Asc
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Efficiency, ranked[j].Efficiency
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		case asc:
			return *a < *b
		default:
			return *a > *b
		}
	})
	if len(ranked) > s.cfg.Limit {
		ranked = ranked[:s.cfg.Limit]
	}
	return ranked, nil
}
