package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/crawler"
	"github.com/JakeFAU/skiresort-ranker/internal/publisher"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
)

// Crawler produces the records of one listing.
type Crawler interface {
	Crawl(ctx context.Context, start string) (crawler.Run, error)
}

// Refresher runs a crawl and replaces the region's stored records with the
// result, then announces the refresh.
type Refresher struct {
	crawler     Crawler
	sink        storage.Sink
	publisher   publisher.Publisher
	destination string
	logger      *zap.Logger
}

// NewRefresher wires a Refresher. destination names the sink in logs and
// events ("table" or "json"). A nil publisher disables events.
func NewRefresher(
	c Crawler,
	sink storage.Sink,
	pub publisher.Publisher,
	destination string,
	logger *zap.Logger,
) *Refresher {
	if pub == nil {
		pub = publisher.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		crawler:     c,
		sink:        sink,
		publisher:   pub,
		destination: destination,
		logger:      logger,
	}
}

// Refresh crawls address and persists the records under the crawl's address.
// Crawl and persistence failures are returned; a failed notification is
// only logged.
func (r *Refresher) Refresh(ctx context.Context, address string) (crawler.Run, error) {
	run, err := r.crawler.Crawl(ctx, address)
	if err != nil {
		return crawler.Run{}, err
	}
	logger := r.logger.With(zap.String("run_id", run.ID.String()), zap.String("address", run.Address))

	if err := r.sink.ReplaceRegion(ctx, run.Address, run.Records); err != nil {
		logger.Error("failed to persist crawl results", zap.String("destination", r.destination), zap.Error(err))
		return run, fmt.Errorf("persist %s: %w", run.Address, err)
	}
	logger.Info("region refreshed",
		zap.String("destination", r.destination),
		zap.Int("records", len(run.Records)),
	)

	event := publisher.RegionRefreshed{
		RunID:       run.ID.String(),
		Key:         run.Address,
		Destination: r.destination,
		Records:     len(run.Records),
		Rejected:    run.Rejected,
		Pages:       run.PageCount,
		PagesFailed: run.PagesFailed,
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
	}
	id, err := r.publisher.Publish(ctx, publisher.TopicRegionRefreshed, event)
	if err != nil {
		logger.Warn("failed to publish region refresh", zap.Error(err))
		return run, nil
	}
	logger.Debug("region refresh published", zap.String("message_id", id))
	return run, nil
}
