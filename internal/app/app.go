// Package app builds the long-lived dependencies shared by the skiranker
// commands and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/config"
	"github.com/JakeFAU/skiresort-ranker/internal/crawler"
	"github.com/JakeFAU/skiresort-ranker/internal/extract"
	"github.com/JakeFAU/skiresort-ranker/internal/fetcher"
	"github.com/JakeFAU/skiresort-ranker/internal/publisher"
	memorypublisher "github.com/JakeFAU/skiresort-ranker/internal/publisher/memory"
	gcppublisher "github.com/JakeFAU/skiresort-ranker/internal/publisher/pubsub"
	"github.com/JakeFAU/skiresort-ranker/internal/ranking"
	"github.com/JakeFAU/skiresort-ranker/internal/routing"
	"github.com/JakeFAU/skiresort-ranker/internal/storage"
	gcsstorage "github.com/JakeFAU/skiresort-ranker/internal/storage/gcs"
	"github.com/JakeFAU/skiresort-ranker/internal/storage/jsonfile"
	localstorage "github.com/JakeFAU/skiresort-ranker/internal/storage/local"
	memorystorage "github.com/JakeFAU/skiresort-ranker/internal/storage/memory"
	pgstore "github.com/JakeFAU/skiresort-ranker/internal/storage/postgres"
)

// ResortStore is a queryable store that can report its health.
type ResortStore interface {
	storage.Store
	Ping(ctx context.Context) error
}

// App holds configuration, the logger and every resource that must be
// released on shutdown.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	closers []func()
}

// New creates an App. A nil logger disables logging.
func New(cfg config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{cfg: cfg, logger: logger}
}

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// NewCrawler builds the listing crawler from the crawler settings.
func (a *App) NewCrawler() (*crawler.Crawler, error) {
	f, err := fetcher.New(fetcher.Config{
		BaseURL:         a.cfg.Crawler.BaseURL,
		UserAgent:       a.cfg.Crawler.UserAgent,
		RedirectAllowed: a.cfg.Crawler.RedirectAllowed,
		Delay:           a.cfg.FetchDelay(),
		Timeout:         a.cfg.Crawler.RequestTimeout,
	}, a.logger.Named("fetcher"))
	if err != nil {
		return nil, fmt.Errorf("fetcher init failed: %w", err)
	}
	a.logger.Debug("crawler configured",
		zap.String("base_url", a.cfg.Crawler.BaseURL),
		zap.Bool("redirect_allowed", a.cfg.Crawler.RedirectAllowed),
		zap.Duration("delay", a.cfg.FetchDelay()),
	)
	return crawler.New(f, extract.NewSkiresort(a.logger.Named("extract")), a.logger.Named("crawler")), nil
}

// NewSink selects where crawl results are persisted: the Postgres table store
// for table output, or a JSON document on the configured blob backend.
func (a *App) NewSink(ctx context.Context) (storage.Sink, error) {
	if a.cfg.Crawler.OutputFormat == config.OutputTable {
		if a.cfg.DB.DSN == "" {
			return nil, errors.New("db.dsn is required for table output; use --json for file output")
		}
		return a.newPostgres(ctx)
	}
	blobs, err := a.newBlobStore(ctx)
	if err != nil {
		return nil, err
	}
	sink, err := jsonfile.New(blobs, a.cfg.Storage.Prefix, a.logger.Named("jsonfile"))
	if err != nil {
		return nil, fmt.Errorf("json sink init failed: %w", err)
	}
	return sink, nil
}

// NewStore returns the store the ranking API reads from. Without a DSN it
// falls back to an empty in-memory store so the server can still start.
func (a *App) NewStore(ctx context.Context) (ResortStore, error) {
	if a.cfg.DB.DSN == "" {
		a.logger.Warn("No DSN specified for database, using in-memory resort store")
		return memorystorage.NewResortStore(), nil
	}
	return a.newPostgres(ctx)
}

func (a *App) newPostgres(ctx context.Context) (*pgstore.ResortStore, error) {
	store, err := pgstore.New(ctx, pgstore.Config{
		DSN:      a.cfg.DB.DSN,
		MaxConns: a.cfg.DB.MaxConns,
		MinConns: a.cfg.DB.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("resort store init failed: %w", err)
	}
	a.onClose(store.Close)
	a.logger.Info("postgres resort store initialized")
	return store, nil
}

func (a *App) newBlobStore(ctx context.Context) (storage.BlobStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendGCS:
		a.logger.Info("using GCS storage backend", zap.String("bucket", a.cfg.Storage.GCSBucket))
		blobs, err := gcsstorage.Dial(ctx, gcsstorage.Config{Bucket: a.cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		a.onClose(func() {
			if err := blobs.Close(); err != nil {
				a.logger.Warn("gcs client close failed", zap.Error(err))
			}
		})
		return blobs, nil
	case config.BackendLocal:
		a.logger.Info("using local storage backend", zap.String("path", a.cfg.Storage.BaseDir))
		blobs, err := localstorage.New(localstorage.Config{BaseDir: a.cfg.Storage.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		return blobs, nil
	default:
		a.logger.Info("using in-memory storage backend")
		return memorystorage.NewBlobStore(), nil
	}
}

// NewPublisher returns the crawl notification publisher. Without a Pub/Sub
// topic it uses the in-memory publisher.
func (a *App) NewPublisher(ctx context.Context) (publisher.Publisher, error) {
	if a.cfg.PubSub.TopicName == "" || a.cfg.PubSub.ProjectID == "" {
		a.logger.Debug("No Pub/Sub topic configured, using in-memory publisher")
		return memorypublisher.New(memorypublisher.DefaultHistory, a.logger.Named("events")), nil
	}
	client, err := pubsub.NewClient(ctx, a.cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("pubsub client init failed: %w", err)
	}
	pub := gcppublisher.New(client.Publisher(a.cfg.PubSub.TopicName))
	a.onClose(func() {
		pub.Stop()
		if err := client.Close(); err != nil {
			a.logger.Warn("pubsub client close failed", zap.Error(err))
		}
	})
	a.logger.Info(
		"Pub/Sub publisher initialized",
		zap.String("project", a.cfg.PubSub.ProjectID),
		zap.String("topic", a.cfg.PubSub.TopicName),
	)
	return pub, nil
}

// NewRanker wires the routing client, the enricher and the ranking service
// over store.
func (a *App) NewRanker(store storage.Store) (*ranking.Service, error) {
	router, err := routing.New(routing.Config{
		BaseURL:    a.cfg.Routing.BaseURL,
		APIKey:     a.cfg.Routing.APIKey,
		APIKeyFile: a.cfg.Routing.APIKeyFile,
		Timeout:    a.cfg.Routing.Timeout,
	}, a.logger.Named("routing"))
	if err != nil {
		return nil, fmt.Errorf("routing client init failed: %w", err)
	}
	enricher := ranking.NewEnricher(router, a.logger.Named("enricher"))
	return ranking.NewService(store, enricher, ranking.Config{
		Limit:          a.cfg.Ranking.Limit,
		EfficiencyPool: a.cfg.Ranking.EfficiencyPool,
	}, a.logger.Named("ranking")), nil
}
