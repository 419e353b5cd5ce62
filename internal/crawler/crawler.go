package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/extract"
	"github.com/JakeFAU/skiresort-ranker/internal/fetcher"
	"github.com/JakeFAU/skiresort-ranker/internal/metrics"
	"github.com/JakeFAU/skiresort-ranker/internal/resort"
)

// PageFetcher retrieves one listing page.
type PageFetcher interface {
	Fetch(ctx context.Context, address string) (fetcher.Page, error)
}

// Run is the outcome of one crawl.
type Run struct {
	ID          uuid.UUID
	Address     string
	Records     []resort.Record
	PageCount   int
	PagesOK     int
	PagesFailed int
	Accepted    int
	Rejected    int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Crawler orchestrates fetch, extraction and validation for a listing.
type Crawler struct {
	fetcher   PageFetcher
	extractor extract.Extractor
	logger    *zap.Logger
	newID     func() (uuid.UUID, error)
	now       func() time.Time
}

// New creates a Crawler. A nil logger disables logging.
func New(f PageFetcher, ex extract.Extractor, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{
		fetcher:   f,
		extractor: ex,
		logger:    logger,
		newID:     uuid.NewV7,
		now:       time.Now,
	}
}

// Crawl fetches every page of the listing at start and returns the records
// that passed validation, in page order then in-page order. Only a failure to
// fetch the first page is returned as an error.
func (c *Crawler) Crawl(ctx context.Context, start string) (Run, error) {
	start = strings.Trim(strings.TrimSpace(start), "/")
	if start == "" {
		return Run{}, errors.New("crawl address is required")
	}
	id, err := c.newID()
	if err != nil {
		return Run{}, fmt.Errorf("generate run id: %w", err)
	}
	run := Run{ID: id, Address: start, StartedAt: c.now()}
	logger := c.logger.With(zap.String("run_id", id.String()), zap.String("address", start))
	logger.Info("crawl started")

	first, err := c.fetcher.Fetch(ctx, PageAddress{Base: start, Page: 1}.String())
	if err != nil {
		metrics.ObserveCrawlRun("failed")
		logger.Error("failed to fetch first page", zap.Error(err))
		return Run{}, fmt.Errorf("fetch first page of %s: %w", start, err)
	}

	doc, parseErr := parse(first)
	run.PageCount = 1
	if parseErr == nil {
		count, err := c.extractor.PageCount(doc)
		if err != nil {
			logger.Warn("could not read page count, crawling first page only", zap.Error(err))
			count = 1
		}
		run.PageCount = count
	}
	logger.Info("first page retrieved", zap.Int("pages", run.PageCount))
	c.collect(&run, logger, 1, doc, parseErr)

	for _, addr := range Pages(start, run.PageCount) {
		if err := ctx.Err(); err != nil {
			metrics.ObserveCrawlRun("canceled")
			return Run{}, fmt.Errorf("crawl of %s interrupted: %w", start, err)
		}
		logger.Debug("fetching page", zap.Int("page", addr.Page))
		page, err := c.fetcher.Fetch(ctx, addr.String())
		if err != nil {
			c.skip(&run, logger, addr.Page, err)
			continue
		}
		pageDoc, err := parse(page)
		c.collect(&run, logger, addr.Page, pageDoc, err)
	}

	run.FinishedAt = c.now()
	metrics.ObserveCrawlRun("completed")
	logger.Info("crawl finished",
		zap.Int("pages", run.PageCount),
		zap.Int("pages_ok", run.PagesOK),
		zap.Int("pages_failed", run.PagesFailed),
		zap.Int("records_accepted", run.Accepted),
		zap.Int("records_rejected", run.Rejected),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)
	return run, nil
}

// collect extracts and validates one parsed page into run.
func (c *Crawler) collect(run *Run, logger *zap.Logger, n int, doc *goquery.Document, parseErr error) {
	if parseErr != nil {
		c.skip(run, logger, n, parseErr)
		return
	}
	raws, err := c.extractor.Extract(doc)
	if err != nil {
		c.skip(run, logger, n, err)
		return
	}

	accepted, rejected := 0, 0
	for _, raw := range raws {
		rec, err := resort.Validate(raw)
		if err != nil {
			rejected++
			logger.Info("found incorrectly formatted information",
				zap.Int("page", n),
				zap.String("resort", raw.Name),
				zap.Error(err),
			)
			continue
		}
		accepted++
		run.Records = append(run.Records, rec)
	}
	run.PagesOK++
	run.Accepted += accepted
	run.Rejected += rejected
	metrics.ObservePage("ok")
	metrics.ObserveRecords(accepted, rejected)
}

func (c *Crawler) skip(run *Run, logger *zap.Logger, n int, err error) {
	run.PagesFailed++
	metrics.ObservePage("skipped")
	logger.Warn("skipping page", zap.Int("page", n), zap.Error(err))
}

func parse(page fetcher.Page) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.Address, err)
	}
	return doc, nil
}
