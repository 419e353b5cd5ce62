// Package fetcher retrieves listing pages with gocolly and enforces the
// status and redirect policy of the crawl.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/metrics"
)

// Config controls collector behavior.
type Config struct {
	// BaseURL is prefixed to every address and bounds where responses may land.
	BaseURL         string
	UserAgent       string
	RedirectAllowed bool
	// Delay is waited before every request when positive.
	Delay   time.Duration
	Timeout time.Duration
}

// Page is a successfully fetched listing page.
type Page struct {
	Address    string
	URL        string
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Fetcher performs single page fetches against the configured site.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	pause         func(ctx context.Context, d time.Duration) error
	logger        *zap.Logger
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("fetcher base url is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []colly.CollectorOption{
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.WithTransport(newHTTPTransport())

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c.SetRequestTimeout(timeout)

	if !cfg.RedirectAllowed {
		// Surface the 3xx itself so the policy can reject it.
		c.SetRedirectHandler(func(_ *http.Request, _ []*http.Request) error {
			return http.ErrUseLastResponse
		})
	}

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		pause:         pause,
		logger:        logger,
	}, nil
}

// Fetch retrieves BaseURL+address. It does not retry.
func (f *Fetcher) Fetch(ctx context.Context, address string) (Page, error) {
	if err := f.pause(ctx, f.cfg.Delay); err != nil {
		return Page{}, &Error{Kind: KindUnknown, Address: address, Err: err}
	}

	target := f.cfg.BaseURL + address
	var (
		result   Page
		fetchErr error
	)
	start := time.Now()
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, address, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, target, &fetchErr); err != nil {
		metrics.ObserveFetch(KindUnknown.String())
		return Page{}, &Error{Kind: KindUnknown, Address: address, URL: target, Err: err}
	}

	if err := f.checkResponse(address, result); err != nil {
		var fErr *Error
		if errors.As(err, &fErr) {
			metrics.ObserveFetch(fErr.Kind.String())
		}
		f.logger.Debug("page rejected",
			zap.String("address", address),
			zap.String("final_url", result.URL),
			zap.Int("status_code", result.StatusCode),
			zap.Error(err),
		)
		return Page{}, err
	}
	metrics.ObserveFetch("ok")
	return result, nil
}

// checkResponse applies the acceptance policy: status 200 (or 301 when
// redirects are allowed), a final URL that still names the requested address
// (unless redirects are allowed), and a final URL under the base URL.
func (f *Fetcher) checkResponse(address string, page Page) error {
	status := page.StatusCode
	underBase := strings.HasPrefix(page.URL, f.cfg.BaseURL)
	namesAddress := strings.Contains(page.URL, address)

	statusOK := status == http.StatusOK || (status == http.StatusMovedPermanently && f.cfg.RedirectAllowed)
	if statusOK && (namesAddress || f.cfg.RedirectAllowed) && underBase {
		return nil
	}

	fErr := &Error{Address: address, URL: page.URL, StatusCode: status}
	switch {
	case status == http.StatusTooManyRequests:
		fErr.Kind = KindRateLimited
	case status == http.StatusNotFound:
		fErr.Kind = KindNotFound
	case !underBase:
		fErr.Kind = KindAddressMismatch
	case (status >= 300 && status < 400) || !namesAddress:
		fErr.Kind = KindRedirected
	default:
		fErr.Kind = KindUnknown
	}
	return fErr
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	address string,
	start time.Time,
	result *Page,
	fetchErr *error,
) {
	hooks.OnResponse(func(r *colly.Response) {
		*result = Page{
			Address:    address,
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

// pause waits for d or until ctx finishes.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch delay interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
