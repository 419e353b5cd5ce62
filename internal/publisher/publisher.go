// Package publisher announces finished crawl runs to downstream consumers.
package publisher

import (
	"context"
	"time"
)

// TopicRegionRefreshed is the logical topic for RegionRefreshed events.
const TopicRegionRefreshed = "region-refreshed"

// Publisher sends a payload to a topic and returns the broker message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RegionRefreshed is emitted after a crawl run replaced a region's records.
type RegionRefreshed struct {
	RunID       string    `json:"run_id"`
	Key         string    `json:"key"`
	Destination string    `json:"destination"`
	Records     int       `json:"records"`
	Rejected    int       `json:"rejected"`
	Pages       int       `json:"pages"`
	PagesFailed int       `json:"pages_failed"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Noop discards every payload.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, string, any) (string, error) { return "", nil }
