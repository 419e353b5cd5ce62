// Package memory keeps crawl events in process, for development runs without
// a Pub/Sub topic and for tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/skiresort-ranker/internal/publisher"
)

// DefaultHistory is how many events a Publisher retains when no size is given.
const DefaultHistory = 100

// Message is one retained publish call.
type Message struct {
	ID          string
	Topic       string
	Payload     any
	PublishedAt time.Time
}

// Publisher retains the most recent events and the latest refresh per region.
type Publisher struct {
	mu      sync.RWMutex
	history int
	log     []Message
	latest  map[string]publisher.RegionRefreshed
	logger  *zap.Logger
	now     func() time.Time
}

var _ publisher.Publisher = (*Publisher)(nil)

// New returns a Publisher keeping up to history events (DefaultHistory when
// history <= 0). Events are logged at debug level.
func New(history int, logger *zap.Logger) *Publisher {
	if history <= 0 {
		history = DefaultHistory
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		history: history,
		latest:  make(map[string]publisher.RegionRefreshed),
		logger:  logger,
		now:     time.Now,
	}
}

// Publish records the event and returns a UUIDv7 message id. The oldest
// event is dropped once history is full.
func (p *Publisher) Publish(_ context.Context, topic string, payload any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	msg := Message{ID: id.String(), Topic: topic, Payload: payload, PublishedAt: p.now()}

	p.mu.Lock()
	if len(p.log) == p.history {
		p.log = append(p.log[:0], p.log[1:]...)
	}
	p.log = append(p.log, msg)
	if ev, ok := payload.(publisher.RegionRefreshed); ok {
		p.latest[ev.Key] = ev
	}
	p.mu.Unlock()

	p.logger.Debug("event published",
		zap.String("message_id", msg.ID),
		zap.String("topic", topic),
	)
	return msg.ID, nil
}

// Messages returns the retained events, oldest first.
func (p *Publisher) Messages() []Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Message, len(p.log))
	copy(out, p.log)
	return out
}

// LatestRefresh returns the most recent RegionRefreshed event for key.
func (p *Publisher) LatestRefresh(key string) (publisher.RegionRefreshed, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ev, ok := p.latest[key]
	return ev, ok
}
