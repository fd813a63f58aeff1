// Package notify publishes arrangement events to Redis pub/sub.
//
// [Publisher] implements [observability.ArrangeHooks]. Hooks are called on
// the engine's goroutine inside an operation, so events are queued on a
// buffered channel and published by a single worker; when the queue is full
// events are dropped and counted rather than stalling the edit.
//
// Each message is one JSON [Event] on the configured channel:
//
//	{"type":"commit","op":"move","source":"cli","items":[...],"at":"..."}
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/cutline/pkg/observability"
	"github.com/matzehuels/cutline/pkg/timeline"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "cutline:events"

// DefaultQueue is the number of events buffered ahead of the worker.
const DefaultQueue = 256

const publishTimeout = 2 * time.Second

// Event types.
const (
	TypeCommit = "commit"
	TypeReject = "reject"
)

// Event is the JSON payload of one message.
type Event struct {
	Type   string      `json:"type"`
	Op     string      `json:"op"`
	Source string      `json:"source,omitempty"`
	Reason string      `json:"reason,omitempty"`
	Items  []EventItem `json:"items,omitempty"`
	At     time.Time   `json:"at"`
}

// EventItem is an item's committed state.
type EventItem struct {
	ID        int    `json:"id"`
	Name      string `json:"name,omitempty"`
	Kind      string `json:"kind"`
	Track     int    `json:"track"`
	Start     int64  `json:"start"`
	Duration  int64  `json:"duration"`
	CropStart int64  `json:"crop_start"`
}

func eventItems(items []timeline.Item) []EventItem {
	out := make([]EventItem, len(items))
	for i, it := range items {
		out[i] = EventItem{
			ID:        int(it.ID),
			Name:      it.Name,
			Kind:      it.Kind.String(),
			Track:     it.Track,
			Start:     int64(it.Span.Start),
			Duration:  int64(it.Span.Duration),
			CropStart: int64(it.CropStart),
		}
	}
	return out
}

// Client is the part of a Redis client the publisher needs.
// *redis.Client satisfies it.
type Client interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Options configures a Publisher.
type Options struct {
	Channel string
	// Source labels every event, for example a session ID.
	Source string
	Queue  int
	Logger *log.Logger
}

// Publisher queues arrangement events and publishes them from a worker
// goroutine.
type Publisher struct {
	rdb     Client
	channel string
	source  string
	logger  *log.Logger
	now     func() time.Time

	mu      sync.RWMutex
	closed  bool
	events  chan Event
	stopped chan struct{}

	published atomic.Int64
	dropped   atomic.Int64
}

var _ observability.ArrangeHooks = (*Publisher)(nil)

// NewPublisher starts a publisher on rdb. Call Close to flush and stop it.
func NewPublisher(rdb Client, opts Options) *Publisher {
	if opts.Channel == "" {
		opts.Channel = DefaultChannel
	}
	if opts.Queue <= 0 {
		opts.Queue = DefaultQueue
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	p := &Publisher{
		rdb:     rdb,
		channel: opts.Channel,
		source:  opts.Source,
		logger:  opts.Logger,
		now:     time.Now,
		events:  make(chan Event, opts.Queue),
		stopped: make(chan struct{}),
	}
	go p.run()
	return p
}

// Dial connects to Redis at addr and starts a publisher on it. The
// connection is checked with PING before returning.
func Dial(ctx context.Context, addr string, opts Options) (*Publisher, *redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return NewPublisher(rdb, opts), rdb, nil
}

// OnCommit implements observability.ArrangeHooks.
func (p *Publisher) OnCommit(op string, items []timeline.Item) {
	p.enqueue(Event{Type: TypeCommit, Op: op, Items: eventItems(items)})
}

// OnReject implements observability.ArrangeHooks.
func (p *Publisher) OnReject(op, reason string) {
	p.enqueue(Event{Type: TypeReject, Op: op, Reason: reason})
}

// OnSnapRebuild implements observability.ArrangeHooks. Rebuilds happen on
// every drag start and are logged, not published.
func (p *Publisher) OnSnapRebuild(points int, d time.Duration) {
	p.logger.Debug("snap index rebuilt", "points", points, "took", d)
}

func (p *Publisher) enqueue(ev Event) {
	ev.Source = p.source
	ev.At = p.now().UTC()
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.events <- ev:
	default:
		p.dropped.Add(1)
		p.logger.Warn("event queue full, dropping", "type", ev.Type, "op", ev.Op)
	}
}

func (p *Publisher) run() {
	defer close(p.stopped)
	for ev := range p.events {
		p.publish(ev)
	}
}

func (p *Publisher) publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("marshal event", "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.rdb.Publish(ctx, p.channel, string(data)).Err(); err != nil {
		p.logger.Warn("publish event", "channel", p.channel, "err", err)
		return
	}
	p.published.Add(1)
}

// Close stops accepting events, publishes what is queued and waits for the
// worker to finish or ctx to end.
func (p *Publisher) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.events)
	}
	p.mu.Unlock()
	select {
	case <-p.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the number of published and dropped events.
func (p *Publisher) Stats() (published, dropped int64) {
	return p.published.Load(), p.dropped.Load()
}
