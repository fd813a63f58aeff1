package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/cutline/pkg/timeline"
)

type fakeClient struct {
	mu       sync.Mutex
	channels []string
	messages []string
	err      error

	entered chan struct{} // receives once per Publish call when non-nil
	gate    chan struct{} // Publish waits on it when non-nil
}

func (f *fakeClient) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.channels = append(f.channels, channel)
	f.messages = append(f.messages, message.(string))
	return redis.NewIntResult(1, nil)
}

func (f *fakeClient) events(t *testing.T) []Event {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.messages))
	for i, m := range f.messages {
		if err := json.Unmarshal([]byte(m), &out[i]); err != nil {
			t.Fatalf("message %d is not an event: %v", i, err)
		}
	}
	return out
}

func quietLogger() *log.Logger { return log.New(io.Discard) }

func closePublisher(t *testing.T, p *Publisher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Close(ctx); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestPublisherEvents(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, Options{Source: "s1", Logger: quietLogger()})
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	moved := timeline.Item{
		ID: 7, Kind: timeline.KindClip, Name: "A", Track: 2,
		Span: timeline.Span{Start: 50, Duration: 100}, CropStart: 10,
	}
	p.OnCommit("move", []timeline.Item{moved})
	p.OnReject("resize-end", "out-of-bounds")
	p.OnSnapRebuild(12, time.Millisecond)
	closePublisher(t, p)

	got := fc.events(t)
	if len(got) != 2 {
		t.Fatalf("published %d events, want 2", len(got))
	}
	commit := got[0]
	if commit.Type != TypeCommit || commit.Op != "move" || commit.Source != "s1" || !commit.At.Equal(at) {
		t.Errorf("commit event = %+v", commit)
	}
	wantItem := EventItem{ID: 7, Name: "A", Kind: "clip", Track: 2, Start: 50, Duration: 100, CropStart: 10}
	if len(commit.Items) != 1 || commit.Items[0] != wantItem {
		t.Errorf("commit items = %+v, want [%+v]", commit.Items, wantItem)
	}
	reject := got[1]
	if reject.Type != TypeReject || reject.Reason != "out-of-bounds" || len(reject.Items) != 0 {
		t.Errorf("reject event = %+v", reject)
	}
	for _, ch := range fc.channels {
		if ch != DefaultChannel {
			t.Errorf("published on %q, want %q", ch, DefaultChannel)
		}
	}
	if pub, drop := p.Stats(); pub != 2 || drop != 0 {
		t.Errorf("Stats() = (%d, %d), want (2, 0)", pub, drop)
	}
}

func TestPublisherDropsWhenFull(t *testing.T) {
	fc := &fakeClient{entered: make(chan struct{}, 4), gate: make(chan struct{})}
	p := NewPublisher(fc, Options{Channel: "edits", Queue: 1, Logger: quietLogger()})

	p.OnReject("move", "collision")
	<-fc.entered // worker holds the first event
	p.OnReject("move", "collision")
	p.OnReject("move", "collision")

	close(fc.gate)
	closePublisher(t, p)

	if pub, drop := p.Stats(); pub != 2 || drop != 1 {
		t.Errorf("Stats() = (%d, %d), want (2, 1)", pub, drop)
	}
}

func TestPublisherAfterClose(t *testing.T) {
	fc := &fakeClient{}
	p := NewPublisher(fc, Options{Logger: quietLogger()})
	closePublisher(t, p)
	closePublisher(t, p)

	p.OnCommit("cut", nil)
	if pub, drop := p.Stats(); pub != 0 || drop != 1 {
		t.Errorf("Stats() = (%d, %d), want (0, 1)", pub, drop)
	}
}

func TestPublisherError(t *testing.T) {
	fc := &fakeClient{err: errors.New("connection refused")}
	p := NewPublisher(fc, Options{Logger: quietLogger()})
	p.OnReject("move", "locked-track")
	closePublisher(t, p)

	if pub, _ := p.Stats(); pub != 0 {
		t.Errorf("published = %d after client error, want 0", pub)
	}
}

func TestCloseHonoursContext(t *testing.T) {
	fc := &fakeClient{gate: make(chan struct{})}
	p := NewPublisher(fc, Options{Logger: quietLogger()})
	p.OnReject("move", "collision")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Close(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Close() error = %v, want context.Canceled", err)
	}
	close(fc.gate)
	closePublisher(t, p)
}
