// Package observability provides hooks for metrics, event streams, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific backends. Consumers register hooks at startup to receive events
// about committed and rejected arrangement operations, snap index rebuilds and
// API requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the arrangement engine
// never imports a backend. The Redis publisher in pkg/notify is one such
// backend.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetArrangeHooks(notify.NewPublisher(rdb, "cutline:events", logger))
//	    // ... run application
//	}
//
// The engine calls hooks after each operation:
//
//	observability.Arrange().OnCommit("move", committed)
//	observability.Arrange().OnReject("move", "collision")
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/cutline/pkg/timeline"
)

// =============================================================================
// Arrange Hooks
// =============================================================================

// ArrangeHooks receives events from the arrangement engine. Hooks run on the
// caller's goroutine inside the operation and must not block.
type ArrangeHooks interface {
	// OnCommit records a committed operation and the items it placed, in
	// their new state.
	OnCommit(op string, items []timeline.Item)

	// OnReject records a rejected operation and its reason.
	OnReject(op string, reason string)

	// OnSnapRebuild records a snap index rebuild.
	OnSnapRebuild(points int, duration time.Duration)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP API.
type ServerHooks interface {
	// OnRequest records a served request.
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)

	// OnSession records a session being opened or closed.
	OnSession(ctx context.Context, id string, opened bool)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopArrangeHooks is a no-op implementation of ArrangeHooks.
type NoopArrangeHooks struct{}

func (NoopArrangeHooks) OnCommit(string, []timeline.Item) {}
func (NoopArrangeHooks) OnReject(string, string)          {}
func (NoopArrangeHooks) OnSnapRebuild(int, time.Duration) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string, int, time.Duration) {}
func (NoopServerHooks) OnSession(context.Context, string, bool)                       {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	arrangeHooks ArrangeHooks = NoopArrangeHooks{}
	serverHooks  ServerHooks  = NoopServerHooks{}
	hooksMu      sync.RWMutex
)

// SetArrangeHooks registers custom arrangement hooks.
// This should be called once at application startup before any engine is used.
func SetArrangeHooks(h ArrangeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		arrangeHooks = h
	}
}

// SetServerHooks registers custom server hooks.
func SetServerHooks(h ServerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		serverHooks = h
	}
}

// Arrange returns the registered arrangement hooks.
func Arrange() ArrangeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return arrangeHooks
}

// Server returns the registered server hooks.
func Server() ServerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return serverHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	arrangeHooks = NoopArrangeHooks{}
	serverHooks = NoopServerHooks{}
}
