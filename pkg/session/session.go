// Package session holds live editing sessions for the HTTP API.
//
// A [Session] owns one loaded scene and the arrangement engine over it.
// The engine is single-threaded, so every use of a session goes through
// [Session.Do], which serializes callers on the session's mutex. Different
// sessions are independent and may be edited in parallel.
//
// Sessions live in a [Store]. The in-memory [MemoryStore] is the only
// backend: the engine state is not serializable and sessions do not
// outlive the process.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess, err := session.New(sc, logger, session.DefaultTTL)
//	if err != nil {
//	    return err
//	}
//	store.Set(ctx, sess)
//
//	sess, err = store.Get(ctx, id)
//	if sess == nil {
//	    // unknown or expired
//	}
//	err = sess.Do(func(sc *scene.Scene, e *arrange.Engine) error {
//	    res, err := sc.Apply(e, op)
//	    ...
//	})
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/cutline/pkg/arrange"
	"github.com/matzehuels/cutline/pkg/scene"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session has exceeded its TTL.
	ErrExpired = errors.New("session expired")
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Session is one scene being edited.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	scene     *scene.Scene
	engine    *arrange.Engine
	ttl       time.Duration
	expiresAt time.Time
}

// New builds the engine for sc and wraps both in a session with a fresh
// ID. The returned error is the engine's, for example an overlapping
// scene.
func New(sc *scene.Scene, logger *log.Logger, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	e, err := sc.Engine(logger)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Session{
		ID:        NewID(),
		CreatedAt: now,
		scene:     sc,
		engine:    e,
		ttl:       ttl,
		expiresAt: now.Add(ttl),
	}, nil
}

// NewID returns a random session identifier.
func NewID() string { return uuid.NewString() }

// Do runs fn with exclusive access to the session's scene and engine and
// extends the session's lifetime.
func (s *Session) Do(fn func(*scene.Scene, *arrange.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiresAt = time.Now().Add(s.ttl)
	return fn(s.scene, s.engine)
}

// ExpiresAt returns when the session expires if left idle.
func (s *Session) ExpiresAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expiresAt
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt())
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist.
	// Returns nil, ErrExpired if the session exists but has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session. It returns ErrNotFound for unknown IDs.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}
