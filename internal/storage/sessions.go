package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sessions serializes units of work on one shared engine. An engine holds a
// single session, so goroutines sharing it must not interleave their New,
// Delete, Save and Close calls.
type Sessions struct {
	engine Engine

	mu sync.Mutex
}

// NewSessions guards engine.
func NewSessions(engine Engine) *Sessions {
	return &Sessions{
		engine: engine,

		mu: sync.Mutex{},
	}
}

// Run executes fn as one unit of work and closes the session afterwards, so
// changes fn did not save are discarded before the next unit starts.
// Entities read inside fn must not be used once it returns.
func (s *Sessions) Run(ctx context.Context, fn func(ctx context.Context, engine Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(ctx, s.engine)

	if closeErr := s.engine.Close(ctx); closeErr != nil {
		return errors.Join(err, fmt.Errorf("failed to close session: %w", closeErr))
	}

	return err
}

// Close ends the current session once no unit of work is running.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Close(ctx)
}
