package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closeCounter records Close calls; other Engine methods are not used.
type closeCounter struct {
	Engine

	closes   int
	closeErr error
}

func (c *closeCounter) Close(context.Context) error {
	c.closes++
	return c.closeErr
}

func TestSessions_RunClosesAfterUnit(t *testing.T) {
	engine := &closeCounter{}
	sessions := NewSessions(engine)

	var seen Engine
	err := sessions.Run(context.Background(), func(_ context.Context, e Engine) error {
		seen = e
		assert.Zero(t, engine.closes)
		return nil
	})

	require.NoError(t, err)
	assert.Same(t, engine, seen)
	assert.Equal(t, 1, engine.closes)
}

func TestSessions_RunClosesOnFailure(t *testing.T) {
	engine := &closeCounter{}
	sessions := NewSessions(engine)
	boom := errors.New("boom")

	err := sessions.Run(context.Background(), func(context.Context, Engine) error { return boom })

	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, engine.closes)
}

func TestSessions_RunReportsCloseError(t *testing.T) {
	closeErr := errors.New("disk gone")
	engine := &closeCounter{closeErr: closeErr}
	sessions := NewSessions(engine)
	boom := errors.New("boom")

	err := sessions.Run(context.Background(), func(context.Context, Engine) error { return boom })

	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, err, closeErr)
	assert.Contains(t, err.Error(), "failed to close session")

	err = sessions.Run(context.Background(), func(context.Context, Engine) error { return nil })
	require.ErrorIs(t, err, closeErr)
}

func TestSessions_Close(t *testing.T) {
	engine := &closeCounter{}
	sessions := NewSessions(engine)

	require.NoError(t, sessions.Close(context.Background()))
	assert.Equal(t, 1, engine.closes)
}
