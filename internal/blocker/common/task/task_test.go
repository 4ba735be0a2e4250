package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/tamashii/internal/blocker/common/log"
)

func TestGo_StopCancelsAndWaits(t *testing.T) {
	started := make(chan struct{})
	h := Go(context.Background(), "loop", log.NewNoopLogger(), func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started

	assert.Equal(t, "loop", h.Name())
	require.NoError(t, h.Stop())

	select {
	case <-h.Done():
	default:
		t.Fatal("Done must be closed after Stop")
	}
	// idempotent
	require.NoError(t, h.Stop())
}

func TestGo_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := Go(ctx, "child", log.NewNoopLogger(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()

	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("task did not stop on parent cancellation")
	}
	assert.NoError(t, h.Err())
}

func TestGo_ReportsError(t *testing.T) {
	boom := errors.New("boom")
	h := Go(context.Background(), "failing", log.NewNoopLogger(), func(context.Context) error {
		return boom
	})
	<-h.Done()
	assert.ErrorIs(t, h.Err(), boom)
	assert.ErrorIs(t, h.Stop(), boom)
}

func TestHandle_NilStop(t *testing.T) {
	var h *Handle
	assert.NoError(t, h.Stop())
}
