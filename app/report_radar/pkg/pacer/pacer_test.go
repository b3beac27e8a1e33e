package pacer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed_Wait(t *testing.T) {
	p := NewFixed(20 * time.Millisecond)
	start := time.Now()
	assert.NoError(t, p.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestFixed_Default(t *testing.T) {
	assert.Equal(t, DefaultPause, NewFixed(0).Pause)
}

func TestFixed_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewFixed(time.Hour).Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Wait(context.Background()))
}
