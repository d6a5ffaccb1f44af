package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPacingDelaysStayInBounds(t *testing.T) {
	p := DefaultPacingPolicy()

	for i := 0; i < 200; i++ {
		d := p.TypingDelay()
		assert.GreaterOrEqual(t, d, 50*time.Millisecond)
		assert.Less(t, d, 150*time.Millisecond)

		d = p.ActionPause()
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.Less(t, d, 300*time.Millisecond)

		d = p.Settle()
		assert.GreaterOrEqual(t, d, 300*time.Millisecond)
		assert.Less(t, d, 800*time.Millisecond)
	}
}

func TestPacingDegenerateRange(t *testing.T) {
	p := &PacingPolicy{TypingDelayMin: 10 * time.Millisecond, TypingDelayMax: 10 * time.Millisecond}
	assert.Equal(t, 10*time.Millisecond, p.TypingDelay())
}

func TestSleepHonorsCancellation(t *testing.T) {
	p := DefaultPacingPolicy()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.Sleep(ctx, 5*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSleepCompletes(t *testing.T) {
	p := DefaultPacingPolicy()
	assert.NoError(t, p.Sleep(context.Background(), time.Millisecond))
}
