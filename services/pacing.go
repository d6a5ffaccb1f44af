package services

import (
	"context"
	"math/rand"
	"time"
)

// PacingPolicy centralizes the human-like delays the form driver inserts
// between interactions. Sites score uniform machine timing as bot traffic,
// so every delay is drawn from a bounded random range.
type PacingPolicy struct {
	TypingDelayMin time.Duration
	TypingDelayMax time.Duration
	ActionPauseMin time.Duration
	ActionPauseMax time.Duration
	SettleMin      time.Duration
	SettleMax      time.Duration

	rng *rand.Rand
}

// DefaultPacingPolicy returns the standard profile: 50-150ms between typed
// characters, short pauses around clicks, and a longer settle after a
// field is completed.
func DefaultPacingPolicy() *PacingPolicy {
	return &PacingPolicy{
		TypingDelayMin: 50 * time.Millisecond,
		TypingDelayMax: 150 * time.Millisecond,
		ActionPauseMin: 100 * time.Millisecond,
		ActionPauseMax: 300 * time.Millisecond,
		SettleMin:      300 * time.Millisecond,
		SettleMax:      800 * time.Millisecond,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (p *PacingPolicy) randBetween(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return min + time.Duration(p.rng.Int63n(int64(max-min)))
}

// TypingDelay returns the pause before the next typed character.
func (p *PacingPolicy) TypingDelay() time.Duration {
	return p.randBetween(p.TypingDelayMin, p.TypingDelayMax)
}

// ActionPause returns the pause before a click or focus change.
func (p *PacingPolicy) ActionPause() time.Duration {
	return p.randBetween(p.ActionPauseMin, p.ActionPauseMax)
}

// Settle returns the pause after completing a field, giving client-side
// validation time to run.
func (p *PacingPolicy) Settle() time.Duration {
	return p.randBetween(p.SettleMin, p.SettleMax)
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func (p *PacingPolicy) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
