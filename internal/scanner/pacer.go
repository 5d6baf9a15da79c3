package scanner

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces consecutive requests against one source by a base delay plus optional jitter.
type Pacer struct {
	base      time.Duration
	jitterMin time.Duration
	jitterMax time.Duration
	limiter   *rate.Limiter
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewPacer builds a pacer; jitter is drawn from [jitterMin, jitterMax) when jitterMax > jitterMin.
func NewPacer(base, jitterMin, jitterMax time.Duration) *Pacer {
	p := &Pacer{
		base:      base,
		jitterMin: jitterMin,
		jitterMax: jitterMax,
		sleep:     sleepContext,
	}
	if base > 0 {
		p.limiter = rate.NewLimiter(rate.Every(base), 1)
	}
	return p
}

// NoPacing returns a pacer that never waits.
func NoPacing() *Pacer {
	return &Pacer{sleep: sleepContext}
}

// Wait blocks until the next request may go out. The first call passes immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if extra := p.jitter(); extra > 0 {
		return p.sleep(ctx, extra)
	}
	return nil
}

// Delay is the full pause inserted between keywords.
func (p *Pacer) Delay(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.sleep(ctx, p.base+p.jitter())
}

func (p *Pacer) jitter() time.Duration {
	if p.jitterMax <= p.jitterMin {
		return p.jitterMin
	}
	return p.jitterMin + rand.N(p.jitterMax-p.jitterMin)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
