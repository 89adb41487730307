package renewal

import (
	"context"
	"time"

	"github.com/mazen160/go-random"
)

// pacer inserts randomized delays between requests to keep the run
// from looking bursty to the dashboard.
type pacer struct {
	config PacingConfig
}

func (p pacer) sleep(ctx context.Context, minMs, maxMs int) {
	if p.config.Disabled {
		return
	}
	ms, err := random.IntRange(minMs, maxMs)
	if err != nil {
		ms = minMs
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
	}
}

func (p pacer) betweenAccounts(ctx context.Context) {
	minMs, maxMs := p.config.accountRange()
	p.sleep(ctx, minMs, maxMs)
}

func (p pacer) betweenSteps(ctx context.Context) {
	minMs, maxMs := p.config.stepRange()
	p.sleep(ctx, minMs, maxMs)
}
