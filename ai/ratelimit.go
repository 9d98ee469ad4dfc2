package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

type limitedProvider struct {
	next    Provider
	limiter *rate.Limiter
}

// WithRateLimit spaces calls to p to at most perMinute per minute.
// Waiting honours ctx. perMinute <= 0 returns p unchanged.
func WithRateLimit(p Provider, perMinute int) Provider {
	if perMinute <= 0 {
		return p
	}
	return &limitedProvider{
		next:    p,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (l *limitedProvider) Name() string {
	return l.next.Name()
}

func (l *limitedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return l.next.Complete(ctx, prompt)
}
