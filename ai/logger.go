package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/DachengChen/chatdb/applog"
)

// loggingProvider logs every request and response of the wrapped provider.
// Prompts and completions are logged at debug level only.
type loggingProvider struct {
	next   Provider
	logger *slog.Logger
}

// WithLogging wraps p so all AI interactions reach logger.
func WithLogging(p Provider, logger *slog.Logger) Provider {
	return &loggingProvider{next: p, logger: logger}
}

func (l *loggingProvider) Name() string {
	return l.next.Name()
}

func (l *loggingProvider) Complete(ctx context.Context, prompt string) (string, error) {
	op := operationFrom(ctx)
	l.logger.Debug("ai request", "op", op, "provider", l.next.Name(), "prompt", prompt)

	start := time.Now()
	out, err := l.next.Complete(ctx, prompt)
	elapsed := time.Since(start)

	if err != nil {
		l.logger.Error("ai request failed", "op", op, "provider", l.next.Name(),
			"duration", elapsed, "error", applog.MaskErr(err))
		return "", err
	}
	l.logger.Info("ai response", "op", op, "provider", l.next.Name(),
		"duration", elapsed, "prompt_bytes", len(prompt), "response_bytes", len(out))
	l.logger.Debug("ai response body", "op", op, "response", out)
	return out, nil
}
