package ai

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// RetryConfig - параметры повторов запросов к модели.
type RetryConfig struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	AttemptTimeout time.Duration // 0 - без таймаута на попытку
	DisableJitter  bool
}

// Retrying оборачивает Client повторными попытками с экспоненциальной задержкой.
type Retrying struct {
	next   Client
	cfg    RetryConfig
	logger *zap.Logger
	rng    *rand.Rand
	// wait можно подменить в тестах
	wait func(ctx context.Context, d time.Duration) error
}

// NewRetrying создает декоратор повторов.
func NewRetrying(next Client, cfg RetryConfig, logger *zap.Logger) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	return &Retrying{
		next:   next,
		cfg:    cfg,
		logger: logger.Named("AIRetry"),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		wait:   sleepContext,
	}
}

// GenerateText вызывает обернутый клиент до MaxAttempts раз.
func (r *Retrying) GenerateText(ctx context.Context, systemPrompt, userInput string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := r.attempt(ctx, systemPrompt, userInput)
		if err == nil {
			if attempt > 1 {
				r.logger.Info("AI request succeeded after retry", zap.Int("attempt", attempt))
			}
			return text, nil
		}
		lastErr = err

		if !isRetryable(ctx, err) {
			r.logger.Warn("AI request failed with non-retryable error",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return "", err
		}
		if attempt == r.cfg.MaxAttempts {
			break
		}

		delay := r.backoff(attempt)
		aiRetriesTotal.WithLabelValues(retryReason(err)).Inc()
		r.logger.Warn("AI request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", r.cfg.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := r.wait(ctx, delay); err != nil {
			return "", err
		}
	}

	r.logger.Error("AI request failed after all attempts",
		zap.Int("attempts", r.cfg.MaxAttempts),
		zap.Error(lastErr),
	)
	return "", lastErr
}

func (r *Retrying) attempt(ctx context.Context, systemPrompt, userInput string) (string, error) {
	if r.cfg.AttemptTimeout <= 0 {
		return r.next.GenerateText(ctx, systemPrompt, userInput)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, r.cfg.AttemptTimeout)
	defer cancel()
	return r.next.GenerateText(attemptCtx, systemPrompt, userInput)
}

// backoff: base*2^(attempt-1) с разбросом ±10%, но не меньше base.
func (r *Retrying) backoff(attempt int) time.Duration {
	base := r.cfg.BaseDelay
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if !r.cfg.DisableJitter {
		jitter := delay * 0.1
		delay += jitter * (r.rng.Float64()*2 - 1)
	}
	wait := time.Duration(delay)
	if wait < base {
		wait = base
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryable: отмену вызывающим и постоянные 4xx не повторяем.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if code, ok := statusCode(err); ok {
		return code >= 500 || code == http.StatusRequestTimeout || code == http.StatusTooManyRequests
	}
	return true
}

func statusCode(err error) (int, bool) {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return apiErr.HTTPStatusCode, true
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return reqErr.HTTPStatusCode, true
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode != 0 {
		return statusErr.StatusCode, true
	}
	return 0, false
}

func retryReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if code, ok := statusCode(err); ok {
		switch {
		case code == http.StatusTooManyRequests:
			return "rate_limited"
		case code >= 500:
			return "server_error"
		}
	}
	return "other"
}
