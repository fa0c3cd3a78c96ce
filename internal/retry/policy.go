package retry

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/pkg/apperr"
	"element-scout/pkg/logg"
	"element-scout/pkg/tracing"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	policyName   = "RetryPolicy"
	policyTracer = "retry.policy"
)

type Config struct {
	MaxRetries        int
	Delays            []time.Duration
	BackoffMultiplier float64
	MaxJitter         time.Duration
	Retryable         []entity.ErrorCategory
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:        3,
		Delays:            []time.Duration{2 * time.Second, 5 * time.Second, 10 * time.Second},
		BackoffMultiplier: 1.5,
		MaxJitter:         time.Second,
		Retryable: []entity.ErrorCategory{
			entity.ErrorCategoryNetwork,
			entity.ErrorCategoryTimeout,
			entity.ErrorCategoryBrowser,
			entity.ErrorCategorySSL,
			entity.ErrorCategoryJavaScript,
		},
	}
}

// Result is the structured outcome of Execute. It is returned for success and failure alike.
type Result[T any] struct {
	Success       bool                   `json:"success"`
	FinalAttempt  entity.AttemptRecord   `json:"finalAttempt"`
	Attempts      []entity.AttemptRecord `json:"allAttempts"`
	TotalRetries  int                    `json:"totalRetries"`
	TotalDuration time.Duration          `json:"totalDuration"`
	GaveUpReason  entity.GaveUpReason    `json:"gaveUpReason,omitempty"`
	Value         T                      `json:"-"`
	Err           error                  `json:"-"`
}

type Policy struct {
	cfg    Config
	logger *zap.Logger
	tracer trace.Tracer
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
	now    func() time.Time
}

type Option func(*Policy)

// WithSleep replaces the backoff wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(p *Policy) { p.sleep = fn }
}

func WithJitter(fn func(max time.Duration) time.Duration) Option {
	return func(p *Policy) { p.jitter = fn }
}

func WithClock(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

func NewPolicy(cfg Config, logger *zap.Logger, opts ...Option) *Policy {
	if len(cfg.Delays) == 0 {
		cfg.Delays = DefaultConfig().Delays
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	p := &Policy{
		cfg:    cfg,
		logger: logger.With(zap.String(logg.Layer, policyName)),
		tracer: otel.Tracer(policyTracer),
		sleep:  sleepContext,
		jitter: randomJitter,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

func (p *Policy) Config() Config {
	return p.cfg
}

// BaseDelay is the wait before retry number attempt (1-based), excluding jitter.
func (p *Policy) BaseDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	idx := min(attempt-1, len(p.cfg.Delays)-1)
	scaled := float64(p.cfg.Delays[idx]) * math.Pow(p.cfg.BackoffMultiplier, float64(attempt-1))

	return time.Duration(scaled)
}

func (p *Policy) Retryable(category entity.ErrorCategory) bool {
	return slices.Contains(p.cfg.Retryable, category)
}

type elementCounter interface {
	ElementCount() int
}

// Execute runs op until it succeeds, fails with a non-retryable category, or runs out of attempts.
// Cancelling ctx stops the loop between attempts.
func Execute[T any](ctx context.Context, p *Policy, name string, op func(ctx context.Context) (T, error)) *Result[T] {
	const opName = "Execute"
	logger := p.logger.With(zap.String(logg.Operation, opName), zap.String("name", name))

	ctx, step := tracing.StartSpan(ctx, p.tracer, logger, name, attribute.Int("max_retries", p.cfg.MaxRetries))

	res := &Result[T]{}
	started := p.now()
	maxAttempts := p.cfg.MaxRetries + 1

	defer func() {
		res.TotalDuration = p.now().Sub(started)
		if n := len(res.Attempts); n > 0 {
			res.FinalAttempt = res.Attempts[n-1]
			res.TotalRetries = n - 1
		}
		step.SetAttributes(attribute.Int("attempts", len(res.Attempts)))
		step.End(res.Err)
	}()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		record := entity.AttemptRecord{Index: attempt, StartedAt: p.now()}

		value, err := op(ctx)
		record.EndedAt = p.now()

		if err == nil {
			record.Success = true
			if counter, ok := any(value).(elementCounter); ok {
				record.ElementsFound = counter.ElementCount()
			}
			res.Attempts = append(res.Attempts, record)
			res.Success = true
			res.Value = value
			res.Err = nil

			if attempt > 1 {
				logger.Info("operation succeeded after retries", zap.Int(logg.Attempt, attempt))
			}

			return res
		}

		category := Categorize(err)
		record.Error = err.Error()
		record.ErrorCategory = category
		res.Attempts = append(res.Attempts, record)
		res.Err = err

		attemptLogger := logger.With(
			zap.Int(logg.Attempt, attempt),
			zap.String(logg.Category, string(category)),
			zap.Error(err),
		)

		if !p.Retryable(category) {
			attemptLogger.Warn("giving up on non-retryable error")
			res.GaveUpReason = entity.GaveUpNonRetryable
			return res
		}

		if attempt == maxAttempts {
			attemptLogger.Warn("giving up after max retries")
			res.GaveUpReason = entity.GaveUpMaxRetries
			res.Err = apperr.Wrap(opName, apperr.CodeRetryExhausted, err, map[string]any{
				apperr.MetaReason:   string(entity.GaveUpMaxRetries),
				apperr.MetaAttempts: attempt,
				apperr.MetaCategory: string(category),
			})
			return res
		}

		delay := p.BaseDelay(attempt) + p.jitter(p.cfg.MaxJitter)
		attemptLogger.Info("retrying", zap.Duration("delay", delay))
		step.AddEvent("backoff", tracing.Attempt.Int(attempt), attribute.Int64("delay_ms", delay.Milliseconds()))

		if err := p.sleep(ctx, delay); err != nil {
			res.GaveUpReason = entity.GaveUpCancelled
			res.Err = err
			return res
		}
	}

	return res
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

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(int64(max)))
}
