package backend

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Codedkv/capstone-agents-mvp/internal/pkg/circuitbreaker"
	apperrors "github.com/Codedkv/capstone-agents-mvp/internal/pkg/errors"
	"github.com/Codedkv/capstone-agents-mvp/internal/pkg/retry"
	"github.com/Codedkv/capstone-agents-mvp/internal/ratelimit"
)

// PlaceholderText is returned to the user when the backend refuses a
// prompt or keeps rejecting it for quota reasons past the retry ceiling
// of a single call. A refusal is a valid run outcome, not a failure.
const PlaceholderText = "The analysis model declined to answer this request. Findings below are based on local heuristics only."

// Caller wraps a Client with the full outbound-call discipline: rate
// limiter admission before the call, bounded retry with backoff for
// transient failures, and a circuit breaker around the provider.
type Caller struct {
	client  Client
	limiter *ratelimit.Limiter
	breaker *circuitbreaker.CircuitBreaker
	retry   retry.Config
	log     *zap.Logger
}

// NewCaller assembles the wrapper. The limiter may be nil when no rate
// budget applies (tests); the breaker may be nil to disable circuit
// breaking.
func NewCaller(client Client, limiter *ratelimit.Limiter, breaker *circuitbreaker.CircuitBreaker, retryCfg retry.Config, log *zap.Logger) *Caller {
	if log == nil {
		log = zap.NewNop()
	}
	if retryCfg.MaxAttempts <= 0 {
		retryCfg = retry.DefaultConfig()
	}
	if retryCfg.Retryable == nil {
		retryCfg.Retryable = IsTransient
	}
	return &Caller{
		client:  client,
		limiter: limiter,
		breaker: breaker,
		retry:   retryCfg,
		log:     log,
	}
}

// Complete runs one completion through admission, retry, and the
// breaker. Refusals come back as an OK response carrying PlaceholderText
// because retrying the same prompt cannot change a refusal. Transient
// failures are retried up to the configured ceiling, then surface as a
// BACKEND_ERROR the coordinator treats as a phase failure.
func (c *Caller) Complete(ctx context.Context, req Request) (Response, *apperrors.AppError) {
	if c.limiter != nil {
		estimate := EstimateTokens(req.Prompt) + EstimateTokens(req.SystemInstruction)
		if err := c.limiter.Admit(ctx, estimate); err != nil {
			return Response{}, apperrors.Backend("rate limiter admission interrupted").WithError(err)
		}
	}

	start := time.Now()
	var resp Response
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		call := func() error {
			var callErr error
			resp, callErr = c.client.Complete(ctx, req)
			return callErr
		}
		if c.breaker != nil {
			return c.breaker.Execute(ctx, call)
		}
		return call()
	})
	if err != nil {
		if IsBlocked(err) {
			c.log.Warn("backend refused prompt, substituting placeholder",
				zap.Duration("elapsed", time.Since(start)))
			return Response{Text: PlaceholderText}, nil
		}
		c.log.Error("backend call failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)))
		return Response{}, apperrors.Backend("completion failed").WithError(err)
	}
	return resp, nil
}
