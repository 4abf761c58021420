// Package ratelimit keeps outbound calls to the external generative backend
// within two independent ceilings (tokens per minute and requests per
// minute) using a sliding window.
//
// The whole check-and-record sequence runs under one lock, so two
// concurrent Admit calls cannot both pass a stale window check and
// double-admit. Waiting happens outside the lock and re-checks on wake.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds limiter configuration.
type Config struct {
	// MaxTokensPerMinute caps the token sum across the window.
	MaxTokensPerMinute int
	// MaxRequestsPerMinute caps the request count across the window.
	MaxRequestsPerMinute int
	// Window is the sliding window length. Defaults to one minute.
	Window time.Duration
	// Margin is the extra wait added after a computed delay so the oldest
	// sample has actually left the window on re-check. Defaults to one second.
	Margin time.Duration
}

type tokenSample struct {
	at     time.Time
	tokens int
}

// Limiter is a sliding-window admission controller. Admission is
// backpressure, never rejection: a caller over budget is suspended until
// the window frees up, then admitted.
type Limiter struct {
	cfg Config
	log *zap.Logger

	// injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	tokenSamples []tokenSample
	requestTimes []time.Time
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock overrides the wall clock and sleep function, used in tests to
// drive the window without real waiting.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// New creates a limiter with the given ceilings.
func New(cfg Config, log *zap.Logger, opts ...Option) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Margin <= 0 {
		cfg.Margin = time.Second
	}
	l := &Limiter{
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		sleep: sleepContext,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Admit blocks until the call fits under both ceilings, then records it.
// The only error returned is the context's, when the caller gives up while
// waiting; admission itself never fails.
func (l *Limiter) Admit(ctx context.Context, estimatedTokens int) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.evict(now)

		currentTokens := 0
		for _, s := range l.tokenSamples {
			currentTokens += s.tokens
		}
		currentRequests := len(l.requestTimes)

		var wait time.Duration
		var reason string
		switch {
		case currentTokens+estimatedTokens > l.cfg.MaxTokensPerMinute && len(l.tokenSamples) > 0:
			wait = l.cfg.Window - now.Sub(l.tokenSamples[0].at) + l.cfg.Margin
			reason = "token quota near limit"
		case currentRequests >= l.cfg.MaxRequestsPerMinute && len(l.requestTimes) > 0:
			wait = l.cfg.Window - now.Sub(l.requestTimes[0]) + l.cfg.Margin
			reason = "request quota near limit"
		default:
			l.tokenSamples = append(l.tokenSamples, tokenSample{at: now, tokens: estimatedTokens})
			l.requestTimes = append(l.requestTimes, now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if wait < l.cfg.Margin {
			wait = l.cfg.Margin
		}
		l.log.Info("rate limiter waiting",
			zap.String("reason", reason),
			zap.Duration("wait", wait),
		)
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Usage returns the current token sum and request count in the window.
func (l *Limiter) Usage() (tokens, requests int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.evict(l.now())
	for _, s := range l.tokenSamples {
		tokens += s.tokens
	}
	return tokens, len(l.requestTimes)
}

// evict drops window entries older than the window length. Callers hold
// the lock.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(l.tokenSamples) && l.tokenSamples[i].at.Before(cutoff) {
		i++
	}
	l.tokenSamples = l.tokenSamples[i:]

	j := 0
	for j < len(l.requestTimes) && l.requestTimes[j].Before(cutoff) {
		j++
	}
	l.requestTimes = l.requestTimes[j:]
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
