package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultPrimaryTimeout = 35 * time.Second
	DefaultBackupTimeout  = 40 * time.Second

	// PrimaryLabel is the provider label of a result from the primary.
	PrimaryLabel = "primary"
)

// Result is an accepted, sanitized response.
type Result struct {
	Text     string
	Provider string // PrimaryLabel or the backup's friendly name
	Model    string
}

// Chain turns one logical request into a sequence of provider attempts:
// the primary first, then each backup in order, until one returns output
// that passes the marker check.
type Chain struct {
	primary        Provider
	backups        []Provider
	limiter        *RateLimiter
	primaryTimeout time.Duration
	backupTimeout  time.Duration
}

// ChainOption customizes a Chain.
type ChainOption func(*Chain)

// WithBackups appends backup providers in the order given.
func WithBackups(backups ...Provider) ChainOption {
	return func(c *Chain) { c.backups = append(c.backups, backups...) }
}

// WithTimeouts overrides the per-attempt deadlines. Zero keeps the default.
func WithTimeouts(primary, backup time.Duration) ChainOption {
	return func(c *Chain) {
		if primary > 0 {
			c.primaryTimeout = primary
		}
		if backup > 0 {
			c.backupTimeout = backup
		}
	}
}

// NewChain builds a chain around the primary provider. The limiter gates
// every attempt and should be shared with any other outbound caller.
func NewChain(primary Provider, limiter *RateLimiter, opts ...ChainOption) *Chain {
	c := &Chain{
		primary:        primary,
		limiter:        limiter,
		primaryTimeout: DefaultPrimaryTimeout,
		backupTimeout:  DefaultBackupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backups returns the configured backup providers.
func (c *Chain) Backups() []Provider {
	return c.backups
}

// attempt is the outcome of one provider call.
type attempt struct {
	provider Provider
	text     string
	err      error
}

// Generate runs the request through the chain. It fails with ErrMissingCredential,
// a *RateLimitError, the primary's error when no backups are configured, the
// context's error if ctx ends, or *AllProvidersFailedError.
func (c *Chain) Generate(ctx context.Context, req Request) (*Result, error) {
	a := c.try(ctx, c.primary, req, c.primaryTimeout, c.primary.Name())
	if a.err == nil {
		return &Result{Text: a.text, Provider: PrimaryLabel, Model: c.primary.Model()}, nil
	}
	if fatal(ctx, a.err) || len(c.backups) == 0 {
		return nil, a.err
	}
	slog.Warn("primary provider failed, trying backups", "model", c.primary.Model(), "error", a.err)

	strict := req
	strict.SystemInstruction = strictInstruction(req)

	last := a.err
	for _, p := range c.backups {
		a := c.try(ctx, p, strict, c.backupTimeout, "Backup ("+p.Name()+")")
		if a.err == nil {
			return &Result{Text: a.text, Provider: p.Name(), Model: p.Model()}, nil
		}
		if fatal(ctx, a.err) {
			return nil, a.err
		}
		slog.Warn("backup provider failed", "model", p.Model(), "error", a.err)
		last = a.err
	}

	chainFailures.Inc()
	return nil, &AllProvidersFailedError{Attempts: len(c.backups) + 1, Last: last}
}

func (c *Chain) try(ctx context.Context, p Provider, req Request, timeout time.Duration, label string) attempt {
	if req.Progress != nil {
		req.Progress(label)
	}
	if err := c.limiter.Allow(); err != nil {
		return attempt{provider: p, err: err}
	}

	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	raw, err := p.Complete(actx, req)
	aiRequestDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	switch {
	case err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		aiRequestsTotal.WithLabelValues(p.Name(), "timeout").Inc()
		return attempt{provider: p, err: fmt.Errorf("%s after %s: %w", p.Model(), timeout, ErrProviderTimeout)}
	case err != nil:
		aiRequestsTotal.WithLabelValues(p.Name(), "error").Inc()
		return attempt{provider: p, err: fmt.Errorf("%s: %w", p.Model(), err)}
	}

	text := ExtractJSON(raw)
	if !hasMarker(text, req.Marker) {
		aiRequestsTotal.WithLabelValues(p.Name(), "invalid").Inc()
		return attempt{provider: p, err: fmt.Errorf("%s: %w", p.Model(), ErrInvalidResponse)}
	}
	if req.Accept != nil {
		if err := req.Accept(text); err != nil {
			aiRequestsTotal.WithLabelValues(p.Name(), "invalid").Inc()
			return attempt{provider: p, err: fmt.Errorf("%s: %v: %w", p.Model(), err, ErrInvalidResponse)}
		}
	}

	aiRequestsTotal.WithLabelValues(p.Name(), "success").Inc()
	return attempt{provider: p, text: text}
}

// fatal reports errors that no further attempt could fix.
func fatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, ErrMissingCredential) ||
		errors.Is(err, ErrRateLimited)
}
