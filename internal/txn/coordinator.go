// Package txn runs store operations inside transactions and retries them
// when the store reports a serialization conflict.
package txn

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/economy_bot/internal/metrics"
	"github.com/mroshb/economy_bot/internal/store"
	"github.com/mroshb/economy_bot/pkg/errors"
	"github.com/mroshb/economy_bot/pkg/logger"
)

const (
	DefaultMaxRetries = 5
	DefaultBackoff    = 75 * time.Millisecond
	DefaultMaxBackoff = 1200 * time.Millisecond
)

// Options describe one operation.
type Options struct {
	// Name labels logs and metrics, e.g. "auction.bid".
	Name      string
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// Serializable is the level every money-moving operation runs at.
func Serializable(name string) Options {
	return Options{Name: name, Isolation: sql.LevelSerializable}
}

// ReadOnly is used for listings.
func ReadOnly(name string) Options {
	return Options{Name: name, Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

type Coordinator struct {
	store      store.Store
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	metrics    *metrics.Metrics
	sleep      func(ctx context.Context, d time.Duration) error
}

type Option func(*Coordinator)

// WithMaxRetries sets how many times a conflicting operation is retried.
// The operation runs at most n+1 times.
func WithMaxRetries(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

func WithBackoff(base, max time.Duration) Option {
	return func(c *Coordinator) {
		if base > 0 {
			c.backoff = base
		}
		if max >= c.backoff {
			c.maxBackoff = max
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func New(s store.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:      s,
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
		maxBackoff: DefaultMaxBackoff,
		sleep:      sleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) MaxRetries() int {
	return c.maxRetries
}

// Exec is Run for operations without a result.
func (c *Coordinator) Exec(ctx context.Context, opts Options, op func(tx store.Tx) error) error {
	_, err := Run(ctx, c, opts, func(tx store.Tx) (struct{}, error) {
		return struct{}{}, op(tx)
	})
	return err
}

// Run executes op in a transaction and commits it. Conflicts, whether
// raised by op or by the commit, roll back and rerun the whole operation.
// Any other error rolls back and is returned as is. When every attempt
// conflicts the result is a CONCURRENCY_EXHAUSTED error.
//
// ctx is only honoured between attempts: a started transaction always runs
// to commit or rollback.
func Run[T any](ctx context.Context, c *Coordinator, opts Options, op func(tx store.Tx) (T, error)) (T, error) {
	var zero T
	runID := uuid.NewString()
	started := time.Now()
	defer func() {
		c.metrics.ObserveDuration(opts.Name, time.Since(started))
	}()

	txCtx := context.WithoutCancel(ctx)
	delay := c.backoff
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		c.metrics.IncAttempt(opts.Name)
		out, err := runAttempt(txCtx, c.store, opts, op)
		if err == nil {
			return out, nil
		}

		if !store.IsConflict(err) {
			if errors.CodeOf(err) == "" || errors.CodeOf(err) == errors.ErrCodeInternalError {
				logger.Error("Transaction failed", "operation", opts.Name, "run_id", runID, "attempt", attempt, "error", err)
			} else {
				logger.Debug("Transaction rejected", "operation", opts.Name, "run_id", runID, "error", err)
			}
			return zero, err
		}

		lastErr = err
		c.metrics.IncConflict(opts.Name)
		logger.Debug("Serialization conflict, retrying",
			"operation", opts.Name,
			"run_id", runID,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"error", err,
		)

		if attempt > c.maxRetries {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return zero, err
		}
		if delay < c.maxBackoff {
			delay *= 2
			if delay > c.maxBackoff {
				delay = c.maxBackoff
			}
		}
	}

	c.metrics.IncExhausted(opts.Name)
	logger.Warn("Transaction retries exhausted", "operation", opts.Name, "run_id", runID, "attempts", c.maxRetries+1)
	return zero, errors.Wrap(lastErr, errors.ErrCodeConcurrencyExhausted, "the economy is busy right now, please try again")
}

func runAttempt[T any](ctx context.Context, s store.Store, opts Options, op func(tx store.Tx) (T, error)) (out T, err error) {
	tx, err := s.Begin(ctx, &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly})
	if err != nil {
		return out, err
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	out, err = op(tx)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := tx.Commit(); err != nil {
		var zero T
		return zero, err
	}
	committed = true
	return out, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
