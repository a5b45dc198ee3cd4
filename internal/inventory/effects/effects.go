package effects

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner executes best-effort work after a transaction has committed.
// Failures are logged and never reach the caller of the engine operation.
type Runner interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Detached runs every effect on its own goroutine with a fresh deadline, so
// a cancelled request context cannot cut it short.
type Detached struct {
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewDetached(logger *zap.Logger, timeout time.Duration) *Detached {
	return &Detached{logger: logger, timeout: timeout}
}

// Go starts fn in the background. Once Wait has been called, fn runs on the
// calling goroutine instead.
func (d *Detached) Go(name string, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.logger.Warn("Post-commit effect scheduled during shutdown, running inline", zap.String("effect", name))
		d.runWithTimeout(name, fn)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		d.runWithTimeout(name, fn)
	}()
}

func (d *Detached) runWithTimeout(name string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	run(ctx, d.logger, name, fn)
}

// Wait stops accepting background effects and blocks until the started ones
// have returned. Used on shutdown.
func (d *Detached) Wait() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// Inline runs effects synchronously on the calling goroutine.
type Inline struct {
	logger *zap.Logger
}

func NewInline(logger *zap.Logger) *Inline {
	return &Inline{logger: logger}
}

func (i *Inline) Go(name string, fn func(ctx context.Context) error) {
	run(context.Background(), i.logger, name, fn)
}

func run(ctx context.Context, logger *zap.Logger, name string, fn func(ctx context.Context) error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("Post-commit effect panicked",
				zap.String("effect", name),
				zap.String("panic", fmt.Sprint(p)),
			)
		}
	}()

	if err := fn(ctx); err != nil {
		logger.Warn("Post-commit effect failed", zap.String("effect", name), zap.Error(err))
	}
}
