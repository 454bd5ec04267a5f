package resilience

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// GuardedLauncher trips when the picker host keeps refusing requests, so callers get
// an immediate failure instead of piling up on a dead connection.
type GuardedLauncher struct {
	next    picker.Launcher
	breaker *Breaker
}

// LauncherSettings returns breaker settings suited to a picker host
func LauncherSettings(logger *zap.Logger) Settings {
	return Settings{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// a caller giving up is not the host's fault
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to State) {
			if logger != nil {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to))
			}
		},
	}
}

// GuardLauncher wraps next with a breaker named name
func GuardLauncher(next picker.Launcher, name string, settings Settings) *GuardedLauncher {
	return &GuardedLauncher{next: next, breaker: New(name, settings)}
}

// Launch forwards req unless the breaker is open
func (g *GuardedLauncher) Launch(ctx context.Context, req picker.Request) error {
	return g.guard("launch", func() error { return g.next.Launch(ctx, req) })
}

// View forwards req unless the breaker is open
func (g *GuardedLauncher) View(ctx context.Context, req picker.ViewRequest) error {
	return g.guard("view", func() error { return g.next.View(ctx, req) })
}

// Breaker exposes the underlying breaker
func (g *GuardedLauncher) Breaker() *Breaker {
	return g.breaker
}

func (g *GuardedLauncher) guard(op string, fn func() error) error {
	err := g.breaker.Execute(fn)
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		return &failure.Error{Kind: failure.Unknown, Op: op, Message: "picker host unavailable", Err: err}
	}
	return err
}
