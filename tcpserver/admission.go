package tcpserver

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Admission decides how an accepted connection's worker gets scheduled. The
// accept loop calls Admit once per connection and blocks while Admit blocks.
// An error means the connection was not admitted and will be closed.
type Admission interface {
	Admit(ctx context.Context, run func()) error
}

// AdmissionFunc adapts a function to Admission.
type AdmissionFunc func(ctx context.Context, run func()) error

// Admit calls f(ctx, run).
func (f AdmissionFunc) Admit(ctx context.Context, run func()) error {
	return f(ctx, run)
}

// Unbounded starts one goroutine per connection with no limit. It is the
// server default.
func Unbounded() Admission {
	return AdmissionFunc(func(_ context.Context, run func()) error {
		go run()
		return nil
	})
}

// Bounded allows at most n workers at a time. When all slots are taken the
// accept loop waits for a worker to finish, leaving new peers in the kernel
// backlog.
//
// Parameters:
//   - n: Maximum number of concurrently running workers; must be positive
//
// Returns:
//   - An Admission backed by a weighted semaphore
func Bounded(n int64) Admission {
	sem := semaphore.NewWeighted(n)
	return AdmissionFunc(func(ctx context.Context, run func()) error {
		if err := sem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("admission: waiting for worker slot: %w", err)
		}

		go func() {
			defer sem.Release(1)
			run()
		}()

		return nil
	})
}

// RateLimited admits connections at no more than perSecond on average with
// the given burst, then runs each worker on its own goroutine.
func RateLimited(perSecond float64, burst int) Admission {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return AdmissionFunc(func(ctx context.Context, run func()) error {
		if err := limiter.Wait(ctx); err != nil {
			return fmt.Errorf("admission: rate limit: %w", err)
		}

		go run()
		return nil
	})
}
