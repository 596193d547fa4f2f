package notification

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultDeliveryTimeout = 2 * time.Minute
	DefaultMaxInFlight     = 64
)

// Dispatcher runs deliveries in the background so a slow relay never holds
// up the request that triggered them. Each delivery keeps the values of the
// request context but not its deadline, and gets a timeout of its own.
type Dispatcher struct {
	timeout time.Duration
	slots   chan struct{}
	logger  zerolog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, maxInFlight int, logger zerolog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Dispatcher{
		timeout: timeout,
		slots:   make(chan struct{}, maxInFlight),
		logger:  logger,
	}
}

// Go starts fn and returns at once. event and subject only label the log
// line written when fn fails. When maxInFlight deliveries are already
// running the new one is dropped and logged.
func (d *Dispatcher) Go(ctx context.Context, event, subject string, fn func(ctx context.Context) error) {
	select {
	case d.slots <- struct{}{}:
	default:
		d.logger.Warn().Str("event", event).Str("subject", subject).Msg("notification dropped, too many deliveries in flight")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.slots }()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			d.logger.Warn().Err(err).Str("event", event).Str("subject", subject).Msg("notification not delivered")
		}
	}()
}

// Wait blocks until every started delivery has finished or ctx ends.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
