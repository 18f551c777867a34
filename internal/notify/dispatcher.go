// Package notify delivers compiled rental applications to operators.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wolfman30/rental-intake-bot/pkg/logging"
)

const defaultDeliveryTimeout = 10 * time.Second

// Outcome is the result of one recipient attempt.
type Outcome struct {
	Recipient string
	Err       error
	Duration  time.Duration
}

// Delivered reports whether the attempt succeeded.
func (o Outcome) Delivered() bool {
	return o.Err == nil
}

type deliveryObserver interface {
	ObserveDelivery(recipient string, delivered bool)
}

// Dispatcher fans an application out to a fixed recipient list. Every
// attempt is independent: a failing recipient is logged and never stops the
// others, and Dispatch itself never fails.
type Dispatcher struct {
	recipients []Recipient
	timeout    time.Duration
	logger     *logging.Logger
	observer   deliveryObserver
}

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDeliveryTimeout bounds each recipient attempt.
func WithDeliveryTimeout(d time.Duration) DispatcherOption {
	return func(disp *Dispatcher) {
		if d > 0 {
			disp.timeout = d
		}
	}
}

// WithDeliveryObserver records per-recipient outcomes, e.g. in metrics.
func WithDeliveryObserver(o deliveryObserver) DispatcherOption {
	return func(disp *Dispatcher) {
		disp.observer = o
	}
}

// NewDispatcher creates a dispatcher for recipients.
func NewDispatcher(recipients []Recipient, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{
		recipients: recipients,
		timeout:    defaultDeliveryTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Recipients returns the configured recipient names in order.
func (d *Dispatcher) Recipients() []string {
	names := make([]string, 0, len(d.recipients))
	for _, r := range d.recipients {
		names = append(names, r.Name())
	}
	return names
}

// Dispatch attempts every recipient concurrently and returns one outcome per
// recipient in configuration order.
func (d *Dispatcher) Dispatch(ctx context.Context, app Application) []Outcome {
	outcomes := make([]Outcome, len(d.recipients))
	// a cancelled inbound context must not abort delivery of an accepted application
	base := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i, recipient := range d.recipients {
		wg.Add(1)
		go func(i int, recipient Recipient) {
			defer wg.Done()
			outcomes[i] = d.deliver(base, recipient, app)
		}(i, recipient)
	}
	wg.Wait()

	delivered := 0
	for _, o := range outcomes {
		if o.Delivered() {
			delivered++
		}
	}
	d.logger.Info("notify: application dispatched",
		"listing_id", app.ListingID,
		"user", app.User.Display(),
		"recipients", len(outcomes),
		"delivered", delivered,
	)
	return outcomes
}

func (d *Dispatcher) deliver(ctx context.Context, recipient Recipient, app Application) (out Outcome) {
	out.Recipient = recipient.Name()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("notify: recipient %s panicked: %v", out.Recipient, r)
		}
		out.Duration = time.Since(start)
		if out.Err != nil {
			d.logger.Error("notify: delivery failed", "error", out.Err, "recipient", out.Recipient, "listing_id", app.ListingID)
		} else {
			d.logger.Debug("notify: delivered", "recipient", out.Recipient, "listing_id", app.ListingID)
		}
		if d.observer != nil {
			d.observer.ObserveDelivery(out.Recipient, out.Err == nil)
		}
	}()

	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	out.Err = recipient.Deliver(attemptCtx, app)
	return out
}
