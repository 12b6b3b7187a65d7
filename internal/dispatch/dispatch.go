// internal/dispatch/dispatch.go
package dispatch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/signalnine/loadwatch/internal/notify"
	"github.com/signalnine/loadwatch/internal/protocol"
)

// Dispatcher sends the alerts of one tick concurrently and waits for all of them
type Dispatcher struct {
	notifier    notify.Notifier
	destination string
	sender      string
	timeout     time.Duration
}

// New creates a dispatcher. A timeout <= 0 leaves each send bounded only by ctx.
func New(notifier notify.Notifier, destination, sender string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		notifier:    notifier,
		destination: destination,
		sender:      sender,
		timeout:     timeout,
	}
}

// Dispatch submits every event and returns one outcome per event, in input order.
// A failed or slow send never fails the others; the error is kept in its outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, events []protocol.AlertEvent) []protocol.DispatchOutcome {
	outcomes := make([]protocol.DispatchOutcome, len(events))
	if len(events) == 0 {
		return outcomes
	}

	var g errgroup.Group
	g.SetLimit(len(events))

	for i, ev := range events {
		i, ev := i, ev
		g.Go(func() error {
			outcomes[i] = d.send(ctx, ev)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (d *Dispatcher) send(ctx context.Context, ev protocol.AlertEvent) protocol.DispatchOutcome {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	status, err := d.notifier.Send(ctx, d.destination, d.sender, ev.Message)
	return protocol.DispatchOutcome{Event: ev, Status: status, Err: err}
}
