package queue

import (
	"context"
	"log/slog"

	"github.com/stillpoint/stillsync/internal/storage"
)

// TransmitFunc delivers one pending item to the remote replica. A nil
// return acknowledges receipt; an error schedules a retry. The mechanism
// of delivery is an external collaborator.
type TransmitFunc func(ctx context.Context, item Item) error

// Report summarizes one Drain pass.
type Report struct {
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Abandoned int `json:"abandoned"`
}

// Dispatcher consumes a Queue with a retry ceiling. Items that exhaust the
// ceiling move to a persisted abandoned side list for manual inspection
// rather than being silently deleted.
type Dispatcher struct {
	queue     *Queue
	store     *storage.Namespaced
	ceiling   int
	abandoned []Item
	log       *slog.Logger
}

// NewDispatcher creates a dispatcher over q with the given retry ceiling.
// A ceiling <= 0 disables abandonment: items retry indefinitely.
// Previously abandoned items are reloaded from the store.
func NewDispatcher(ctx context.Context, q *Queue, retryCeiling int, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	d := &Dispatcher{
		queue:   q,
		store:   q.store,
		ceiling: retryCeiling,
		log:     log,
	}
	d.store.Get(ctx, abandonedKey, &d.abandoned)
	return d
}

// Drain attempts to transmit every pending item once, in order.
//
// Acknowledged items are removed from the queue. Failed items have their
// retry counter incremented; an item whose counter reaches the ceiling is
// moved to the abandoned list.
func (d *Dispatcher) Drain(ctx context.Context, send TransmitFunc) Report {
	var report Report

	for _, item := range d.queue.GetAll() {
		if err := send(ctx, item); err != nil {
			retries := d.queue.IncrementRetry(ctx, item.ID)
			if d.ceiling > 0 && retries >= d.ceiling {
				d.abandon(ctx, item.ID)
				report.Abandoned++
				continue
			}
			d.log.Warn("transmit failed, will retry",
				"item_id", item.ID,
				"kind", item.Kind,
				"retries", retries,
				"error", err)
			report.Failed++
			continue
		}
		d.queue.Remove(ctx, item.ID)
		report.Sent++
	}

	return report
}

// Abandoned returns a defensive copy of the abandoned side list.
func (d *Dispatcher) Abandoned() []Item {
	out := make([]Item, len(d.abandoned))
	copy(out, d.abandoned)
	return out
}

// abandon moves the identified item from the queue to the abandoned list.
func (d *Dispatcher) abandon(ctx context.Context, id string) {
	for _, item := range d.queue.GetAll() {
		if item.ID != id {
			continue
		}
		d.queue.Remove(ctx, id)
		d.abandoned = append(d.abandoned, item)
		d.store.Set(ctx, abandonedKey, d.abandoned)
		d.log.Error("item exhausted retry ceiling, abandoned",
			"item_id", item.ID,
			"kind", item.Kind,
			"retries", item.Retries)
		return
	}
}
