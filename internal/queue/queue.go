// Package queue implements the pending-operation queue: an ordered,
// persisted list of local mutations not yet acknowledged by the remote
// replica. Items accumulate while the device is offline and are drained by
// a Dispatcher when connectivity resumes.
//
// Persistence model: the full queue is rewritten on every mutation (not
// incrementally). A crash between the in-memory change and the persisted
// write is the only data-loss window; this is an accepted tradeoff for
// simplicity. The queue assumes a single logical writer per namespace.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stillpoint/stillsync/internal/progress"
	"github.com/stillpoint/stillsync/internal/storage"
)

// Kind distinguishes the mutation a queue item carries.
type Kind string

const (
	KindSession    Kind = "session"
	KindAssessment Kind = "assessment"
	KindBadge      Kind = "badge"
)

// Item is one pending mutation awaiting transmission.
//
// The payload is a tagged union keyed by Kind: exactly one of Session,
// Assessment, or Badge is set for the known kinds. Raw carries the payload
// for kinds this core does not know (forward compatibility) - such items
// are transmitted verbatim, never interpreted.
type Item struct {
	ID         string               `json:"id"`
	Kind       Kind                 `json:"kind"`
	Session    *progress.Session    `json:"session,omitempty"`
	Assessment *progress.Assessment `json:"assessment,omitempty"`
	Badge      *progress.Badge      `json:"badge,omitempty"`
	Raw        json.RawMessage      `json:"raw,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	Retries    int                  `json:"retries"`
}

// Storage keys within the queue's namespace.
const (
	pendingKey   = "pending"
	abandonedKey = "abandoned"
)

// Queue is an ordered, persisted sequence of pending items.
//
// Lifecycle: load on construction, persist on every mutating call. No
// ambient singleton - pass the Queue instance explicitly to every caller
// that needs it.
type Queue struct {
	store *storage.Namespaced
	items []Item
}

// Open loads the persisted queue from store. A missing or unreadable queue
// starts empty (the store's fail-soft contract).
func Open(ctx context.Context, store *storage.Namespaced) *Queue {
	q := &Queue{store: store}
	store.Get(ctx, pendingKey, &q.items)
	return q
}

// AddSession appends a "session recorded" mutation and persists the queue.
func (q *Queue) AddSession(ctx context.Context, s progress.Session) Item {
	return q.add(ctx, Item{Kind: KindSession, Session: &s})
}

// AddAssessment appends an "assessment completed" mutation and persists the queue.
func (q *Queue) AddAssessment(ctx context.Context, a progress.Assessment) Item {
	return q.add(ctx, Item{Kind: KindAssessment, Assessment: &a})
}

// AddBadge appends a "badge unlocked" mutation and persists the queue.
func (q *Queue) AddBadge(ctx context.Context, b progress.Badge) Item {
	return q.add(ctx, Item{Kind: KindBadge, Badge: &b})
}

// AddRaw appends a mutation of a kind unknown to this core. The payload is
// carried as opaque bytes and transmitted verbatim.
func (q *Queue) AddRaw(ctx context.Context, kind Kind, payload json.RawMessage) Item {
	return q.add(ctx, Item{Kind: kind, Raw: payload})
}

func (q *Queue) add(ctx context.Context, item Item) Item {
	// UUIDv7 embeds a timestamp in the most significant bits: collision
	// resistant across devices (random component) and time-sortable.
	item.ID = uuid.Must(uuid.NewV7()).String()
	item.CreatedAt = time.Now().UTC()
	item.Retries = 0

	q.items = append(q.items, item)
	q.persist(ctx)
	return item
}

// GetAll returns a defensive copy of the pending items in order.
// Mutating the returned slice does not affect the queue.
func (q *Queue) GetAll() []Item {
	out := make([]Item, len(q.items))
	copy(out, q.items)
	return out
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	return len(q.items)
}

// Remove filters the identified item out and persists.
// Idempotent: removing an already-absent id is a no-op.
func (q *Queue) Remove(ctx context.Context, id string) {
	kept := q.items[:0]
	for _, item := range q.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(q.items) {
		return
	}
	q.items = kept
	q.persist(ctx)
}

// IncrementRetry increments the retry counter of the identified item and
// persists. Returns the new counter value, or -1 if the item is absent.
//
// The queue itself enforces no ceiling; see Dispatcher for the
// retry-ceiling and abandonment policy.
func (q *Queue) IncrementRetry(ctx context.Context, id string) int {
	for i := range q.items {
		if q.items[i].ID == id {
			q.items[i].Retries++
			q.persist(ctx)
			return q.items[i].Retries
		}
	}
	return -1
}

// Clear empties the queue and persists. Used after a full successful sync
// reconciles all pending items at once.
func (q *Queue) Clear(ctx context.Context) {
	q.items = nil
	q.persist(ctx)
}

func (q *Queue) persist(ctx context.Context) {
	// Persist the whole queue; failures are logged by the store and
	// swallowed here per the fail-soft contract.
	items := q.items
	if items == nil {
		items = []Item{}
	}
	q.store.Set(ctx, pendingKey, items)
}
