package storage

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Namespaced wraps an Adapter with a key prefix and transparent JSON
// (de)serialization, so multiple logical stores can share one underlying
// medium without collision.
//
// Error handling is fail-soft by contract:
//   - Get returns absent on any adapter or decode failure. Callers must
//     treat "absent" and "never set" identically; losing a read must never
//     abort a session-logging flow.
//   - Set and Remove report failures to the diagnostic logger and return
//     false; callers proceed optimistically.
type Namespaced struct {
	adapter Adapter
	prefix  string
	log     *slog.Logger
}

// NewNamespaced wraps adapter under the given namespace. A nil logger
// falls back to slog.Default(); every storage failure is reported there.
func NewNamespaced(adapter Adapter, namespace string, log *slog.Logger) *Namespaced {
	if log == nil {
		log = slog.Default()
	}
	return &Namespaced{
		adapter: adapter,
		prefix:  namespace + ":",
		log:     log,
	}
}

// Get reads and decodes the value stored under key into out.
// Returns false when the key is absent, the medium fails, or the stored
// value cannot be decoded. out is left unmodified in the absent case.
func (n *Namespaced) Get(ctx context.Context, key string, out any) bool {
	full := n.prefix + key
	value, ok, err := n.adapter.Get(ctx, full)
	if err != nil {
		n.log.Warn("storage read failed, treating as absent", "key", full, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(value), out); err != nil {
		n.log.Warn("storage value undecodable, treating as absent", "key", full, "error", err)
		return false
	}
	return true
}

// Set encodes v as JSON and stores it under key.
// Returns false on failure; the failure is logged, never propagated.
func (n *Namespaced) Set(ctx context.Context, key string, v any) bool {
	full := n.prefix + key
	data, err := json.Marshal(v)
	if err != nil {
		n.log.Error("storage value unencodable, write dropped", "key", full, "error", err)
		return false
	}
	if err := n.adapter.Set(ctx, full, string(data)); err != nil {
		n.log.Error("storage write failed", "key", full, "error", err)
		return false
	}
	return true
}

// Remove deletes key. Returns false on failure; the failure is logged,
// never propagated.
func (n *Namespaced) Remove(ctx context.Context, key string) bool {
	full := n.prefix + key
	if err := n.adapter.Remove(ctx, full); err != nil {
		n.log.Error("storage remove failed", "key", full, "error", err)
		return false
	}
	return true
}
