// Package storage provides the device-side persistence layer: a minimal
// key-value Adapter contract that any persistent medium can satisfy, plus a
// Namespaced wrapper that adds key prefixing and structured (de)serialization
// with fail-soft error handling.
//
// The contract assumes a single logical writer per namespace per process.
// Concurrent writers from multiple processes are a caller responsibility to
// avoid (serialize externally, or accept last-write-wins at the medium).
package storage

import "context"

// Adapter is the minimal capability contract for a device-local key-value
// medium. Implementations offer best-effort durability only; the core
// assumes neither availability nor persistence guarantees beyond that.
//
// All operations take a context because the underlying medium may be
// non-instantaneous (e.g. network-backed storage). Callers must not assume
// ordering between two concurrently issued operations unless they are
// awaited sequentially.
type Adapter interface {
	// Get returns the value stored under key. ok is false when the key has
	// never been set (or was removed); err reports a medium failure.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
