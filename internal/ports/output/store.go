package output

import (
	"context"
	"encoding/json"
)

// SubscriptionHandle is the opaque token returned by Store.Subscribe and
// accepted by Store.Unsubscribe. Each backend defines its concrete type.
type SubscriptionHandle any

// Store is the persistence collaborator: keyed collections of JSON values
// with change notifications. Writes are observed back through the resulting
// notification; callers never patch their local state directly.
type Store interface {
	// Subscribe invokes onChange immediately with the full current value of
	// the collection and again after every change. The delivered map is
	// keyed by opaque entry key; it is empty when the collection does not
	// exist.
	Subscribe(ctx context.Context, collection string, onChange func(map[string]json.RawMessage)) (SubscriptionHandle, error)

	// Unsubscribe stops future notifications for the handle. Must be called
	// on teardown so callbacks are not leaked.
	Unsubscribe(handle SubscriptionHandle)

	// GetOnce is a one-shot read of a single entry. The bool reports whether
	// the entry exists.
	GetOnce(ctx context.Context, collection, key string) (json.RawMessage, bool, error)

	// SetAt overwrites the entry at key with the JSON encoding of value.
	SetAt(ctx context.Context, collection, key string, value any) error

	// PushNew inserts value under a generated key and returns that key.
	PushNew(ctx context.Context, collection string, value any) (string, error)

	// RemoveAt deletes the entry at key.
	RemoveAt(ctx context.Context, collection, key string) error

	// ClearCollection deletes every entry of the collection.
	ClearCollection(ctx context.Context, collection string) error

	// Close releases connections and stops all remaining subscriptions.
	Close() error
}
