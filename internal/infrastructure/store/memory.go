package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"rollbook/internal/domain"
	"rollbook/internal/ports/output"
)

var _ output.Store = (*Memory)(nil)

// Memory is the in-process Store backend, the backend of choice for tests
// and ephemeral runs.
//
// Subscribers are notified synchronously while the store lock is held, so
// callbacks always observe snapshots in mutation order (the initial snapshot
// included). Callbacks must therefore not call back into the store.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	subscribers map[string]map[uint64]func(map[string]json.RawMessage)
	nextSub     uint64
}

func NewMemory() *Memory {
	return &Memory{
		collections: map[string]map[string]json.RawMessage{},
		subscribers: map[string]map[uint64]func(map[string]json.RawMessage){},
	}
}

type memorySubscription struct {
	collection string
	id         uint64
}

func (m *Memory) Subscribe(ctx context.Context, collection string, onChange func(map[string]json.RawMessage)) (output.SubscriptionHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	subs := m.subscribers[collection]
	if subs == nil {
		subs = map[uint64]func(map[string]json.RawMessage){}
		m.subscribers[collection] = subs
	}
	subs[id] = onChange

	// Delivered under the lock: no concurrent mutation can slip its (newer)
	// snapshot in ahead of this initial one.
	onChange(m.snapshotLocked(collection))
	return memorySubscription{collection: collection, id: id}, nil
}

func (m *Memory) Unsubscribe(handle output.SubscriptionHandle) {
	sub, ok := handle.(memorySubscription)
	if !ok {
		return
	}
	m.mu.Lock()
	delete(m.subscribers[sub.collection], sub.id)
	m.mu.Unlock()
}

func (m *Memory) GetOnce(ctx context.Context, collection, key string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.collections[collection][key]
	return raw, ok, nil
}

func (m *Memory) SetAt(ctx context.Context, collection, key string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectionLocked(collection)[key] = raw
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) PushNew(ctx context.Context, collection string, value any) (string, error) {
	raw, err := marshalValue(value)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collectionLocked(collection)[key] = raw
	m.notifyLocked(collection)
	return key, nil
}

func (m *Memory) RemoveAt(ctx context.Context, collection, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], key)
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) ClearCollection(ctx context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections, collection)
	m.notifyLocked(collection)
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.subscribers = map[string]map[uint64]func(map[string]json.RawMessage){}
	m.mu.Unlock()
	return nil
}

func (m *Memory) collectionLocked(collection string) map[string]json.RawMessage {
	coll := m.collections[collection]
	if coll == nil {
		coll = map[string]json.RawMessage{}
		m.collections[collection] = coll
	}
	return coll
}

func (m *Memory) snapshotLocked(collection string) map[string]json.RawMessage {
	src := m.collections[collection]
	out := make(map[string]json.RawMessage, len(src))
	for key, raw := range src {
		out[key] = raw
	}
	return out
}

func (m *Memory) notifyLocked(collection string) {
	subs := m.subscribers[collection]
	if len(subs) == 0 {
		return
	}
	snapshot := m.snapshotLocked(collection)
	for _, cb := range subs {
		cb(snapshot)
	}
}

func marshalValue(value any) (json.RawMessage, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal value: %v", domain.ErrStoreUnavailable, err)
	}
	return raw, nil
}
