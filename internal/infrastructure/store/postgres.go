package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rollbook/internal/domain"
	"rollbook/internal/ports/output"
)

var _ output.Store = (*Postgres)(nil)

// notifyChannel carries one payload per row mutation: the collection name.
const notifyChannel = "rollbook_changes"

// Postgres is the durable Store backend. Collections share one
// (collection, key, value) table; row triggers pg_notify on every mutation
// and each subscription re-reads its whole collection per notification,
// honoring the wholesale-replacement contract.
type Postgres struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	subs map[*pgSubscription]struct{}
}

type pgSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPostgres opens a pgx pool and verifies it with a ping.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, storeErr("connect", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, storeErr("ping", err)
	}
	slog.Info("postgres store connected")
	return &Postgres{pool: pool, subs: map[*pgSubscription]struct{}{}}, nil
}

func (p *Postgres) Subscribe(ctx context.Context, collection string, onChange func(map[string]json.RawMessage)) (output.SubscriptionHandle, error) {
	listenCtx, cancel := context.WithCancel(context.Background())
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, storeErr("acquire listener connection", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		conn.Release()
		cancel()
		return nil, storeErr("listen", err)
	}

	// The snapshot is read only after LISTEN is active: a mutation committed
	// during the read fires a notification the connection buffers, the loop
	// below picks it up and the wholesale re-read supersedes the snapshot.
	// Reading first would drop such a mutation for good.
	snapshot, err := p.readCollection(ctx, collection)
	if err != nil {
		conn.Release()
		cancel()
		return nil, err
	}

	sub := &pgSubscription{cancel: cancel, done: make(chan struct{})}
	p.mu.Lock()
	p.subs[sub] = struct{}{}
	p.mu.Unlock()

	// Deliver the initial snapshot before the listener loop can deliver a
	// newer one, so the subscriber never observes the mirror going backwards.
	onChange(snapshot)
	go p.listen(listenCtx, conn, collection, onChange, sub.done)

	return sub, nil
}

func (p *Postgres) listen(ctx context.Context, conn *pgxpool.Conn, collection string, onChange func(map[string]json.RawMessage), done chan struct{}) {
	defer close(done)
	defer conn.Release()
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("store listener lost", "collection", collection, "error", err)
			}
			return
		}
		if notification.Payload != collection {
			continue
		}
		snapshot, err := p.readCollection(ctx, collection)
		if err != nil {
			slog.Error("re-read after notification failed", "collection", collection, "error", err)
			continue
		}
		onChange(snapshot)
	}
}

func (p *Postgres) Unsubscribe(handle output.SubscriptionHandle) {
	sub, ok := handle.(*pgSubscription)
	if !ok {
		return
	}
	sub.cancel()
	<-sub.done
	p.mu.Lock()
	delete(p.subs, sub)
	p.mu.Unlock()
}

func (p *Postgres) GetOnce(ctx context.Context, collection, key string) (json.RawMessage, bool, error) {
	var value []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM collections WHERE collection = $1 AND key = $2`,
		collection, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storeErr("get entry", err)
	}
	return json.RawMessage(value), true, nil
}

func (p *Postgres) SetAt(ctx context.Context, collection, key string, value any) error {
	raw, err := marshalValue(value)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO collections (collection, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value`,
		collection, key, raw,
	)
	if err != nil {
		return storeErr("set entry", err)
	}
	return nil
}

func (p *Postgres) PushNew(ctx context.Context, collection string, value any) (string, error) {
	raw, err := marshalValue(value)
	if err != nil {
		return "", err
	}
	key := uuid.NewString()
	_, err = p.pool.Exec(ctx,
		`INSERT INTO collections (collection, key, value) VALUES ($1, $2, $3)`,
		collection, key, raw,
	)
	if err != nil {
		return "", storeErr("push entry", err)
	}
	return key, nil
}

func (p *Postgres) RemoveAt(ctx context.Context, collection, key string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM collections WHERE collection = $1 AND key = $2`,
		collection, key,
	)
	if err != nil {
		return storeErr("remove entry", err)
	}
	return nil
}

func (p *Postgres) ClearCollection(ctx context.Context, collection string) error {
	_, err := p.pool.Exec(ctx,
		`DELETE FROM collections WHERE collection = $1`,
		collection,
	)
	if err != nil {
		return storeErr("clear collection", err)
	}
	return nil
}

// Close stops every remaining subscription and closes the pool.
func (p *Postgres) Close() error {
	p.mu.Lock()
	subs := make([]*pgSubscription, 0, len(p.subs))
	for sub := range p.subs {
		subs = append(subs, sub)
	}
	p.subs = map[*pgSubscription]struct{}{}
	p.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		<-sub.done
	}
	p.pool.Close()
	return nil
}

func (p *Postgres) readCollection(ctx context.Context, collection string) (map[string]json.RawMessage, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT key, value FROM collections WHERE collection = $1`,
		collection,
	)
	if err != nil {
		return nil, storeErr("query collection", err)
	}
	defer rows.Close()

	out := map[string]json.RawMessage{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storeErr("scan entry", err)
		}
		out[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate collection", err)
	}
	return out, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
