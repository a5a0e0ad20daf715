package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"rollbook/internal/domain"
	"rollbook/internal/domain/entities"
	"rollbook/internal/ports/input"
	"rollbook/internal/ports/output"
	"rollbook/pkg/names"
)

var _ input.RosterUseCase = (*RosterService)(nil)

// RosterService owns the canonical, deduplicated set of participant names.
// Its in-memory mirror is replaced wholesale by the players subscription;
// writes go straight to the store and are observed back through the
// resulting notification, never applied optimistically.
type RosterService struct {
	store output.Store

	mu    sync.RWMutex
	byKey map[string]string // store key -> stored name

	handle output.SubscriptionHandle
}

func NewRosterService(store output.Store) *RosterService {
	return &RosterService{
		store: store,
		byKey: map[string]string{},
	}
}

// Start subscribes the mirror. The subscription delivers the current roster
// immediately, so the service is queryable as soon as Start returns.
func (s *RosterService) Start(ctx context.Context) error {
	handle, err := s.store.Subscribe(ctx, domain.CollectionPlayers, s.onChange)
	if err != nil {
		return fmt.Errorf("subscribe players: %w", err)
	}
	s.handle = handle
	return nil
}

// Stop unsubscribes the mirror.
func (s *RosterService) Stop() {
	if s.handle != nil {
		s.store.Unsubscribe(s.handle)
		s.handle = nil
	}
}

func (s *RosterService) onChange(current map[string]json.RawMessage) {
	next := make(map[string]string, len(current))
	for key, raw := range current {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			slog.Warn("skipping undecodable roster entry", "key", key, "error", err)
			continue
		}
		next[key] = name
	}
	s.mu.Lock()
	s.byKey = next
	s.mu.Unlock()
	slog.Debug("roster mirror replaced", "count", len(next))
}

// Add normalizes rawName, validates it and persists it as a new roster
// entry. The duplicate check is case-insensitive on the normalized form, so
// "john", "JOHN" and "John" are all the same participant.
func (s *RosterService) Add(ctx context.Context, rawName string) (*entities.Participant, error) {
	name := names.Title(rawName)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if !names.ValidCharset(name) {
		return nil, domain.ErrInvalidCharacters
	}

	foldKey := names.Fold(name)
	s.mu.RLock()
	for _, existing := range s.byKey {
		if names.Fold(existing) == foldKey {
			s.mu.RUnlock()
			return nil, domain.ErrDuplicateParticipant
		}
	}
	s.mu.RUnlock()

	key, err := s.store.PushNew(ctx, domain.CollectionPlayers, name)
	if err != nil {
		return nil, fmt.Errorf("push participant: %w", err)
	}
	slog.Info("participant added", "name", name, "key", key)
	return &entities.Participant{Key: key, Name: name}, nil
}

// Remove deletes the roster entry whose stored name equals name exactly.
// Attendance history is untouched: past records are facts, not live joins.
func (s *RosterService) Remove(ctx context.Context, name string) error {
	var key string
	s.mu.RLock()
	for k, existing := range s.byKey {
		if existing == name {
			key = k
			break
		}
	}
	s.mu.RUnlock()
	if key == "" {
		return domain.ErrParticipantNotFound
	}

	if err := s.store.RemoveAt(ctx, domain.CollectionPlayers, key); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	slog.Info("participant removed", "name", name)
	return nil
}

// List returns the current roster sorted case-insensitively by name,
// ascending. The result is a materialized copy.
func (s *RosterService) List() []entities.Participant {
	s.mu.RLock()
	out := make([]entities.Participant, 0, len(s.byKey))
	for key, name := range s.byKey {
		out = append(out, entities.Participant{Key: key, Name: name})
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		fi, fj := names.Fold(out[i].Name), names.Fold(out[j].Name)
		if fi != fj {
			return fi < fj
		}
		return out[i].Name < out[j].Name
	})
	return out
}
