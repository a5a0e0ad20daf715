package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"rollbook/internal/domain"
	"rollbook/internal/domain/entities"
	"rollbook/internal/ports/input"
	"rollbook/internal/ports/output"
)

var _ input.AttendanceUseCase = (*AttendanceService)(nil)

// dateLayout is the single canonical date-key format. Keys are always
// produced by reformatting a parsed date, never by string-mangling a
// display-formatted one.
const dateLayout = "2006-01-02"

// attendanceValue is the stored shape of one record: the date repeated inside
// the value plus the sorted player list, matching the legacy store layout.
type attendanceValue struct {
	Date    string   `json:"date"`
	Players []string `json:"players"`
}

// AttendanceService owns the per-date attendance records. Saves merge with
// whatever participant set already exists for the date; the merged union is
// written back wholesale, which makes Save idempotent.
type AttendanceService struct {
	store          output.Store
	allowPastDates bool

	mu      sync.RWMutex
	records map[string]entities.AttendanceRecord

	handle output.SubscriptionHandle
}

// NewAttendanceService builds the service. allowPastDates is caller policy:
// when false, Save rejects dates before today. The core never hardcodes the
// restriction.
func NewAttendanceService(store output.Store, allowPastDates bool) *AttendanceService {
	return &AttendanceService{
		store:          store,
		allowPastDates: allowPastDates,
		records:        map[string]entities.AttendanceRecord{},
	}
}

// Start subscribes the mirror.
func (s *AttendanceService) Start(ctx context.Context) error {
	handle, err := s.store.Subscribe(ctx, domain.CollectionAttendance, s.onChange)
	if err != nil {
		return fmt.Errorf("subscribe attendance: %w", err)
	}
	s.handle = handle
	return nil
}

// Stop unsubscribes the mirror.
func (s *AttendanceService) Stop() {
	if s.handle != nil {
		s.store.Unsubscribe(s.handle)
		s.handle = nil
	}
}

func (s *AttendanceService) onChange(current map[string]json.RawMessage) {
	next := make(map[string]entities.AttendanceRecord, len(current))
	for key, raw := range current {
		var value attendanceValue
		if err := json.Unmarshal(raw, &value); err != nil {
			slog.Warn("skipping undecodable attendance entry", "key", key, "error", err)
			continue
		}
		if value.Date == "" || value.Players == nil {
			slog.Warn("skipping malformed attendance entry", "key", key)
			continue
		}
		next[key] = entities.AttendanceRecord{Date: value.Date, Participants: value.Players}
	}
	s.mu.Lock()
	s.records = next
	s.mu.Unlock()
	slog.Debug("attendance mirror replaced", "count", len(next))
}

// Save records the selected participants as present on date, merging with
// any existing record for that date. The union is case-sensitive: roster Add
// is where case-insensitive uniqueness is enforced, so callers must pass
// roster-canonical names.
//
// Two concurrent saves for the same date can both read the pre-update set
// and each write a merge missing the other's additions. Accepted for a
// single-operator tool; fixing it would need a compare-and-set primitive
// from the store.
func (s *AttendanceService) Save(ctx context.Context, date string, selected []string) (*entities.AttendanceRecord, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}
	key := day.Format(dateLayout)
	if !s.allowPastDates && day.Before(today()) {
		return nil, domain.ErrPastDate
	}
	if len(selected) == 0 {
		return nil, domain.ErrNoParticipants
	}

	var existing []string
	raw, ok, err := s.store.GetOnce(ctx, domain.CollectionAttendance, key)
	if err != nil {
		return nil, fmt.Errorf("read attendance %s: %w", key, err)
	}
	if ok {
		var value attendanceValue
		if err := json.Unmarshal(raw, &value); err != nil {
			slog.Warn("ignoring undecodable existing attendance value", "date", key, "error", err)
		} else {
			existing = value.Players
		}
	}

	merged := sortedUnion(existing, selected)
	if err := s.store.SetAt(ctx, domain.CollectionAttendance, key, attendanceValue{Date: key, Players: merged}); err != nil {
		return nil, fmt.Errorf("write attendance %s: %w", key, err)
	}
	slog.Info("attendance saved", "date", key, "participants", len(merged))
	return &entities.AttendanceRecord{Date: key, Participants: merged}, nil
}

// Delete removes the record for date. Irreversible; no tombstone.
func (s *AttendanceService) Delete(ctx context.Context, date string) error {
	s.mu.RLock()
	_, ok := s.records[date]
	s.mu.RUnlock()
	if !ok {
		return domain.ErrRecordNotFound
	}

	if err := s.store.RemoveAt(ctx, domain.CollectionAttendance, date); err != nil {
		return fmt.Errorf("delete attendance %s: %w", date, err)
	}
	slog.Info("attendance deleted", "date", date)
	return nil
}

// DeleteAll clears every attendance record unconditionally.
func (s *AttendanceService) DeleteAll(ctx context.Context) error {
	if err := s.store.ClearCollection(ctx, domain.CollectionAttendance); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}
	slog.Info("attendance history cleared")
	return nil
}

// List returns all records sorted by date descending (most recent first).
// The result is a materialized copy; mutating it does not touch the mirror.
func (s *AttendanceService) List() []entities.AttendanceRecord {
	s.mu.RLock()
	out := make([]entities.AttendanceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, entities.AttendanceRecord{
			Date:         rec.Date,
			Participants: append([]string(nil), rec.Participants...),
		})
	}
	s.mu.RUnlock()

	// ISO dates order lexicographically.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out
}

func sortedUnion(a, b []string) []string {
	set := make(map[string]struct{}, len(a)+len(b))
	for _, name := range a {
		set[name] = struct{}{}
	}
	for _, name := range b {
		set[name] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// today is the operator's local calendar date, rebuilt as a UTC midnight so
// it compares against the UTC midnight time.Parse produces for date keys.
func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
