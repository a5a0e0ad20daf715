package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbook/internal/domain"
	"rollbook/internal/infrastructure/store"
)

func newAttendance(t *testing.T, allowPastDates bool) *AttendanceService {
	t.Helper()
	svc := NewAttendanceService(store.NewMemory(), allowPastDates)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)
	return svc
}

func TestSaveCreatesSortedUniqueRecord(t *testing.T) {
	svc := newAttendance(t, true)

	rec, err := svc.Save(context.Background(), "2024-02-28", []string{"Bob", "Alice", "Bob"})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-28", rec.Date)
	assert.Equal(t, []string{"Alice", "Bob"}, rec.Participants)
}

func TestSaveMergesWithExistingRecord(t *testing.T) {
	svc := newAttendance(t, true)

	_, err := svc.Save(context.Background(), "2024-02-28", []string{"Alice"})
	require.NoError(t, err)

	rec, err := svc.Save(context.Background(), "2024-02-28", []string{"Bob"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "Bob"}, rec.Participants)

	records := svc.List()
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Alice", "Bob"}, records[0].Participants)
}

func TestSaveIsIdempotent(t *testing.T) {
	svc := newAttendance(t, true)

	first, err := svc.Save(context.Background(), "2024-02-28", []string{"Alice", "Bob"})
	require.NoError(t, err)
	second, err := svc.Save(context.Background(), "2024-02-28", []string{"Alice", "Bob"})
	require.NoError(t, err)

	assert.Equal(t, first.Participants, second.Participants)

	records := svc.List()
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Alice", "Bob"}, records[0].Participants)
}

func TestSaveMergeIsCaseSensitive(t *testing.T) {
	svc := newAttendance(t, true)

	// Case-insensitive uniqueness is a roster concern; attendance merges by
	// exact string equality.
	_, err := svc.Save(context.Background(), "2024-02-28", []string{"alice"})
	require.NoError(t, err)

	rec, err := svc.Save(context.Background(), "2024-02-28", []string{"Alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice", "alice"}, rec.Participants)
}

func TestSaveInvalidDate(t *testing.T) {
	svc := newAttendance(t, true)

	for _, date := range []string{"", "not-a-date", "2024-02-30", "28/02/2024", "2024-13-01"} {
		_, err := svc.Save(context.Background(), date, []string{"Alice"})
		assert.ErrorIs(t, err, domain.ErrInvalidDate, "date %q", date)
	}
	assert.Empty(t, svc.List())
}

func TestSaveEmptySelection(t *testing.T) {
	svc := newAttendance(t, true)

	_, err := svc.Save(context.Background(), "2024-02-28", nil)
	assert.ErrorIs(t, err, domain.ErrNoParticipants)
	assert.Empty(t, svc.List())
}

func TestSavePastDatePolicy(t *testing.T) {
	restricted := newAttendance(t, false)

	_, err := restricted.Save(context.Background(), "2000-01-01", []string{"Alice"})
	assert.ErrorIs(t, err, domain.ErrPastDate)

	_, err = restricted.Save(context.Background(), "2100-01-01", []string{"Alice"})
	assert.NoError(t, err)

	permissive := newAttendance(t, true)
	_, err = permissive.Save(context.Background(), "2000-01-01", []string{"Alice"})
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	svc := newAttendance(t, true)

	err := svc.Delete(context.Background(), "2024-02-28")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = svc.Save(context.Background(), "2024-02-28", []string{"Alice"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "2024-02-28"))
	assert.Empty(t, svc.List())

	err = svc.Delete(context.Background(), "2024-02-28")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestDeleteAll(t *testing.T) {
	svc := newAttendance(t, true)

	_, err := svc.Save(context.Background(), "2024-01-01", []string{"Alice"})
	require.NoError(t, err)
	_, err = svc.Save(context.Background(), "2024-02-01", []string{"Bob"})
	require.NoError(t, err)
	require.Len(t, svc.List(), 2)

	require.NoError(t, svc.DeleteAll(context.Background()))
	assert.Empty(t, svc.List())
}

func TestListSortedByDateDescending(t *testing.T) {
	svc := newAttendance(t, true)

	for _, date := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		_, err := svc.Save(context.Background(), date, []string{"Alice"})
		require.NoError(t, err)
	}

	records := svc.List()
	require.Len(t, records, 3)
	assert.Equal(t, "2024-03-01", records[0].Date)
	assert.Equal(t, "2024-02-01", records[1].Date)
	assert.Equal(t, "2024-01-01", records[2].Date)
}

func TestRosterRemovalKeepsHistory(t *testing.T) {
	backend := store.NewMemory()

	roster := NewRosterService(backend)
	require.NoError(t, roster.Start(context.Background()))
	t.Cleanup(roster.Stop)

	attendance := NewAttendanceService(backend, true)
	require.NoError(t, attendance.Start(context.Background()))
	t.Cleanup(attendance.Stop)

	_, err := roster.Add(context.Background(), "alice")
	require.NoError(t, err)
	_, err = attendance.Save(context.Background(), "2024-02-28", []string{"Alice"})
	require.NoError(t, err)

	require.NoError(t, roster.Remove(context.Background(), "Alice"))

	records := attendance.List()
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Alice"}, records[0].Participants)
}
