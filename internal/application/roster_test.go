package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbook/internal/domain"
	"rollbook/internal/infrastructure/store"
)

func newRoster(t *testing.T) *RosterService {
	t.Helper()
	svc := NewRosterService(store.NewMemory())
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Stop)
	return svc
}

func TestAddNormalizesName(t *testing.T) {
	svc := newRoster(t)

	p, err := svc.Add(context.Background(), "  jOhN sMiTh ")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", p.Name)
	assert.NotEmpty(t, p.Key)

	// The mirror is fed by the subscription, not by optimistic local state.
	participants := svc.List()
	require.Len(t, participants, 1)
	assert.Equal(t, "John Smith", participants[0].Name)
}

func TestAddEmptyName(t *testing.T) {
	svc := newRoster(t)

	for _, raw := range []string{"", "   "} {
		_, err := svc.Add(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrEmptyName, "input %q", raw)
	}
	assert.Empty(t, svc.List())
}

func TestAddInvalidCharacters(t *testing.T) {
	svc := newRoster(t)

	_, err := svc.Add(context.Background(), "John!")
	assert.ErrorIs(t, err, domain.ErrInvalidCharacters)

	// Digits are allowed.
	_, err = svc.Add(context.Background(), "John123")
	assert.NoError(t, err)
}

func TestAddDuplicateIsCaseInsensitive(t *testing.T) {
	svc := newRoster(t)

	_, err := svc.Add(context.Background(), "john")
	require.NoError(t, err)

	for _, raw := range []string{"JOHN", "John", "jOhN"} {
		_, err := svc.Add(context.Background(), raw)
		assert.ErrorIs(t, err, domain.ErrDuplicateParticipant, "input %q", raw)
	}
	assert.Len(t, svc.List(), 1)
}

func TestRemove(t *testing.T) {
	svc := newRoster(t)

	_, err := svc.Add(context.Background(), "alice")
	require.NoError(t, err)

	// Removal matches the stored value exactly, not a re-normalized form.
	err = svc.Remove(context.Background(), "alice")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

	require.NoError(t, svc.Remove(context.Background(), "Alice"))
	assert.Empty(t, svc.List())

	err = svc.Remove(context.Background(), "Alice")
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)
}

func TestListSortedCaseInsensitively(t *testing.T) {
	svc := newRoster(t)

	for _, raw := range []string{"charlie", "Alice", "bob"} {
		_, err := svc.Add(context.Background(), raw)
		require.NoError(t, err)
	}

	participants := svc.List()
	require.Len(t, participants, 3)
	assert.Equal(t, "Alice", participants[0].Name)
	assert.Equal(t, "Bob", participants[1].Name)
	assert.Equal(t, "Charlie", participants[2].Name)
}
