package input

import (
	"context"

	"rollbook/internal/domain/entities"
)

// RosterUseCase is the roster surface the presentation layer consumes.
type RosterUseCase interface {
	Add(ctx context.Context, rawName string) (*entities.Participant, error)
	Remove(ctx context.Context, name string) error
	List() []entities.Participant
}
