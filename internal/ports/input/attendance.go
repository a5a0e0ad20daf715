package input

import (
	"context"

	"rollbook/internal/domain/entities"
)

// AttendanceUseCase is the attendance surface the presentation layer
// consumes.
type AttendanceUseCase interface {
	Save(ctx context.Context, date string, selected []string) (*entities.AttendanceRecord, error)
	Delete(ctx context.Context, date string) error
	DeleteAll(ctx context.Context) error
	List() []entities.AttendanceRecord
}
