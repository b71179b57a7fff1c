package ports

import (
	"context"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

// ProgramRepository defines persistence operations for the program
// collection. Lookups return (nil, nil) on a miss; only mutating callers
// and the API layer decide whether absence is an error.
type ProgramRepository interface {
	FindAll(ctx context.Context) ([]domain.Program, error)
	FindAllSortedByName(ctx context.Context) ([]domain.Program, error)
	FindByID(ctx context.Context, programID string) (*domain.Program, error)
	FindByName(ctx context.Context, name string) (*domain.Program, error)
	// FindByNameContains matches the substring case-insensitively and
	// returns results sorted by name so searches are deterministic.
	FindByNameContains(ctx context.Context, substring string) ([]domain.Program, error)

	// Save inserts the program when its ID is empty, assigning one.
	// Otherwise it replaces the stored document, guarded by the version
	// loaded with the program: a concurrent save in between returns
	// domain.ErrVersionConflict and the caller must reload and retry.
	Save(ctx context.Context, p *domain.Program) (*domain.Program, error)

	DeleteByID(ctx context.Context, programID string) error

	Count(ctx context.Context) (int64, error)
	CountWithAreas(ctx context.Context) (int64, error)
	CountWithoutAreas(ctx context.Context) (int64, error)
	TotalAreaCount(ctx context.Context) (int64, error)
}
