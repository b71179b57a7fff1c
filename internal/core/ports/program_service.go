package ports

import (
	"context"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
)

// CreateProgramInput carries the data for a new program.
type CreateProgramInput struct {
	Name  string
	Email string
	Image string
}

// ProgramPatch carries a partial program update. Blank fields leave the
// stored value untouched; the educational-area list is never modified
// through a program update.
type ProgramPatch struct {
	Name  string
	Email string
	Image string
}

// CreateAreaInput carries the data for a new educational area. The area id
// is generated by the service, never supplied by the caller.
type CreateAreaInput struct {
	Name     string
	LeaderID string
	Image    string
}

// AreaPatch carries a partial area update. Name is always applied (and must
// be non-blank); LeaderID and Image are applied only when present so an
// omitted field preserves the stored value.
type AreaPatch struct {
	Name     string
	LeaderID *string
	Image    *string
}

// ProgramStatistics is the live aggregate snapshot over all programs.
type ProgramStatistics struct {
	TotalPrograms     int64 `json:"totalPrograms"`
	ProgramsWithAreas int64 `json:"programsWithAreas"`
	ProgramsNoAreas   int64 `json:"programsWithoutAreas"`
	TotalAreas        int64 `json:"totalAreas"`
}

// ProgramService defines the use-case operations of the consistency engine.
type ProgramService interface {
	CreateProgram(ctx context.Context, input CreateProgramInput) (*domain.Program, error)
	GetPrograms(ctx context.Context, search string) ([]domain.Program, error)
	GetProgramStatistics(ctx context.Context) (*ProgramStatistics, error)
	GetProgramByID(ctx context.Context, programID string) (*domain.Program, error)
	GetProgramByName(ctx context.Context, name string) (*domain.Program, error)
	UpdateProgram(ctx context.Context, programID string, patch ProgramPatch) (*domain.Program, error)
	DeleteProgram(ctx context.Context, programID string) error

	CreateEducationalArea(ctx context.Context, programID string, input CreateAreaInput) (*domain.EducationalArea, error)
	GetEducationalAreas(ctx context.Context, programID string) ([]domain.EducationalArea, error)
	GetEducationalAreaByID(ctx context.Context, programID, areaID string) (*domain.EducationalArea, error)
	UpdateEducationalArea(ctx context.Context, programID, areaID string, patch AreaPatch) (*domain.EducationalArea, error)
	DeleteEducationalArea(ctx context.Context, programID, areaID string) error

	GetEducationalAreaLeader(ctx context.Context, programID, areaID string) (*domain.User, error)
}
