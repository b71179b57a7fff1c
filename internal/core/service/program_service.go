package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
	"github.com/unibague-gradework/orion-program/internal/core/ports"
)

// saveAttempts bounds the optimistic-concurrency retry loop on program
// mutations. Conflicts only occur when two requests modify the same program
// at once, so contention is expected to be rare and short.
const saveAttempts = 3

type ProgramService struct {
	repo      ports.ProgramRepository
	directory ports.UserDirectory
	leaders   ports.LeaderCache
	logger    zerolog.Logger
}

func NewProgramService(
	repo ports.ProgramRepository,
	directory ports.UserDirectory,
	leaders ports.LeaderCache,
	logger zerolog.Logger,
) *ProgramService {
	return &ProgramService{repo: repo, directory: directory, leaders: leaders, logger: logger}
}

// CreateProgram validates the input, enforces global name uniqueness, and
// persists the program with an empty area list.
func (s *ProgramService) CreateProgram(ctx context.Context, input ports.CreateProgramInput) (*domain.Program, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("program name is required: %w", domain.ErrInvalidProgramData)
	}

	existing, err := s.repo.FindByName(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("program with name %q: %w", input.Name, domain.ErrDuplicateProgram)
	}

	program := &domain.Program{
		ProgramName:      input.Name,
		Email:            input.Email,
		Image:            input.Image,
		EducationalAreas: []domain.EducationalArea{},
	}

	created, err := s.repo.Save(ctx, program)
	if err != nil {
		s.logger.Error().Err(err).Str("program_name", input.Name).Msg("failed to create program")
		return nil, fmt.Errorf("create program: %w", err)
	}

	s.logger.Info().Str("program_id", created.ProgramID).Str("program_name", created.ProgramName).Msg("program created")
	return created, nil
}

// GetPrograms returns all programs sorted by name, or a case-insensitive
// substring search when a term is given.
func (s *ProgramService) GetPrograms(ctx context.Context, search string) ([]domain.Program, error) {
	search = strings.TrimSpace(search)
	if search == "" {
		return s.repo.FindAllSortedByName(ctx)
	}
	return s.repo.FindByNameContains(ctx, search)
}

// GetProgramStatistics computes the aggregate snapshot from live data; the
// entity set is small enough that no precomputed index is needed.
func (s *ProgramService) GetProgramStatistics(ctx context.Context) (*ports.ProgramStatistics, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("program statistics: %w", err)
	}
	withAreas, err := s.repo.CountWithAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("program statistics: %w", err)
	}
	withoutAreas, err := s.repo.CountWithoutAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("program statistics: %w", err)
	}
	totalAreas, err := s.repo.TotalAreaCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("program statistics: %w", err)
	}

	return &ports.ProgramStatistics{
		TotalPrograms:     total,
		ProgramsWithAreas: withAreas,
		ProgramsNoAreas:   withoutAreas,
		TotalAreas:        totalAreas,
	}, nil
}

// GetProgramByID is a pure lookup: a miss returns (nil, nil) and the API
// layer decides whether that becomes a 404.
func (s *ProgramService) GetProgramByID(ctx context.Context, programID string) (*domain.Program, error) {
	if strings.TrimSpace(programID) == "" {
		return nil, fmt.Errorf("program id is required: %w", domain.ErrInvalidProgramData)
	}
	return s.repo.FindByID(ctx, programID)
}

func (s *ProgramService) GetProgramByName(ctx context.Context, name string) (*domain.Program, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("program name is required: %w", domain.ErrInvalidProgramData)
	}
	return s.repo.FindByName(ctx, name)
}

// UpdateProgram applies a partial update: the name only when non-blank (and
// not owned by another program), email and image only when non-blank. The
// area list is never replaced through this operation; area mutation happens
// only through the dedicated area operations.
func (s *ProgramService) UpdateProgram(ctx context.Context, programID string, patch ports.ProgramPatch) (*domain.Program, error) {
	updated, err := s.mutateProgram(ctx, programID, func(p *domain.Program) error {
		if name := strings.TrimSpace(patch.Name); name != "" && name != p.ProgramName {
			owner, err := s.repo.FindByName(ctx, name)
			if err != nil {
				return err
			}
			if owner != nil && owner.ProgramID != p.ProgramID {
				return fmt.Errorf("program with name %q: %w", name, domain.ErrDuplicateProgram)
			}
			p.ProgramName = name
		}
		if strings.TrimSpace(patch.Email) != "" {
			p.Email = patch.Email
		}
		if strings.TrimSpace(patch.Image) != "" {
			p.Image = patch.Image
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("program_id", programID).Msg("program updated")
	return updated, nil
}

// DeleteProgram removes the program together with all embedded areas; areas
// have no independent existence.
func (s *ProgramService) DeleteProgram(ctx context.Context, programID string) error {
	existing, err := s.repo.FindByID(ctx, programID)
	if err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	if existing == nil {
		return fmt.Errorf("program %s: %w", programID, domain.ErrProgramNotFound)
	}

	if err := s.repo.DeleteByID(ctx, programID); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}

	s.logger.Info().
		Str("program_id", programID).
		Int("areas_removed", len(existing.EducationalAreas)).
		Msg("program deleted")
	return nil
}

// CreateEducationalArea appends a new area to the program. The area id is
// derived from the current area count (<programID>A<NN>), so the append and
// the id generation run inside the version-guarded mutation.
func (s *ProgramService) CreateEducationalArea(ctx context.Context, programID string, input ports.CreateAreaInput) (*domain.EducationalArea, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("educational area name is required: %w", domain.ErrInvalidProgramData)
	}

	var created domain.EducationalArea
	_, err := s.mutateProgram(ctx, programID, func(p *domain.Program) error {
		if p.HasAreaNamed(input.Name, "") {
			return fmt.Errorf("educational area named %q already exists in program %s: %w",
				input.Name, p.ProgramID, domain.ErrInvalidProgramData)
		}
		created = domain.EducationalArea{
			EducationalAreaID: p.NextAreaID(),
			Name:              input.Name,
			LeaderID:          input.LeaderID,
			Image:             input.Image,
		}
		p.EducationalAreas = append(p.EducationalAreas, created)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("program_id", programID).
		Str("area_id", created.EducationalAreaID).
		Str("area_name", created.Name).
		Msg("educational area created")
	return &created, nil
}

func (s *ProgramService) GetEducationalAreas(ctx context.Context, programID string) ([]domain.EducationalArea, error) {
	program, err := s.repo.FindByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("get areas: %w", err)
	}
	if program == nil {
		return nil, fmt.Errorf("program %s: %w", programID, domain.ErrProgramNotFound)
	}
	if program.EducationalAreas == nil {
		return []domain.EducationalArea{}, nil
	}
	return program.EducationalAreas, nil
}

// GetEducationalAreaByID is a pure lookup within a program; a missing area
// returns (nil, nil).
func (s *ProgramService) GetEducationalAreaByID(ctx context.Context, programID, areaID string) (*domain.EducationalArea, error) {
	if strings.TrimSpace(areaID) == "" {
		return nil, fmt.Errorf("educational area id is required: %w", domain.ErrInvalidProgramData)
	}
	program, err := s.repo.FindByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("get area: %w", err)
	}
	if program == nil {
		return nil, fmt.Errorf("program %s: %w", programID, domain.ErrProgramNotFound)
	}

	idx := program.AreaIndex(areaID)
	if idx < 0 {
		return nil, nil
	}
	area := program.EducationalAreas[idx]
	return &area, nil
}

// UpdateEducationalArea sets the area name from the patch (required) and
// applies leader and image only when present, preserving stored values for
// omitted fields.
func (s *ProgramService) UpdateEducationalArea(ctx context.Context, programID, areaID string, patch ports.AreaPatch) (*domain.EducationalArea, error) {
	if strings.TrimSpace(patch.Name) == "" {
		return nil, fmt.Errorf("educational area name is required: %w", domain.ErrInvalidProgramData)
	}

	var updated domain.EducationalArea
	_, err := s.mutateProgram(ctx, programID, func(p *domain.Program) error {
		idx := p.AreaIndex(areaID)
		if idx < 0 {
			return fmt.Errorf("educational area %s in program %s: %w", areaID, programID, domain.ErrEducationalAreaNotFound)
		}
		if p.HasAreaNamed(patch.Name, areaID) {
			return fmt.Errorf("educational area named %q already exists in program %s: %w",
				patch.Name, programID, domain.ErrInvalidProgramData)
		}

		area := &p.EducationalAreas[idx]
		area.Name = patch.Name
		if patch.LeaderID != nil {
			area.LeaderID = *patch.LeaderID
		}
		if patch.Image != nil {
			area.Image = *patch.Image
		}
		updated = *area
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("program_id", programID).Str("area_id", areaID).Msg("educational area updated")
	return &updated, nil
}

func (s *ProgramService) DeleteEducationalArea(ctx context.Context, programID, areaID string) error {
	_, err := s.mutateProgram(ctx, programID, func(p *domain.Program) error {
		idx := p.AreaIndex(areaID)
		if idx < 0 {
			return fmt.Errorf("educational area %s in program %s: %w", areaID, programID, domain.ErrEducationalAreaNotFound)
		}
		p.EducationalAreas = append(p.EducationalAreas[:idx], p.EducationalAreas[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info().Str("program_id", programID).Str("area_id", areaID).Msg("educational area deleted")
	return nil
}

// GetEducationalAreaLeader resolves the area's leader through the cache and
// the remote user directory. Unlike plain lookups this operation exists only
// to return the leader, so an unresolvable leader is an error here.
func (s *ProgramService) GetEducationalAreaLeader(ctx context.Context, programID, areaID string) (*domain.User, error) {
	area, err := s.GetEducationalAreaByID(ctx, programID, areaID)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, fmt.Errorf("educational area %s in program %s: %w", areaID, programID, domain.ErrEducationalAreaNotFound)
	}
	if strings.TrimSpace(area.LeaderID) == "" {
		return nil, fmt.Errorf("educational area %s has no leader assigned: %w", areaID, domain.ErrInvalidProgramData)
	}

	if s.leaders != nil {
		if user, ok := s.leaders.Get(ctx, area.LeaderID); ok {
			return user, nil
		}
	}

	user, err := s.directory.GetUserByID(ctx, area.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("resolve leader %s: %w", area.LeaderID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("leader %s not found in user directory: %w", area.LeaderID, domain.ErrInvalidProgramData)
	}

	if s.leaders != nil {
		s.leaders.Put(ctx, user)
	}
	return user, nil
}

// mutateProgram loads the program, applies mutate, and saves under the
// optimistic version guard, reloading and reapplying on conflict up to
// saveAttempts times. This closes the read-then-write window that would
// otherwise let two concurrent area creations generate the same area id or
// both pass the uniqueness check.
func (s *ProgramService) mutateProgram(ctx context.Context, programID string, mutate func(*domain.Program) error) (*domain.Program, error) {
	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		program, err := s.repo.FindByID(ctx, programID)
		if err != nil {
			return nil, fmt.Errorf("load program: %w", err)
		}
		if program == nil {
			return nil, fmt.Errorf("program %s: %w", programID, domain.ErrProgramNotFound)
		}
		if program.EducationalAreas == nil {
			program.EducationalAreas = []domain.EducationalArea{}
		}

		if err := mutate(program); err != nil {
			return nil, err
		}

		saved, err := s.repo.Save(ctx, program)
		if err == nil {
			return saved, nil
		}
		if !isVersionConflict(err) {
			return nil, fmt.Errorf("save program: %w", err)
		}

		lastErr = err
		s.logger.Warn().
			Str("program_id", programID).
			Int("attempt", attempt).
			Msg("program version conflict, retrying")
	}
	return nil, fmt.Errorf("save program after %d attempts: %w", saveAttempts, lastErr)
}

func isVersionConflict(err error) bool {
	return errors.Is(err, domain.ErrVersionConflict)
}
