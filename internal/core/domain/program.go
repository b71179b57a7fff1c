package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidProgramData = errors.New("invalid program data")
var ErrProgramNotFound = errors.New("program not found")
var ErrEducationalAreaNotFound = errors.New("educational area not found")
var ErrDuplicateProgram = errors.New("program already exists")

// ErrVersionConflict is returned by the repository when a save loses the
// optimistic-concurrency race on a program document.
var ErrVersionConflict = errors.New("program version conflict")

// EducationalArea is a named sub-unit of a program. Areas have no existence
// outside their owning program; they are embedded in the program document.
type EducationalArea struct {
	EducationalAreaID string `json:"educationalAreaId" bson:"educational_area_id"`
	Name              string `json:"name" bson:"name"`
	LeaderID          string `json:"leaderId,omitempty" bson:"leader_id,omitempty"`
	Image             string `json:"image,omitempty" bson:"image,omitempty"`
}

// Program is the aggregate root: an academic program owning an ordered list
// of educational areas. Version guards whole-document saves against
// concurrent modification.
type Program struct {
	ProgramID        string            `json:"programId" bson:"_id,omitempty"`
	ProgramName      string            `json:"programName" bson:"program_name"`
	Email            string            `json:"email,omitempty" bson:"email,omitempty"`
	Image            string            `json:"image,omitempty" bson:"image,omitempty"`
	EducationalAreas []EducationalArea `json:"educationalAreas" bson:"educational_areas"`
	Version          int64             `json:"-" bson:"version"`
}

// NextAreaID derives the id for the program's next educational area:
// the program id, the literal "A", and a two-digit 1-based sequence number
// taken from the current area count.
func (p *Program) NextAreaID() string {
	return fmt.Sprintf("%sA%02d", p.ProgramID, len(p.EducationalAreas)+1)
}

// AreaIndex returns the position of the area with the given id, or -1.
func (p *Program) AreaIndex(areaID string) int {
	for i, a := range p.EducationalAreas {
		if a.EducationalAreaID == areaID {
			return i
		}
	}
	return -1
}

// HasAreaNamed reports whether another area in the program already carries
// the name, compared case-insensitively. excludeID skips the area being
// updated so a rename to the same name is not a collision.
func (p *Program) HasAreaNamed(name, excludeID string) bool {
	for _, a := range p.EducationalAreas {
		if a.EducationalAreaID == excludeID {
			continue
		}
		if strings.EqualFold(a.Name, name) {
			return true
		}
	}
	return false
}
