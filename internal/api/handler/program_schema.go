package handler

import (
	"time"

	"github.com/unibague-gradework/orion-program/internal/core/domain"
	"github.com/unibague-gradework/orion-program/internal/core/ports"
)

// --- Request types ---

type createProgramRequest struct {
	ProgramName string `json:"programName" validate:"required,min=2,max=100"`
	Email       string `json:"email"       validate:"omitempty,email"`
	Image       string `json:"image"`
}

// updateProgramRequest carries a partial update: blank fields are left
// untouched. The area list is absent on purpose; program updates never
// touch areas.
type updateProgramRequest struct {
	ProgramName string `json:"programName" validate:"omitempty,min=2,max=100"`
	Email       string `json:"email"       validate:"omitempty,email"`
	Image       string `json:"image"`
}

type createAreaRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=80"`
	LeaderID string `json:"leaderId"`
	Image    string `json:"image"`
}

// updateAreaRequest distinguishes omitted fields (nil pointers, preserved)
// from present-but-empty fields (applied, clearing the value).
type updateAreaRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=80"`
	LeaderID *string `json:"leaderId"`
	Image    *string `json:"image"`
}

// --- Response types ---
// Intentionally separate from domain types so the JSON contract is not
// coupled to internal changes.

type areaResponse struct {
	EducationalAreaID string `json:"educationalAreaId"`
	Name              string `json:"name"`
	LeaderID          string `json:"leaderId,omitempty"`
	Image             string `json:"image,omitempty"`
}

type programResponse struct {
	ProgramID        string         `json:"programId"`
	ProgramName      string         `json:"programName"`
	Email            string         `json:"email,omitempty"`
	Image            string         `json:"image,omitempty"`
	EducationalAreas []areaResponse `json:"educationalAreas"`
}

type statisticsResponse struct {
	Statistics  ports.ProgramStatistics `json:"statistics"`
	RequestedBy string                  `json:"requestedBy"`
	RequestedAt time.Time               `json:"requestedAt"`
}

type leaderResponse struct {
	IDUser string `json:"idUser"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

func toAreaResponse(a domain.EducationalArea) areaResponse {
	return areaResponse{
		EducationalAreaID: a.EducationalAreaID,
		Name:              a.Name,
		LeaderID:          a.LeaderID,
		Image:             a.Image,
	}
}

func toProgramResponse(p *domain.Program) programResponse {
	areas := make([]areaResponse, 0, len(p.EducationalAreas))
	for _, a := range p.EducationalAreas {
		areas = append(areas, toAreaResponse(a))
	}
	return programResponse{
		ProgramID:        p.ProgramID,
		ProgramName:      p.ProgramName,
		Email:            p.Email,
		Image:            p.Image,
		EducationalAreas: areas,
	}
}
