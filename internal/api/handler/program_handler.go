package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/api/metrics"
	"github.com/unibague-gradework/orion-program/internal/audit"
	"github.com/unibague-gradework/orion-program/internal/core/auth"
	"github.com/unibague-gradework/orion-program/internal/core/domain"
	"github.com/unibague-gradework/orion-program/internal/core/ports"
)

// ProgramHandler handles HTTP requests for program operations.
type ProgramHandler struct {
	service ports.ProgramService
	trail   audit.Recorder
	logger  zerolog.Logger
}

func NewProgramHandler(service ports.ProgramService, trail audit.Recorder, logger zerolog.Logger) *ProgramHandler {
	return &ProgramHandler{service: service, trail: trail, logger: logger}
}

// Create handles POST /service/program.
//
// @Summary      Create a new program
// @Tags         programs
// @Accept       json
// @Produce      json
// @Param        body  body      createProgramRequest  true  "Program details"
// @Success      201   {object}  programResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /service/program [post]
func (h *ProgramHandler) Create(c echo.Context) error {
	id, err := requireElevated(c.Request().Context())
	if err != nil {
		return err
	}

	var req createProgramRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.service.CreateProgram(c.Request().Context(), ports.CreateProgramInput{
		Name:  req.ProgramName,
		Email: req.Email,
		Image: req.Image,
	})
	if err != nil {
		return err
	}

	metrics.ProgramsCreatedTotal.Inc()
	h.trail.Record(audit.Entry{
		Action:    audit.ActionProgramCreated,
		ActorID:   id.UserID,
		ActorRole: id.Role,
		ProgramID: created.ProgramID,
		Detail:    created.ProgramName,
	})

	return c.JSON(http.StatusCreated, toProgramResponse(created))
}

// List handles GET /service/program?search=. Programs the caller may not
// access are dropped from the result, never an error.
//
// @Summary      List programs
// @Tags         programs
// @Produce      json
// @Param        search  query     string  false  "Case-insensitive name substring"
// @Success      200     {array}   programResponse
// @Failure      401     {object}  errorResponse
// @Router       /service/program [get]
func (h *ProgramHandler) List(c echo.Context) error {
	id, err := auth.RequireAuthentication(c.Request().Context())
	if err != nil {
		return err
	}

	programs, err := h.service.GetPrograms(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return err
	}

	out := make([]programResponse, 0, len(programs))
	for i := range programs {
		p := &programs[i]
		if !id.IsAdmin() && !id.IsCoordinator() && !id.HasAccessToProgram(p.ProgramID) {
			continue
		}
		out = append(out, toProgramResponse(p))
	}

	return c.JSON(http.StatusOK, out)
}

// Statistics handles GET /service/program/statistics.
//
// @Summary      Program statistics
// @Tags         programs
// @Produce      json
// @Success      200  {object}  statisticsResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /service/program/statistics [get]
func (h *ProgramHandler) Statistics(c echo.Context) error {
	id, err := requireElevated(c.Request().Context())
	if err != nil {
		return err
	}

	stats, err := h.service.GetProgramStatistics(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, statisticsResponse{
		Statistics:  *stats,
		RequestedBy: id.UserID,
		RequestedAt: time.Now().UTC(),
	})
}

// GetByID handles GET /service/program/:programId.
//
// @Summary      Get a program by id
// @Tags         programs
// @Produce      json
// @Param        programId  path      string  true  "Program id"
// @Success      200        {object}  programResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /service/program/{programId} [get]
func (h *ProgramHandler) GetByID(c echo.Context) error {
	programID := c.Param("programId")
	if _, err := requireProgramReader(c.Request().Context(), programID); err != nil {
		return err
	}

	program, err := h.service.GetProgramByID(c.Request().Context(), programID)
	if err != nil {
		return err
	}
	if program == nil {
		return fmt.Errorf("program %s: %w", programID, domain.ErrProgramNotFound)
	}

	return c.JSON(http.StatusOK, toProgramResponse(program))
}

// GetByName handles GET /service/program/name/:programName. The access
// check needs the program id, so it runs after the lookup; an existing but
// inaccessible program yields 403.
//
// @Summary      Get a program by name
// @Tags         programs
// @Produce      json
// @Param        programName  path      string  true  "Program name"
// @Success      200          {object}  programResponse
// @Failure      403          {object}  errorResponse
// @Failure      404          {object}  errorResponse
// @Router       /service/program/name/{programName} [get]
func (h *ProgramHandler) GetByName(c echo.Context) error {
	if _, err := auth.RequireAuthentication(c.Request().Context()); err != nil {
		return err
	}

	name := c.Param("programName")
	program, err := h.service.GetProgramByName(c.Request().Context(), name)
	if err != nil {
		return err
	}
	if program == nil {
		return fmt.Errorf("program named %q: %w", name, domain.ErrProgramNotFound)
	}

	if _, err := requireProgramReader(c.Request().Context(), program.ProgramID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProgramResponse(program))
}

// Update handles PUT /service/program/:programId.
//
// @Summary      Update a program
// @Tags         programs
// @Accept       json
// @Produce      json
// @Param        programId  path      string                true  "Program id"
// @Param        body       body      updateProgramRequest  true  "Fields to update"
// @Success      200        {object}  programResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Router       /service/program/{programId} [put]
func (h *ProgramHandler) Update(c echo.Context) error {
	programID := c.Param("programId")
	if _, err := requireProgramManager(c.Request().Context(), programID); err != nil {
		return err
	}

	var req updateProgramRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.service.UpdateProgram(c.Request().Context(), programID, ports.ProgramPatch{
		Name:  req.ProgramName,
		Email: req.Email,
		Image: req.Image,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toProgramResponse(updated))
}

// Delete handles DELETE /service/program/:programId. Admin only; removes
// the program and every embedded area.
//
// @Summary      Delete a program
// @Tags         programs
// @Param        programId  path  string  true  "Program id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /service/program/{programId} [delete]
func (h *ProgramHandler) Delete(c echo.Context) error {
	id, err := auth.RequireAdmin(c.Request().Context())
	if err != nil {
		return err
	}

	programID := c.Param("programId")
	if err := h.service.DeleteProgram(c.Request().Context(), programID); err != nil {
		return err
	}

	metrics.ProgramsDeletedTotal.Inc()
	h.trail.Record(audit.Entry{
		Action:    audit.ActionProgramDeleted,
		ActorID:   id.UserID,
		ActorRole: id.Role,
		ProgramID: programID,
	})

	return c.NoContent(http.StatusNoContent)
}
