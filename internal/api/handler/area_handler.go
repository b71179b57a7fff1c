package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/api/metrics"
	"github.com/unibague-gradework/orion-program/internal/audit"
	"github.com/unibague-gradework/orion-program/internal/core/auth"
	"github.com/unibague-gradework/orion-program/internal/core/domain"
	"github.com/unibague-gradework/orion-program/internal/core/ports"
)

// AreaHandler handles HTTP requests for educational areas. Areas are only
// addressable through their owning program's path.
type AreaHandler struct {
	service ports.ProgramService
	trail   audit.Recorder
	logger  zerolog.Logger
}

func NewAreaHandler(service ports.ProgramService, trail audit.Recorder, logger zerolog.Logger) *AreaHandler {
	return &AreaHandler{service: service, trail: trail, logger: logger}
}

// Create handles POST /service/program/:programId/area.
//
// @Summary      Create an educational area
// @Tags         areas
// @Accept       json
// @Produce      json
// @Param        programId  path      string             true  "Program id"
// @Param        body       body      createAreaRequest  true  "Area details"
// @Success      201        {object}  areaResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /service/program/{programId}/area [post]
func (h *AreaHandler) Create(c echo.Context) error {
	programID := c.Param("programId")
	if _, err := requireProgramManager(c.Request().Context(), programID); err != nil {
		return err
	}

	var req createAreaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	area, err := h.service.CreateEducationalArea(c.Request().Context(), programID, ports.CreateAreaInput{
		Name:     req.Name,
		LeaderID: req.LeaderID,
		Image:    req.Image,
	})
	if err != nil {
		return err
	}

	metrics.AreasMutatedTotal.WithLabelValues("created").Inc()
	return c.JSON(http.StatusCreated, toAreaResponse(*area))
}

// List handles GET /service/program/:programId/area.
//
// @Summary      List a program's educational areas
// @Tags         areas
// @Produce      json
// @Param        programId  path      string  true  "Program id"
// @Success      200        {array}   areaResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /service/program/{programId}/area [get]
func (h *AreaHandler) List(c echo.Context) error {
	programID := c.Param("programId")
	if _, err := requireProgramReader(c.Request().Context(), programID); err != nil {
		return err
	}

	areas, err := h.service.GetEducationalAreas(c.Request().Context(), programID)
	if err != nil {
		return err
	}

	out := make([]areaResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, toAreaResponse(a))
	}
	return c.JSON(http.StatusOK, out)
}

// GetByID handles GET /service/program/:programId/area/:areaId.
//
// @Summary      Get an educational area
// @Tags         areas
// @Produce      json
// @Param        programId  path      string  true  "Program id"
// @Param        areaId     path      string  true  "Educational area id"
// @Success      200        {object}  areaResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /service/program/{programId}/area/{areaId} [get]
func (h *AreaHandler) GetByID(c echo.Context) error {
	programID := c.Param("programId")
	areaID := c.Param("areaId")
	if _, err := requireProgramReader(c.Request().Context(), programID); err != nil {
		return err
	}

	area, err := h.service.GetEducationalAreaByID(c.Request().Context(), programID, areaID)
	if err != nil {
		return err
	}
	if area == nil {
		return fmt.Errorf("educational area %s in program %s: %w", areaID, programID, domain.ErrEducationalAreaNotFound)
	}

	return c.JSON(http.StatusOK, toAreaResponse(*area))
}

// Update handles PUT /service/program/:programId/area/:areaId.
//
// @Summary      Update an educational area
// @Tags         areas
// @Accept       json
// @Produce      json
// @Param        programId  path      string             true  "Program id"
// @Param        areaId     path      string             true  "Educational area id"
// @Param        body       body      updateAreaRequest  true  "Fields to update"
// @Success      200        {object}  areaResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /service/program/{programId}/area/{areaId} [put]
func (h *AreaHandler) Update(c echo.Context) error {
	programID := c.Param("programId")
	areaID := c.Param("areaId")
	if _, err := requireProgramManager(c.Request().Context(), programID); err != nil {
		return err
	}

	var req updateAreaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	area, err := h.service.UpdateEducationalArea(c.Request().Context(), programID, areaID, ports.AreaPatch{
		Name:     req.Name,
		LeaderID: req.LeaderID,
		Image:    req.Image,
	})
	if err != nil {
		return err
	}

	metrics.AreasMutatedTotal.WithLabelValues("updated").Inc()
	return c.JSON(http.StatusOK, toAreaResponse(*area))
}

// Delete handles DELETE /service/program/:programId/area/:areaId.
// Admin only.
//
// @Summary      Delete an educational area
// @Tags         areas
// @Param        programId  path  string  true  "Program id"
// @Param        areaId     path  string  true  "Educational area id"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /service/program/{programId}/area/{areaId} [delete]
func (h *AreaHandler) Delete(c echo.Context) error {
	id, err := auth.RequireAdmin(c.Request().Context())
	if err != nil {
		return err
	}

	programID := c.Param("programId")
	areaID := c.Param("areaId")
	if err := h.service.DeleteEducationalArea(c.Request().Context(), programID, areaID); err != nil {
		return err
	}

	metrics.AreasMutatedTotal.WithLabelValues("deleted").Inc()
	h.trail.Record(audit.Entry{
		Action:    audit.ActionAreaDeleted,
		ActorID:   id.UserID,
		ActorRole: id.Role,
		ProgramID: programID,
		AreaID:    areaID,
	})

	return c.NoContent(http.StatusNoContent)
}

// GetLeader handles GET /service/program/:programId/area/:areaId/leader.
//
// @Summary      Resolve the leader of an educational area
// @Tags         areas
// @Produce      json
// @Param        programId  path      string  true  "Program id"
// @Param        areaId     path      string  true  "Educational area id"
// @Success      200        {object}  leaderResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /service/program/{programId}/area/{areaId}/leader [get]
func (h *AreaHandler) GetLeader(c echo.Context) error {
	programID := c.Param("programId")
	areaID := c.Param("areaId")
	if _, err := requireProgramReader(c.Request().Context(), programID); err != nil {
		return err
	}

	user, err := h.service.GetEducationalAreaLeader(c.Request().Context(), programID, areaID)
	if err != nil {
		metrics.UserLookupsTotal.WithLabelValues("miss").Inc()
		return err
	}

	metrics.UserLookupsTotal.WithLabelValues("hit").Inc()
	return c.JSON(http.StatusOK, leaderResponse{
		IDUser: user.IDUser,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
	})
}
