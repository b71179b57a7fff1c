package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/api"
	"github.com/unibague-gradework/orion-program/internal/api/handler"
	"github.com/unibague-gradework/orion-program/internal/api/middleware"
	"github.com/unibague-gradework/orion-program/internal/audit"
	"github.com/unibague-gradework/orion-program/internal/core/auth"
	"github.com/unibague-gradework/orion-program/internal/core/domain"
	"github.com/unibague-gradework/orion-program/internal/core/service"
)

// ---------------------------------------------------------------------------
// In-memory collaborators
// ---------------------------------------------------------------------------

type memRepo struct {
	byID   map[string]*domain.Program
	nextID int
}

func newMemRepo() *memRepo {
	return &memRepo{byID: make(map[string]*domain.Program)}
}

func (r *memRepo) clone(p *domain.Program) *domain.Program {
	c := *p
	c.EducationalAreas = append([]domain.EducationalArea{}, p.EducationalAreas...)
	return &c
}

func (r *memRepo) FindAll(_ context.Context) ([]domain.Program, error) {
	out := make([]domain.Program, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, *r.clone(p))
	}
	return out, nil
}

func (r *memRepo) FindAllSortedByName(ctx context.Context) ([]domain.Program, error) {
	out, _ := r.FindAll(ctx)
	sort.Slice(out, func(i, j int) bool { return out[i].ProgramName < out[j].ProgramName })
	return out, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.Program, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return r.clone(p), nil
}

func (r *memRepo) FindByName(_ context.Context, name string) (*domain.Program, error) {
	for _, p := range r.byID {
		if p.ProgramName == name {
			return r.clone(p), nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByNameContains(ctx context.Context, sub string) ([]domain.Program, error) {
	all, _ := r.FindAllSortedByName(ctx)
	var out []domain.Program
	for _, p := range all {
		if strings.Contains(strings.ToLower(p.ProgramName), strings.ToLower(sub)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memRepo) Save(_ context.Context, p *domain.Program) (*domain.Program, error) {
	if p.ProgramID == "" {
		r.nextID++
		c := r.clone(p)
		c.ProgramID = "P" + strconv.Itoa(r.nextID)
		c.Version = 1
		r.byID[c.ProgramID] = c
		return r.clone(c), nil
	}
	stored, ok := r.byID[p.ProgramID]
	if !ok {
		return nil, domain.ErrProgramNotFound
	}
	if stored.Version != p.Version {
		return nil, domain.ErrVersionConflict
	}
	c := r.clone(p)
	c.Version++
	r.byID[c.ProgramID] = c
	return r.clone(c), nil
}

func (r *memRepo) DeleteByID(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

func (r *memRepo) Count(_ context.Context) (int64, error) { return int64(len(r.byID)), nil }

func (r *memRepo) CountWithAreas(_ context.Context) (int64, error) {
	var n int64
	for _, p := range r.byID {
		if len(p.EducationalAreas) > 0 {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CountWithoutAreas(_ context.Context) (int64, error) {
	total, _ := r.Count(context.Background())
	with, _ := r.CountWithAreas(context.Background())
	return total - with, nil
}

func (r *memRepo) TotalAreaCount(_ context.Context) (int64, error) {
	var n int64
	for _, p := range r.byID {
		n += int64(len(p.EducationalAreas))
	}
	return n, nil
}

type memDirectory struct {
	users map[string]*domain.User
}

func (d *memDirectory) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

type nopSink struct{}

func (nopSink) Insert(context.Context, audit.Entry) error { return nil }

// newTestServer wires the real engine against in-memory collaborators with
// the same middleware, validator, and error handler the router installs.
func newTestServer(repo *memRepo, dir *memDirectory) *echo.Echo {
	log := zerolog.Nop()
	if dir == nil {
		dir = &memDirectory{users: map[string]*domain.User{}}
	}
	svc := service.NewProgramService(repo, dir, nil, log)
	trail := audit.NewTrail(16, nopSink{}, log)

	e := echo.New()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(log)
	e.Use(middleware.Identity(trail, log))

	ph := handler.NewProgramHandler(svc, trail, log)
	ah := handler.NewAreaHandler(svc, trail, log)

	g := e.Group("/service/program")
	g.POST("", ph.Create)
	g.GET("", ph.List)
	g.GET("/statistics", ph.Statistics)
	g.GET("/name/:programName", ph.GetByName)
	g.GET("/:programId", ph.GetByID)
	g.PUT("/:programId", ph.Update)
	g.DELETE("/:programId", ph.Delete)
	g.POST("/:programId/area", ah.Create)
	g.GET("/:programId/area", ah.List)
	g.GET("/:programId/area/:areaId", ah.GetByID)
	g.PUT("/:programId/area/:areaId", ah.Update)
	g.DELETE("/:programId/area/:areaId", ah.Delete)
	g.GET("/:programId/area/:areaId/leader", ah.GetLeader)

	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func adminHeaders() map[string]string {
	return map[string]string{
		auth.HeaderUserID:   "admin-1",
		auth.HeaderUserRole: "ADMIN",
	}
}

func coordinatorHeaders(programs string) map[string]string {
	return map[string]string{
		auth.HeaderUserID:       "coord-1",
		auth.HeaderUserRole:     "COORDINATOR",
		auth.HeaderUserPrograms: programs,
	}
}

// ---------------------------------------------------------------------------
// End-to-end lifecycle
// ---------------------------------------------------------------------------

func TestProgramLifecycle(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ProgramID        string            `json:"programId"`
		ProgramName      string            `json:"programName"`
		EducationalAreas []json.RawMessage `json:"educationalAreas"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ProgramID == "" || created.ProgramName != "CS" {
		t.Fatalf("unexpected create response: %+v", created)
	}
	if created.EducationalAreas == nil || len(created.EducationalAreas) != 0 {
		t.Fatalf("expected empty area list in response, got %v", created.EducationalAreas)
	}

	rec = doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "DUPLICATE_PROGRAM") {
		t.Fatalf("expected DUPLICATE_PROGRAM kind, got %s", rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodDelete, "/service/program/"+created.ProgramID, "", adminHeaders())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/service/program/"+created.ProgramID, "", adminHeaders())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "PROGRAM_NOT_FOUND") {
		t.Fatalf("expected PROGRAM_NOT_FOUND kind, got %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// Authorization matrix
// ---------------------------------------------------------------------------

func TestAuthorization_NoIdentityIs401(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	rec := doJSON(t, e, http.MethodGet, "/service/program", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var envelope struct {
		Error   string `json:"error"`
		Status  int    `json:"status"`
		Service string `json:"service"`
		Path    string `json:"path"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error != "AUTHENTICATION_REQUIRED" || envelope.Status != 401 || envelope.Service != "orion-program" || envelope.Path != "/service/program" {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
}

func TestAuthorization_CreateRequiresElevatedRole(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	plain := map[string]string{auth.HeaderUserID: "u1", auth.HeaderUserPrograms: "P1"}
	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, plain)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("plain user create: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, coordinatorHeaders("*"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("coordinator create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthorization_CoordinatorUpdateScopedByProgram(t *testing.T) {
	repo := newMemRepo()
	e := newTestServer(repo, nil)

	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed CS: %d", rec.Code)
	}
	var p1 struct {
		ProgramID string `json:"programId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p1)

	rec = doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"Law"}`, adminHeaders())
	var p2 struct {
		ProgramID string `json:"programId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p2)

	coord := coordinatorHeaders(p1.ProgramID)

	rec = doJSON(t, e, http.MethodPut, "/service/program/"+p2.ProgramID, `{"email":"law@unibague.edu.co"}`, coord)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("coordinator updating inaccessible program: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPut, "/service/program/"+p1.ProgramID, `{"email":"cs@unibague.edu.co"}`, coord)
	if rec.Code != http.StatusOK {
		t.Fatalf("coordinator updating own program: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthorization_InternalRequestGetsAdminAccess(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	internal := map[string]string{auth.HeaderInternal: "true"}
	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, internal)
	if rec.Code != http.StatusCreated {
		t.Fatalf("internal create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var p struct {
		ProgramID string `json:"programId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p)

	rec = doJSON(t, e, http.MethodDelete, "/service/program/"+p.ProgramID, "", internal)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("internal delete: expected 204, got %d", rec.Code)
	}
}

func TestAuthorization_ListFiltersInaccessiblePrograms(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())
	var p1 struct {
		ProgramID string `json:"programId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p1)
	doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"Law"}`, adminHeaders())

	plain := map[string]string{auth.HeaderUserID: "u1", auth.HeaderUserPrograms: p1.ProgramID}
	rec = doJSON(t, e, http.MethodGet, "/service/program", "", plain)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed []struct {
		ProgramName string `json:"programName"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].ProgramName != "CS" {
		t.Fatalf("expected only accessible program, got %+v", listed)
	}

	// Coordinators see everything regardless of their access set.
	rec = doJSON(t, e, http.MethodGet, "/service/program", "", coordinatorHeaders(""))
	_ = json.Unmarshal(rec.Body.Bytes(), &listed)
	if len(listed) != 2 {
		t.Fatalf("coordinator should see all programs, got %+v", listed)
	}
}

func TestAuthorization_DeleteAreaIsAdminOnly(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())
	var p struct {
		ProgramID string `json:"programId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p)

	rec = doJSON(t, e, http.MethodPost, "/service/program/"+p.ProgramID+"/area", `{"name":"Software"}`, adminHeaders())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create area: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var area struct {
		EducationalAreaID string `json:"educationalAreaId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &area)
	if area.EducationalAreaID != p.ProgramID+"A01" {
		t.Fatalf("expected generated area id %sA01, got %s", p.ProgramID, area.EducationalAreaID)
	}

	rec = doJSON(t, e, http.MethodDelete, "/service/program/"+p.ProgramID+"/area/"+area.EducationalAreaID, "", coordinatorHeaders(p.ProgramID))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("coordinator area delete: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodDelete, "/service/program/"+p.ProgramID+"/area/"+area.EducationalAreaID, "", adminHeaders())
	if rec.Code != http.StatusNoContent {
		t.Fatalf("admin area delete: expected 204, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Statistics and validation
// ---------------------------------------------------------------------------

func TestStatisticsEndpoint(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())

	plain := map[string]string{auth.HeaderUserID: "u1"}
	rec := doJSON(t, e, http.MethodGet, "/service/program/statistics", "", plain)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("plain user statistics: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/service/program/statistics", "", adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("statistics: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Statistics struct {
			TotalPrograms int64 `json:"totalPrograms"`
		} `json:"statistics"`
		RequestedBy string `json:"requestedBy"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if resp.Statistics.TotalPrograms != 1 || resp.RequestedBy != "admin-1" {
		t.Fatalf("unexpected statistics response: %+v", resp)
	}
}

func TestCreateProgram_ValidationErrors(t *testing.T) {
	e := newTestServer(newMemRepo(), nil)

	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"C"}`, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short name: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS","email":"not-an-email"}`, adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Leader endpoint
// ---------------------------------------------------------------------------

func TestGetLeaderEndpoint(t *testing.T) {
	dir := &memDirectory{users: map[string]*domain.User{
		"u42": {IDUser: "u42", Name: "Ana", Email: "ana@unibague.edu.co", Phone: "555"},
	}}
	e := newTestServer(newMemRepo(), dir)

	rec := doJSON(t, e, http.MethodPost, "/service/program", `{"programName":"CS"}`, adminHeaders())
	var p struct {
		ProgramID string `json:"programId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &p)

	rec = doJSON(t, e, http.MethodPost, "/service/program/"+p.ProgramID+"/area", `{"name":"Software","leaderId":"u42"}`, adminHeaders())
	var area struct {
		EducationalAreaID string `json:"educationalAreaId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &area)

	rec = doJSON(t, e, http.MethodGet, "/service/program/"+p.ProgramID+"/area/"+area.EducationalAreaID+"/leader", "", adminHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("leader: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var leader struct {
		IDUser string `json:"idUser"`
		Name   string `json:"name"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &leader); err != nil {
		t.Fatalf("decode leader: %v", err)
	}
	if leader.IDUser != "u42" || leader.Name != "Ana" {
		t.Fatalf("unexpected leader: %+v", leader)
	}

	// Area without a leader → 400.
	rec = doJSON(t, e, http.MethodPost, "/service/program/"+p.ProgramID+"/area", `{"name":"Networks"}`, adminHeaders())
	var bare struct {
		EducationalAreaID string `json:"educationalAreaId"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &bare)

	rec = doJSON(t, e, http.MethodGet, "/service/program/"+p.ProgramID+"/area/"+bare.EducationalAreaID+"/leader", "", adminHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("leaderless area: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INVALID_PROGRAM_DATA") {
		t.Fatalf("expected INVALID_PROGRAM_DATA kind, got %s", rec.Body.String())
	}
}
