package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/unibague-gradework/orion-program/internal/audit"
	"github.com/unibague-gradework/orion-program/internal/core/auth"
)

type recorderStub struct {
	entries []audit.Entry
}

func (r *recorderStub) Record(e audit.Entry) {
	r.entries = append(r.entries, e)
}

func TestIdentity_PopulatesFromHeaders(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderUserID, "u1")
	req.Header.Set(auth.HeaderUserRole, "COORDINATOR")
	req.Header.Set(auth.HeaderUserPrograms, "P1,P2")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Identity(&recorderStub{}, zerolog.Nop())(func(c echo.Context) error {
		called = true
		id := auth.FromContext(c.Request().Context())
		if id == nil {
			t.Fatal("identity not in request context")
		}
		if id.UserID != "u1" || !id.IsCoordinator() || !id.HasAccessToProgram("P2") {
			t.Fatalf("unexpected identity: %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatal("next handler not called")
	}
}

func TestIdentity_SystemForInternalRequest(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(auth.HeaderInternal, "true")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	trail := &recorderStub{}
	handler := Identity(trail, zerolog.Nop())(func(c echo.Context) error {
		id := auth.FromContext(c.Request().Context())
		if id == nil || !id.IsSystem() {
			t.Fatalf("expected system identity, got %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if len(trail.entries) != 1 || trail.entries[0].Action != audit.ActionSystemIdentity {
		t.Fatalf("expected a system identity audit entry, got %+v", trail.entries)
	}
}

func TestIdentity_UnauthenticatedPassesThrough(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Identity(&recorderStub{}, zerolog.Nop())(func(c echo.Context) error {
		if id := auth.FromContext(c.Request().Context()); id != nil {
			t.Fatalf("expected no identity, got %+v", id)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}
