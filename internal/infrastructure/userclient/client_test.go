package userclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestGetUserByID_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/service/user/u42" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Service-Request") != "true" {
			t.Fatal("expected service-request header on outbound call")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"idUser":"u42","name":"Ana","email":"ana@unibague.edu.co","phone":"555"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/service/user"}, zerolog.Nop())
	user, err := c.GetUserByID(context.Background(), "u42")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user == nil || user.IDUser != "u42" || user.Name != "Ana" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestGetUserByID_NotFoundIsMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())
	user, err := c.GetUserByID(context.Background(), "ghost")
	if err != nil || user != nil {
		t.Fatalf("404 must be (nil, nil), got %v / %v", user, err)
	}
}

func TestGetUserByID_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"idUser":"u42","name":"Ana"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())
	user, err := c.GetUserByID(context.Background(), "u42")
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if user == nil || calls != 2 {
		t.Fatalf("expected success on second attempt, got user=%v calls=%d", user, calls)
	}
}

func TestGetUserByID_DegradesWhenExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, MaxRetries: 2}, zerolog.Nop())
	user, err := c.GetUserByID(context.Background(), "u42")
	if err != nil || user != nil {
		t.Fatalf("exhausted retries must degrade to (nil, nil), got %v / %v", user, err)
	}
}

func TestGetUserByID_MalformedRecordIsMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"no id"}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL}, zerolog.Nop())
	user, err := c.GetUserByID(context.Background(), "u42")
	if err != nil || user != nil {
		t.Fatalf("record without id must degrade to (nil, nil), got %v / %v", user, err)
	}
}
