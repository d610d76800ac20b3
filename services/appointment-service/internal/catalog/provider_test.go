package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPProvider_GetTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/directory/availability/av-1":
			_ = json.NewEncoder(w).Encode(Template{
				AvailabilityID:  "av-1",
				ServiceID:       "svc-1",
				DayOfWeek:       "Monday",
				StartTime:       "09:00:00",
				EndTime:         "12:00:00",
				DurationMinutes: 30,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)

	tmpl, err := p.GetTemplate(context.Background(), "av-1")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if tmpl.ServiceID != "svc-1" || tmpl.DayOfWeek != "Monday" {
		t.Fatalf("unexpected template: %+v", tmpl)
	}

	if _, err := p.GetTemplate(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPProvider_ListTemplates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/directory/services/svc-1/availability" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode([]Template{
			{AvailabilityID: "av-1", ServiceID: "svc-1", DayOfWeek: "Monday"},
			{AvailabilityID: "av-2", ServiceID: "svc-1", DayOfWeek: "Wednesday"},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	tmpls, err := p.ListTemplates(context.Background(), "svc-1")
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(tmpls) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(tmpls))
	}
}

func TestHTTPProvider_Unconfigured(t *testing.T) {
	p := NewHTTPProvider("")
	if _, err := p.GetTemplate(context.Background(), "av-1"); err == nil {
		t.Fatal("expected error when directory url is not configured")
	}
}
