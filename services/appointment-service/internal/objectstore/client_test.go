package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPutReturnsPublicURL(t *testing.T) {
	var gotPath, gotAuth, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, "documents", "secret")
	url, err := c.Put(context.Background(), "appt-1/nic.pdf", "application/pdf", strings.NewReader("pdf-bytes"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if gotPath != "/object/documents/appt-1/nic.pdf" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody != "pdf-bytes" {
		t.Errorf("body = %q", gotBody)
	}
	want := srv.URL + "/object/public/documents/appt-1/nic.pdf"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestGetReadsObject(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte("pdf-bytes"))
	}))
	defer srv.Close()

	c := New(srv.URL, "documents", "secret")
	body, err := c.Get(context.Background(), "appt-1/nic.pdf")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer body.Close()

	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(b) != "pdf-bytes" {
		t.Errorf("body = %q", b)
	}
	if gotPath != "/object/documents/appt-1/nic.pdf" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestGetMissingObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "documents", "")
	if _, err := c.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error on 404 response")
	}
}

func TestPutUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket missing", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, "documents", "")
	if _, err := c.Put(context.Background(), "k", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestNewUnconfigured(t *testing.T) {
	if c := New("", "documents", ""); c != nil {
		t.Fatal("expected nil client when base URL is empty")
	}
}
