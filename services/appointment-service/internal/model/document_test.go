package model

import (
	"errors"
	"testing"
	"time"
)

func TestUpsertDocument_ReplacesSameType(t *testing.T) {
	first := Document{
		DocumentID: "doc-passport",
		Name:       "Passport",
		FileURL:    "https://storage.example.gov/passport-v1.pdf",
		UploadedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	docs := UpsertDocument(nil, first)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].VerificationStatus != DocumentPending {
		t.Fatalf("new attachment should start pending, got %s", docs[0].VerificationStatus)
	}

	verified, err := SetDocumentStatus(docs, "doc-passport", DocumentVerified)
	if err != nil {
		t.Fatalf("SetDocumentStatus failed: %v", err)
	}

	replacement := first
	replacement.FileURL = "https://storage.example.gov/passport-v2.pdf"
	replacement.UploadedAt = replacement.UploadedAt.Add(time.Hour)
	docs = UpsertDocument(verified, replacement)

	if len(docs) != 1 {
		t.Fatalf("re-upload must replace, not duplicate: got %d documents", len(docs))
	}
	if docs[0].FileURL != "https://storage.example.gov/passport-v2.pdf" {
		t.Fatalf("storage reference not refreshed: %s", docs[0].FileURL)
	}
	if docs[0].VerificationStatus != DocumentPending {
		t.Fatalf("re-upload must reset verification to pending, got %s", docs[0].VerificationStatus)
	}
}

func TestUpsertDocument_AppendsDifferentType(t *testing.T) {
	docs := UpsertDocument(nil, Document{DocumentID: "doc-passport", Name: "Passport"})
	docs = UpsertDocument(docs, Document{DocumentID: "doc-birth-cert", Name: "Birth Certificate"})
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
}

func TestRemoveDocument(t *testing.T) {
	docs := UpsertDocument(nil, Document{DocumentID: "doc-passport"})
	docs = UpsertDocument(docs, Document{DocumentID: "doc-birth-cert"})

	out, err := RemoveDocument(docs, "doc-passport")
	if err != nil {
		t.Fatalf("RemoveDocument failed: %v", err)
	}
	if len(out) != 1 || out[0].DocumentID != "doc-birth-cert" {
		t.Fatalf("unexpected documents after remove: %+v", out)
	}

	if _, err := RemoveDocument(out, "doc-passport"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSetDocumentStatus_UnknownType(t *testing.T) {
	if _, err := SetDocumentStatus(nil, "doc-unknown", DocumentVerified); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestParseDocumentStatus(t *testing.T) {
	for _, raw := range []string{"pending", "verified", "rejected"} {
		if _, err := ParseDocumentStatus(raw); err != nil {
			t.Fatalf("ParseDocumentStatus(%q) failed: %v", raw, err)
		}
	}
	if _, err := ParseDocumentStatus("approved"); err == nil {
		t.Fatal("expected unknown document status to be rejected")
	}
}
