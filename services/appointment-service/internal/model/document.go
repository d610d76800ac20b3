package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrDocumentNotFound = errors.New("document not attached to appointment")

type DocumentStatus string

const (
	DocumentPending  DocumentStatus = "pending"
	DocumentVerified DocumentStatus = "verified"
	DocumentRejected DocumentStatus = "rejected"
)

func ParseDocumentStatus(raw string) (DocumentStatus, error) {
	switch DocumentStatus(raw) {
	case DocumentPending, DocumentVerified, DocumentRejected:
		return DocumentStatus(raw), nil
	default:
		return "", fmt.Errorf("invalid document status %q", raw)
	}
}

// Document is a reference to an uploaded supporting document. DocumentID is
// the required-document type id; (appointment, DocumentID) is unique.
type Document struct {
	DocumentID         string         `json:"document_id"`
	Name               string         `json:"name"`
	FileURL            string         `json:"file_url"`
	UploadedAt         time.Time      `json:"uploaded_at"`
	VerificationStatus DocumentStatus `json:"verification_status"`
}

// UpsertDocument replaces an existing attachment of the same document type or
// appends a new one. A replacement resets verification back to pending.
func UpsertDocument(docs []Document, doc Document) []Document {
	doc.VerificationStatus = DocumentPending
	for i, existing := range docs {
		if existing.DocumentID == doc.DocumentID {
			out := make([]Document, len(docs))
			copy(out, docs)
			out[i] = doc
			return out
		}
	}
	return append(append([]Document(nil), docs...), doc)
}

func RemoveDocument(docs []Document, documentID string) ([]Document, error) {
	for i, existing := range docs {
		if existing.DocumentID == documentID {
			out := make([]Document, 0, len(docs)-1)
			out = append(out, docs[:i]...)
			return append(out, docs[i+1:]...), nil
		}
	}
	return nil, ErrDocumentNotFound
}

func SetDocumentStatus(docs []Document, documentID string, status DocumentStatus) ([]Document, error) {
	for i, existing := range docs {
		if existing.DocumentID == documentID {
			out := make([]Document, len(docs))
			copy(out, docs)
			out[i].VerificationStatus = status
			return out, nil
		}
	}
	return nil, ErrDocumentNotFound
}
