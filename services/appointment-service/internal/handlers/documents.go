package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/citizengate/citizengate/services/appointment-service/internal/model"
)

type documentRequest struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name"`
	FileURL    string `json:"file_url"`
}

func (req *documentRequest) validate() error {
	req.DocumentID = strings.TrimSpace(req.DocumentID)
	req.Name = strings.TrimSpace(req.Name)
	req.FileURL = strings.TrimSpace(req.FileURL)
	if req.DocumentID == "" || req.FileURL == "" {
		return errors.New("document_id and file_url required")
	}
	return nil
}

func (h *AppointmentHandler) UpsertDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.mutateDocuments(w, r, func(docs []model.Document) ([]model.Document, error) {
		return model.UpsertDocument(docs, model.Document{
			DocumentID: req.DocumentID,
			Name:       req.Name,
			FileURL:    req.FileURL,
			UploadedAt: h.now().UTC(),
		}), nil
	})
}

func (h *AppointmentHandler) UpsertDocumentBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []documentRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(reqs) == 0 {
		http.Error(w, "empty document list", http.StatusBadRequest)
		return
	}
	for i := range reqs {
		if err := reqs[i].validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	h.mutateDocuments(w, r, func(docs []model.Document) ([]model.Document, error) {
		for _, req := range reqs {
			docs = model.UpsertDocument(docs, model.Document{
				DocumentID: req.DocumentID,
				Name:       req.Name,
				FileURL:    req.FileURL,
				UploadedAt: h.now().UTC(),
			})
		}
		return docs, nil
	})
}

func (h *AppointmentHandler) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("documentID")
	h.mutateDocuments(w, r, func(docs []model.Document) ([]model.Document, error) {
		return model.RemoveDocument(docs, documentID)
	})
}

func (h *AppointmentHandler) UpdateDocumentStatus(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("documentID")

	var req struct {
		VerificationStatus string `json:"verification_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	status, err := model.ParseDocumentStatus(req.VerificationStatus)
	if err != nil {
		http.Error(w, "invalid verification_status", http.StatusUnprocessableEntity)
		return
	}
	h.mutateDocuments(w, r, func(docs []model.Document) ([]model.Document, error) {
		return model.SetDocumentStatus(docs, documentID, status)
	})
}

// mutateDocuments runs a document-list transformation while the appointment
// row is held FOR UPDATE, so concurrent mutations serialize.
func (h *AppointmentHandler) mutateDocuments(w http.ResponseWriter, r *http.Request, mutate func([]model.Document) ([]model.Document, error)) {
	id := callerIdentity(r)
	apptID := r.PathValue("id")

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !canAccess(&appt, id) {
		forbidden(w)
		return
	}

	docs, err := mutate(appt.Documents)
	if err != nil {
		if errors.Is(err, model.ErrDocumentNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update documents", http.StatusInternalServerError)
		return
	}
	if err := h.repo.SetDocuments(ctx, tx, apptID, docs); err != nil {
		http.Error(w, "failed to update documents", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.repo.Get(ctx, apptID)
	if err != nil {
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, toResponse(updated))
}

const maxUploadBytes = 10 << 20

// UploadDocument stores the file in the object store, then attaches the
// resulting URL as a document on the appointment.
func (h *AppointmentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		http.Error(w, "document uploads are not enabled", http.StatusServiceUnavailable)
		return
	}
	id := callerIdentity(r)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	apptID := strings.TrimSpace(r.FormValue("appointment_id"))
	documentID := strings.TrimSpace(r.FormValue("document_id"))
	name := strings.TrimSpace(r.FormValue("name"))
	if apptID == "" || documentID == "" {
		http.Error(w, "appointment_id and document_id required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	ctx := r.Context()
	appt, err := h.repo.Get(ctx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if !canAccess(&appt, id) {
		forbidden(w)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := fmt.Sprintf("%s/%s-%s%s", apptID, documentID, uuid.NewString(), path.Ext(header.Filename))
	fileURL, err := h.store.Put(ctx, key, contentType, file)
	if err != nil {
		h.logger.Error("document upload failed", "appointment_id", apptID, "err", err)
		http.Error(w, "upload failed", http.StatusBadGateway)
		return
	}
	if name == "" {
		name = header.Filename
	}

	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	locked, err := h.repo.GetForUpdate(ctx, tx, apptID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	docs := model.UpsertDocument(locked.Documents, model.Document{
		DocumentID: documentID,
		Name:       name,
		FileURL:    fileURL,
		UploadedAt: h.now().UTC(),
	})
	if err := h.repo.SetDocuments(ctx, tx, apptID, docs); err != nil {
		http.Error(w, "failed to update documents", http.StatusInternalServerError)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"document_id": documentID,
		"file_url":    fileURL,
	})
}
