package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/citizengate/citizengate/services/directory-service/internal/model"
	"github.com/citizengate/citizengate/services/directory-service/internal/slotcheck"
	"github.com/citizengate/citizengate/services/directory-service/internal/storage"
)

type DirectoryHandler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewDirectoryHandler(repo *storage.Repository, logger *slog.Logger) *DirectoryHandler {
	return &DirectoryHandler{repo: repo, logger: logger}
}

func (h *DirectoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/directory/departments", h.CreateDepartment)
	mux.HandleFunc("GET /api/v1/directory/departments", h.ListDepartments)
	mux.HandleFunc("GET /api/v1/directory/departments/{id}", h.GetDepartment)
	mux.HandleFunc("PUT /api/v1/directory/departments/{id}", h.UpdateDepartment)
	mux.HandleFunc("DELETE /api/v1/directory/departments/{id}", h.DeleteDepartment)

	mux.HandleFunc("POST /api/v1/directory/services", h.CreateService)
	mux.HandleFunc("GET /api/v1/directory/services", h.ListServices)
	mux.HandleFunc("GET /api/v1/directory/services/{id}", h.GetService)
	mux.HandleFunc("PUT /api/v1/directory/services/{id}", h.UpdateService)
	mux.HandleFunc("DELETE /api/v1/directory/services/{id}", h.DeleteService)

	mux.HandleFunc("POST /api/v1/directory/services/{id}/availability", h.CreateAvailability)
	mux.HandleFunc("GET /api/v1/directory/services/{id}/availability", h.ListAvailability)
	mux.HandleFunc("GET /api/v1/directory/availability/{id}", h.GetAvailability)
	mux.HandleFunc("DELETE /api/v1/directory/availability/{id}", h.DeleteAvailability)

	mux.HandleFunc("POST /api/v1/directory/services/{id}/documents", h.CreateRequiredDocument)
	mux.HandleFunc("GET /api/v1/directory/services/{id}/documents", h.ListRequiredDocuments)
	mux.HandleFunc("DELETE /api/v1/directory/documents/{id}", h.DeleteRequiredDocument)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *DirectoryHandler) writeLookupError(w http.ResponseWriter, err error, what string) {
	if storage.IsNotFound(err) {
		http.Error(w, what+" not found", http.StatusNotFound)
		return
	}
	h.logger.Error("directory lookup failed", "err", err)
	http.Error(w, "db error", http.StatusInternalServerError)
}

func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	return n, err == nil && n > 0
}

// Departments

type departmentRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Address      string `json:"address"`
	ContactEmail string `json:"contact_email"`
}

func (h *DirectoryHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	d, err := h.repo.CreateDepartment(r.Context(), model.Department{
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
	})
	if err != nil {
		h.logger.Error("create department failed", "err", err)
		http.Error(w, "failed to create department", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DirectoryHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListDepartments(r.Context())
	if err != nil {
		h.logger.Error("list departments failed", "err", err)
		http.Error(w, "failed to list departments", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []model.Department{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) GetDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		http.Error(w, "invalid department id", http.StatusBadRequest)
		return
	}
	d, err := h.repo.GetDepartment(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err, "department")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DirectoryHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		http.Error(w, "invalid department id", http.StatusBadRequest)
		return
	}
	var req departmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	d := model.Department{
		DepartmentID: id,
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		ContactEmail: req.ContactEmail,
	}
	if err := h.repo.UpdateDepartment(r.Context(), d); err != nil {
		h.writeLookupError(w, err, "department")
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DirectoryHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		http.Error(w, "invalid department id", http.StatusBadRequest)
		return
	}
	if err := h.repo.DeleteDepartment(r.Context(), id); err != nil {
		h.writeLookupError(w, err, "department")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Services

type serviceRequest struct {
	DepartmentID int    `json:"department_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Location     string `json:"location"`
}

func (h *DirectoryHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.DepartmentID <= 0 {
		http.Error(w, "name and department_id required", http.StatusBadRequest)
		return
	}
	s, err := h.repo.CreateService(r.Context(), model.Service{
		DepartmentID: req.DepartmentID,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Location:     req.Location,
	})
	if err != nil {
		h.logger.Error("create service failed", "err", err)
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *DirectoryHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	departmentID, _ := strconv.Atoi(r.URL.Query().Get("department"))
	out, err := h.repo.ListServices(r.Context(), departmentID)
	if err != nil {
		h.logger.Error("list services failed", "err", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []model.Service{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) GetService(w http.ResponseWriter, r *http.Request) {
	s, err := h.repo.GetService(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err, "service")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *DirectoryHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	s := model.Service{
		ServiceID:   r.PathValue("id"),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
	}
	if err := h.repo.UpdateService(r.Context(), s); err != nil {
		h.writeLookupError(w, err, "service")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *DirectoryHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteService(r.Context(), r.PathValue("id")); err != nil {
		h.writeLookupError(w, err, "service")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Availability

type availabilityRequest struct {
	Days            []string `json:"days"`
	StartTime       string   `json:"start_time"`
	EndTime         string   `json:"end_time"`
	DurationMinutes int      `json:"duration_minutes"`
}

func (h *DirectoryHandler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	serviceID := r.PathValue("id")

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := slotcheck.Window(req.Days, req.StartTime, req.EndTime, req.DurationMinutes); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if _, err := h.repo.GetService(r.Context(), serviceID); err != nil {
		h.writeLookupError(w, err, "service")
		return
	}
	out, err := h.repo.CreateAvailability(r.Context(), serviceID, req.Days, req.StartTime, req.EndTime, req.DurationMinutes)
	if err != nil {
		h.logger.Error("create availability failed", "err", err)
		http.Error(w, "failed to create availability", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *DirectoryHandler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("list availability failed", "err", err)
		http.Error(w, "failed to list availability", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []model.Availability{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	a, err := h.repo.GetAvailability(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeLookupError(w, err, "availability")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *DirectoryHandler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteAvailability(r.Context(), r.PathValue("id")); err != nil {
		h.writeLookupError(w, err, "availability")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Required documents

type requiredDocumentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsMandatory *bool  `json:"is_mandatory"`
}

func (h *DirectoryHandler) CreateRequiredDocument(w http.ResponseWriter, r *http.Request) {
	serviceID := r.PathValue("id")

	var req requiredDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	mandatory := true
	if req.IsMandatory != nil {
		mandatory = *req.IsMandatory
	}

	if _, err := h.repo.GetService(r.Context(), serviceID); err != nil {
		h.writeLookupError(w, err, "service")
		return
	}
	d, err := h.repo.CreateRequiredDocument(r.Context(), model.RequiredDocument{
		ServiceID:   serviceID,
		Name:        req.Name,
		Description: req.Description,
		IsMandatory: mandatory,
	})
	if err != nil {
		h.logger.Error("create required document failed", "err", err)
		http.Error(w, "failed to create required document", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DirectoryHandler) ListRequiredDocuments(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListRequiredDocuments(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("list required documents failed", "err", err)
		http.Error(w, "failed to list required documents", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []model.RequiredDocument{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *DirectoryHandler) DeleteRequiredDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteRequiredDocument(r.Context(), r.PathValue("id")); err != nil {
		h.writeLookupError(w, err, "required document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
