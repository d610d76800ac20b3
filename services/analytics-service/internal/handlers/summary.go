package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/citizengate/citizengate/services/analytics-service/internal/metrics"
)

type SummaryHandler struct {
	store  *metrics.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewSummaryHandler(store *metrics.Store, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{store: store, logger: logger, now: time.Now}
}

func (h *SummaryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/analytics/summary", h.Summary)
}

type summaryResponse struct {
	From     string             `json:"from"`
	To       string             `json:"to"`
	Counters []metrics.DayCount `json:"counters"`
}

// Summary serves the dashboard counters. Defaults to the trailing 30 days;
// from/to accept YYYY-MM-DD, service narrows to one government service.
func (h *SummaryHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(r.Header.Get("X-Organization-Id")) == "" {
		http.Error(w, "not permitted", http.StatusForbidden)
		return
	}

	q := r.URL.Query()
	to := h.now().UTC()
	from := to.AddDate(0, 0, -30)
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid from date", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			http.Error(w, "invalid to date", http.StatusBadRequest)
			return
		}
		to = parsed
	}
	if to.Before(from) {
		http.Error(w, "to must not be before from", http.StatusBadRequest)
		return
	}

	counters, err := h.store.Summary(r.Context(), from, to, strings.TrimSpace(q.Get("service")))
	if err != nil {
		h.logger.Error("summary query failed", "err", err)
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}
	if counters == nil {
		counters = []metrics.DayCount{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summaryResponse{
		From:     from.Format("2006-01-02"),
		To:       to.Format("2006-01-02"),
		Counters: counters,
	})
}
