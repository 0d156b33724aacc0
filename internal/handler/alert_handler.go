package handler

import (
	"net/http"
	"strconv"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/repository"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

// AlertHandler serves the dispatched-alert history. Records are
// read-only here; the only delete path is the settings data wipe.
type AlertHandler struct {
	alerts        repository.IAlertRepository
	exportService service.IExportService
	log           *logger.Logger
}

func NewAlertHandler(alerts repository.IAlertRepository, exportService service.IExportService, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alerts:        alerts,
		exportService: exportService,
		log:           log,
	}
}

func (h *AlertHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/alerts/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/alerts/history/pdf", h.ExportPDF).Methods("GET")
	r.HandleFunc("/alerts/{id}", h.Get).Methods("GET")
}

func (h *AlertHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}

	records, err := h.alerts.GetHistory(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("Failed to get alert history: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (h *AlertHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid alert ID")
		return
	}

	record, err := h.alerts.GetByID(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get alert %d: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		respondError(w, http.StatusNotFound, "Alert not found")
		return
	}

	respondJSON(w, http.StatusOK, record)
}

func (h *AlertHandler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.exportService.AlertHistoryPDF(r.Context())
	if err != nil {
		h.log.Error("Failed to export alert history PDF: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="safeher-alert-history.pdf"`)
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
