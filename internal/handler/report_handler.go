package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	reportService service.IReportService
	log           *logger.Logger
}

func NewReportHandler(reportService service.IReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		log:           log,
	}
}

func (h *ReportHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/reports", h.Create).Methods("POST")
	r.HandleFunc("/reports", h.List).Methods("GET")
	r.HandleFunc("/reports/{id}", h.Remove).Methods("DELETE")
}

func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var report models.IncidentReport
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := h.reportService.Create(r.Context(), &report)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
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

	reports, err := h.reportService.List(r.Context(), limit, offset)
	if err != nil {
		h.log.Error("Failed to list reports: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.reportService.Remove(r.Context(), id); err != nil {
		h.log.Error("Failed to remove report %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
