package handler

import (
	"encoding/json"
	"net/http"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

type ZoneHandler struct {
	zoneService service.IZoneService
	log         *logger.Logger
}

func NewZoneHandler(zoneService service.IZoneService, log *logger.Logger) *ZoneHandler {
	return &ZoneHandler{
		zoneService: zoneService,
		log:         log,
	}
}

func (h *ZoneHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/zones", h.Mark).Methods("POST")
	r.HandleFunc("/zones", h.List).Methods("GET")
}

func (h *ZoneHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var zone models.Zone
	if err := json.NewDecoder(r.Body).Decode(&zone); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	marked, err := h.zoneService.Mark(r.Context(), &zone)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, marked)
}

// List returns all zones, filterable with ?type=safe|unsafe.
func (h *ZoneHandler) List(w http.ResponseWriter, r *http.Request) {
	zones, err := h.zoneService.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		h.log.Error("Failed to list zones: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, zones)
}
