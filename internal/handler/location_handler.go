package handler

import (
	"encoding/json"
	"net/http"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

type LocationHandler struct {
	locationService service.ILocationService
	log             *logger.Logger
}

func NewLocationHandler(locationService service.ILocationService, log *logger.Logger) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
		log:             log,
	}
}

func (h *LocationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/locations", h.Record).Methods("POST")
	r.HandleFunc("/locations", h.History).Methods("GET")
	r.HandleFunc("/locations/latest", h.Latest).Methods("GET")
}

// Record accepts a tracking ping from the client.
func (h *LocationHandler) Record(w http.ResponseWriter, r *http.Request) {
	var sample models.LocationSample
	if err := json.NewDecoder(r.Body).Decode(&sample); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.locationService.Record(r.Context(), &sample); err != nil {
		h.log.Error("Failed to record location: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, sample)
}

func (h *LocationHandler) History(w http.ResponseWriter, r *http.Request) {
	samples, err := h.locationService.History(r.Context())
	if err != nil {
		h.log.Error("Failed to get location history: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, samples)
}

func (h *LocationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sample, ok := h.locationService.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "No location recorded yet")
		return
	}

	respondJSON(w, http.StatusOK, sample)
}
