package handler

import (
	"encoding/json"
	"net/http"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/models"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

type SettingsHandler struct {
	settingsService service.ISettingsService
	log             *logger.Logger
}

func NewSettingsHandler(settingsService service.ISettingsService, log *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		log:             log,
	}
}

func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/settings", h.Get).Methods("GET")
	r.HandleFunc("/settings", h.Update).Methods("PUT")
	r.HandleFunc("/settings/wipe", h.Wipe).Methods("POST")
	r.HandleFunc("/settings/export", h.Export).Methods("GET")
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.log.Error("Failed to get settings: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.settingsService.Update(r.Context(), settings); err != nil {
		h.log.Error("Failed to update settings: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// Wipe deletes all stored data. Destructive and irreversible, so the
// client asks for explicit confirmation before calling this.
func (h *SettingsHandler) Wipe(w http.ResponseWriter, r *http.Request) {
	if err := h.settingsService.Wipe(r.Context()); err != nil {
		h.log.Error("Data wipe failed: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "all data wiped"})
}

// Export serves the JSON backup bundle as a download.
func (h *SettingsHandler) Export(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.settingsService.Export(r.Context())
	if err != nil {
		h.log.Error("Failed to build export bundle: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="safeher-backup.json"`)
	respondJSON(w, http.StatusOK, bundle)
}
