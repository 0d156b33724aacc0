package handler

import (
	"encoding/json"
	"net/http"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

// SOSHandler exposes the alert session: SOS trigger, confirmation
// flow, cancellation, text analysis and the session snapshot.
type SOSHandler struct {
	safetyService service.ISafetyService
	log           *logger.Logger
}

func NewSOSHandler(safetyService service.ISafetyService, log *logger.Logger) *SOSHandler {
	return &SOSHandler{
		safetyService: safetyService,
		log:           log,
	}
}

func (h *SOSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/sos", h.Trigger).Methods("POST")
	r.HandleFunc("/sos/confirm", h.Confirm).Methods("POST")
	r.HandleFunc("/sos/decline", h.Decline).Methods("POST")
	r.HandleFunc("/sos/cancel", h.Cancel).Methods("POST")
	r.HandleFunc("/sos/session", h.Session).Methods("GET")
	r.HandleFunc("/analyze", h.Analyze).Methods("POST")
}

// Trigger starts an immediate SOS dispatch. 409 means a dispatch is
// already running.
func (h *SOSHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.safetyService.TriggerSOS(r.Context())
	if !ok {
		respondError(w, http.StatusConflict, "An alert is already in progress")
		return
	}

	h.log.Warn("SOS triggered via API")
	respondJSON(w, http.StatusAccepted, snapshot)
}

func (h *SOSHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.safetyService.Confirm(r.Context())
	if !ok {
		respondError(w, http.StatusConflict, "No alert is awaiting confirmation")
		return
	}

	respondJSON(w, http.StatusAccepted, snapshot)
}

func (h *SOSHandler) Decline(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.safetyService.Decline(r.Context())
	if !ok {
		respondError(w, http.StatusConflict, "No alert is awaiting confirmation")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (h *SOSHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.safetyService.Cancel(r.Context())
	if !ok {
		respondError(w, http.StatusConflict, "No cancellable alert in progress")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

func (h *SOSHandler) Session(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.safetyService.Session())
}

type analyzeRequest struct {
	Text string `json:"text"`
}

// Analyze scores a text fragment and reports whether it asked the
// session for confirmation.
func (h *SOSHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	match, triggered := h.safetyService.AnalyzeText(r.Context(), req.Text)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"match":     match,
		"triggered": triggered,
	})
}
