package handler

import (
	"encoding/json"
	"net/http"

	"SafeHerAPI/internal/logger"
	"SafeHerAPI/internal/service"

	"github.com/gorilla/mux"
)

type ContactHandler struct {
	contactService service.IContactService
	log            *logger.Logger
}

func NewContactHandler(contactService service.IContactService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		log:            log,
	}
}

func (h *ContactHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/contacts", h.Add).Methods("POST")
	r.HandleFunc("/contacts", h.List).Methods("GET")
	r.HandleFunc("/contacts/{id}", h.Get).Methods("GET")
	r.HandleFunc("/contacts/{id}", h.Remove).Methods("DELETE")
}

type addContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

func (h *ContactHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	contact, err := h.contactService.Add(r.Context(), req.Name, req.Phone)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, contact)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contactService.List(r.Context())
	if err != nil {
		h.log.Error("Failed to list contacts: %v", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	contact, err := h.contactService.Get(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to get contact %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if contact == nil {
		respondError(w, http.StatusNotFound, "Contact not found")
		return
	}

	respondJSON(w, http.StatusOK, contact)
}

func (h *ContactHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.contactService.Remove(r.Context(), id); err != nil {
		h.log.Error("Failed to remove contact %s: %v", id, err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
