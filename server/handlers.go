package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/nepwoop/leadflow/agent/contract"
	"github.com/nepwoop/leadflow/agent/lead"
	"github.com/nepwoop/leadflow/agent/session"
	"github.com/nepwoop/leadflow/agent/tenant"
)

const setupRequiredReply = "Please complete your business setup first."

// Handler bundles the services backing the API routes.
type Handler struct {
	tenants *tenant.Registry
	manager *session.Manager
	ledger  *lead.Ledger
}

func NewHandler(tenants *tenant.Registry, manager *session.Manager, ledger *lead.Ledger) *Handler {
	return &Handler{
		tenants: tenants,
		manager: manager,
		ledger:  ledger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/setup", h.handleSaveSetup)
	r.Get("/setup/{userID}", h.handleGetSetup)
	r.Post("/clinicchat", h.handleChat)
	r.Get("/leads", h.handleListLeads)
	r.Post("/clear-leads", h.handleClearLeads)
	r.Post("/clear-conversations", h.handleClearConversations)
}

func (h *Handler) handleSaveSetup(w http.ResponseWriter, r *http.Request) {
	var cfg tenant.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.tenants.Save(cfg); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Replacing a config invalidates every session under its page.
	h.manager.ResetTenant(cfg.PageID)

	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Setup saved"})
}

func (h *Handler) handleGetSetup(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	cfg, ok := h.tenants.ByUser(userID)
	if !ok {
		respondError(w, http.StatusNotFound, "User data not found")
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

type chatRequest struct {
	UserID          string `json:"user_id"`
	Message         string `json:"message"`
	PageID          string `json:"page_id"`
	Model           string `json:"model,omitempty"`
	NewConversation bool   `json:"newConversation,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" || req.PageID == "" {
		respondError(w, http.StatusBadRequest, "user_id and page_id are required")
		return
	}

	reply, err := h.manager.HandleMessage(r.Context(), session.MessageRequest{
		PageID:          req.PageID,
		UserID:          req.UserID,
		Message:         req.Message,
		Backend:         req.Model,
		NewConversation: req.NewConversation,
	})
	switch {
	case errors.Is(err, contract.ErrSetupRequired):
		respondJSON(w, http.StatusOK, map[string]string{"reply": setupRequiredReply})
		return
	case errors.Is(err, contract.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	case err != nil:
		log.Error().Err(err).Msg("chat handling failed")
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (h *Handler) handleListLeads(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.ledger.All())
}

func (h *Handler) handleClearLeads(w http.ResponseWriter, _ *http.Request) {
	if err := h.ledger.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to clear leads")
		respondError(w, http.StatusInternalServerError, "failed to clear leads")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "All leads cleared"})
}

func (h *Handler) handleClearConversations(w http.ResponseWriter, _ *http.Request) {
	h.manager.ResetAll()
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "All conversations cleared"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
