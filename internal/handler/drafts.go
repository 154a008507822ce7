// Package handler exposes the thin HTTP surface over the generation
// pipeline. Handlers only talk to services, never to repositories.
package handler

import (
	"log/slog"
	"net/http"

	"podium/internal/compliance"
	"podium/internal/domain/models"
	"podium/internal/httputil"
	"podium/internal/service/generation"
	"podium/internal/service/quota"
)

// DraftHandler serves generate, save, and reset.
type DraftHandler struct {
	orchestrator *generation.Orchestrator
	ledger       *quota.Ledger
	logger       *slog.Logger
}

func NewDraftHandler(orchestrator *generation.Orchestrator, ledger *quota.Ledger, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{orchestrator: orchestrator, ledger: ledger, logger: logger}
}

type profilePayload struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	Party       string `json:"party"`
	Stage       string `json:"stage"`
	Tone        string `json:"tone"`
	HasChildren bool   `json:"has_children"`
}

type generateRequest struct {
	Topic          string         `json:"topic"`
	Category       string         `json:"category"`
	Instructions   string         `json:"instructions,omitempty"`
	NewsContext    string         `json:"news_context,omitempty"`
	SourceMaterial string         `json:"source_material,omitempty"`
	Profile        profilePayload `json:"profile"`
}

type sessionView struct {
	ID          string `json:"id"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"max_attempts"`
}

type draftView struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	HTML    string `json:"html"`
}

type generateResponse struct {
	Status  string             `json:"status"`
	Draft   draftView          `json:"draft"`
	Report  *compliance.Report `json:"report"`
	Session sessionView        `json:"session"`
}

// Generate runs one draft attempt.
// POST /api/drafts/generate
func (h *DraftHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req generateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stage := models.ElectionStage(req.Profile.Stage)
	if stage == "" {
		stage = models.StageNone
	}

	result, err := h.orchestrator.Generate(r.Context(), &generation.GenerateRequest{
		OwnerID:        userID,
		Topic:          req.Topic,
		Category:       req.Category,
		Instructions:   req.Instructions,
		NewsContext:    req.NewsContext,
		SourceMaterial: req.SourceMaterial,
		Tier:           tierFromContext(r),
		Profile: &models.UserProfile{
			OwnerID:     userID,
			Name:        req.Profile.Name,
			Region:      req.Profile.Region,
			Party:       req.Profile.Party,
			Stage:       stage,
			Tone:        req.Profile.Tone,
			HasChildren: req.Profile.HasChildren,
		},
	})
	if err != nil {
		handleError(w, err, h.logger)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, generateResponse{
		Status: result.Status,
		Draft: draftView{
			Title:   result.Draft.Title,
			Content: result.Draft.Content,
			HTML:    result.HTML,
		},
		Report: result.Report,
		Session: sessionView{
			ID:          result.Session.ID,
			Attempts:    result.Session.Attempts,
			MaxAttempts: result.Session.MaxAttempts,
		},
	})
}

type saveRequest struct {
	SessionID string `json:"session_id"`
}

// Save finalizes the active session after the draft was stored.
// POST /api/drafts/save
func (h *DraftHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req saveRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil || req.SessionID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if err := h.orchestrator.Save(r.Context(), userID, req.SessionID); err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Reset abandons the active session.
// POST /api/drafts/reset
func (h *DraftHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	if err := h.orchestrator.Reset(r.Context(), userID); err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Quota returns the owner's current allowance.
// GET /api/quota
func (h *DraftHandler) Quota(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	state, err := h.ledger.State(r.Context(), userID, tierFromContext(r))
	if err != nil {
		handleError(w, err, h.logger)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, state)
}

func tierFromContext(r *http.Request) models.Tier {
	switch httputil.GetTier(r) {
	case string(models.TierPaid):
		return models.TierPaid
	case string(models.TierUnlimited):
		return models.TierUnlimited
	default:
		return models.TierTrial
	}
}
