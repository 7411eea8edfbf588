package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/citas-assistant/internal/catalog"
	"github.com/wolfman30/citas-assistant/internal/session"
	"github.com/wolfman30/citas-assistant/internal/transcript"
	"github.com/wolfman30/citas-assistant/pkg/logging"
)

type transcriptReader interface {
	List(ctx context.Context, sender string, limit int64) ([]transcript.Message, error)
}

// AdminSessionsHandler exposes dialogue state for support staff.
type AdminSessionsHandler struct {
	sessions    session.Store
	transcripts transcriptReader
	catalog     *catalog.Catalog
	logger      *logging.Logger
}

// NewAdminSessionsHandler creates the handler. transcripts may be nil when
// Redis is not configured.
func NewAdminSessionsHandler(sessions session.Store, transcripts *transcript.Store, cat *catalog.Catalog, logger *logging.Logger) *AdminSessionsHandler {
	if sessions == nil {
		panic("handlers: session store cannot be nil")
	}
	if cat == nil {
		panic("handlers: catalog cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	h := &AdminSessionsHandler{sessions: sessions, catalog: cat, logger: logger}
	if transcripts != nil {
		h.transcripts = transcripts
	}
	return h
}

// SessionResponse is the admin view of a sender's dialogue.
type SessionResponse struct {
	Sender  string           `json:"sender"`
	Session *session.Session `json:"session"`
}

// TranscriptResponse lists recorded messages, oldest first.
type TranscriptResponse struct {
	Sender   string               `json:"sender"`
	Messages []transcript.Message `json:"messages"`
}

// Routes mounts the admin endpoints.
func (h *AdminSessionsHandler) Routes(r chi.Router) {
	r.Get("/catalog", h.GetCatalog)
	r.Route("/sessions/{sender}", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Delete("/", h.ResetSession)
		r.Get("/transcript", h.GetTranscript)
	})
}

// GetSession handles GET /admin/sessions/{sender}.
func (h *AdminSessionsHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sender, ok := senderParam(w, r)
	if !ok {
		return
	}
	sess, err := h.sessions.Get(r.Context(), sender)
	if err != nil {
		h.logger.Error("admin: failed to load session", "error", err, "sender", sender)
		writeJSONError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Sender: sender, Session: sess})
}

// ResetSession handles DELETE /admin/sessions/{sender}.
func (h *AdminSessionsHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	sender, ok := senderParam(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Reset(r.Context(), sender); err != nil {
		h.logger.Error("admin: failed to reset session", "error", err, "sender", sender)
		writeJSONError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	h.logger.Info("admin: session reset", "sender", sender)
	w.WriteHeader(http.StatusNoContent)
}

// GetTranscript handles GET /admin/sessions/{sender}/transcript?limit=N.
func (h *AdminSessionsHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	sender, ok := senderParam(w, r)
	if !ok {
		return
	}
	if h.transcripts == nil {
		writeJSONError(w, http.StatusNotFound, "transcripts are not enabled")
		return
	}
	var limit int64
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	msgs, err := h.transcripts.List(r.Context(), sender, limit)
	if err != nil {
		h.logger.Error("admin: failed to list transcript", "error", err, "sender", sender)
		writeJSONError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{Sender: sender, Messages: msgs})
}

// GetCatalog handles GET /admin/catalog.
func (h *AdminSessionsHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"services": h.catalog.Services()})
}

func senderParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "sender")
	sender, err := url.PathUnescape(raw)
	if err != nil || strings.TrimSpace(sender) == "" {
		writeJSONError(w, http.StatusBadRequest, "sender is required")
		return "", false
	}
	return strings.TrimSpace(sender), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
