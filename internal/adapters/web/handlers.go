package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"portfolio-agent/internal/app"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
	logger *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins string, logger *zap.Logger) http.Handler {
	h := &Handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)
	r.Get("/api/properties", h.listProperties)
	r.Get("/api/tenants", h.listTenants)

	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Post("/api/chat", h.chat)
		r.Get("/api/sessions/{id}/history", h.history)
		r.Post("/api/sessions/{id}/reset", h.reset)
	})

	h.router = r
	return r
}

// health reports service status and the size of the loaded catalog.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	props, err := h.svc.ListProperties(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type response struct {
		Status     string `json:"status"`
		Properties int    `json:"properties"`
	}
	writeJSON(w, response{Status: "ok", Properties: len(props.Properties)})
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// chat runs one conversation turn. An empty session_id starts a new session;
// the response carries the id to send with follow-ups.
func (h *Handler) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, r, "message is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.Chat(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeError(w, r, err.Error(), "CHAT_FAILED", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	messages, err := h.svc.GetHistory(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "SESSION_NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"session_id": id, "messages": messages})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.ResetSession(r.Context(), id); err != nil {
		writeError(w, r, err.Error(), "SESSION_NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{"status": "reset", "session_id": id})
}

func (h *Handler) listProperties(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProperties(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListTenants(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
