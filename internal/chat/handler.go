package chat

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/metrics"
	"visapath-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the chat service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.streamChat)
}

type streamEvent struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
	Done  bool   `json:"done,omitempty"`
}

func (h *Handler) streamChat(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.SessionID != "" {
		c.Set("sessionId", req.SessionID)
	}

	chunks, err := h.Svc.Stream(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoMessages):
			respond.Error(c, http.StatusBadRequest, "validation_error", "messages must not be empty", nil)
		case errors.Is(err, oracle.ErrNotConfigured):
			respond.Error(c, http.StatusServiceUnavailable, "oracle_error", "chat is not available", nil)
		default:
			respond.Error(c, http.StatusBadGateway, "oracle_error", "failed to start chat stream", nil)
		}
		return
	}

	metrics.IncChatStream()
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		chunk, ok := <-chunks
		if !ok {
			writeEvent(w, streamEvent{Done: true})
			return false
		}
		if chunk.Err != nil {
			writeEvent(w, streamEvent{Error: "stream interrupted"})
			return false
		}
		writeEvent(w, streamEvent{Text: chunk.Text})
		return true
	})
}

func writeEvent(w io.Writer, event streamEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	io.WriteString(w, "data: "+string(data)+"\n\n")
}
