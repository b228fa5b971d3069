package research

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the research service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches research routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/research/:code", h.getResearch)
	rg.POST("/research/:code", h.refreshResearch)
}

func (h *Handler) getResearch(c *gin.Context) {
	code := c.Param("code")
	c.Set("visaCode", code)

	rec, err := h.Svc.GetResearch(c.Request.Context(), code)
	if err != nil {
		respondResearchError(c, err)
		return
	}
	respond.OK(c, rec)
}

func (h *Handler) refreshResearch(c *gin.Context) {
	code := c.Param("code")
	c.Set("visaCode", code)

	rec, err := h.Svc.RefreshResearch(c.Request.Context(), code)
	if err != nil {
		respondResearchError(c, err)
		return
	}
	respond.OK(c, rec)
}

func respondResearchError(c *gin.Context, err error) {
	var oerr *oracle.Error
	switch {
	case errors.Is(err, ErrUnknownCode):
		respond.Error(c, http.StatusNotFound, "not_found", "unknown visa code", nil)
	case errors.As(err, &oerr):
		status := http.StatusBadGateway
		if oerr.Kind == oracle.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		respond.Error(c, status, "oracle_error", "visa research failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "visa research failed", nil)
	}
}
