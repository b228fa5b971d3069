package sessions

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/scoring"
	"visapath-backend/internal/shared/server/middleware"
	"visapath-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the sessions service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches session routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions", h.createSession)
	rg.GET("/sessions", h.listSessions)
	rg.GET("/sessions/:id", h.getSession)
	rg.PATCH("/sessions/:id", h.updateSession)
	rg.DELETE("/sessions/:id", h.deleteSession)
}

type createSessionRequest struct {
	Profile           scoring.ApplicantProfile    `json:"profile"`
	Assessments       []scoring.PathwayAssessment `json:"assessments"`
	OverallAssessment string                      `json:"overallAssessment"`
	TopRecommendation string                      `json:"topRecommendationCode"`
	Title             string                      `json:"title"`
}

func (h *Handler) createSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := scoring.ValidateProfile(&req.Profile); err != nil {
		var verr *scoring.ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile", verr.Issues)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile", nil)
		return
	}

	// Ranks are recomputed at the boundary so a stored list can never
	// disagree with its derived top pathway.
	scoring.Rerank(req.Assessments)
	result := scoring.Result{
		Assessments:       req.Assessments,
		OverallAssessment: req.OverallAssessment,
		TopRecommendationCode: func() string {
			if len(req.Assessments) > 0 {
				return req.Assessments[0].VisaTypeCode
			}
			return req.TopRecommendation
		}(),
	}

	userID := middleware.UserIDFromContext(c)
	session, err := h.Svc.Create(c.Request.Context(), userID, req.Profile, result, req.Title)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create session", nil)
		return
	}
	c.Set("sessionId", session.ID)
	respond.JSON(c, http.StatusCreated, session)
}

func (h *Handler) getSession(c *gin.Context) {
	sessionID := c.Param("id")
	session, err := h.Svc.Get(c.Request.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch session", nil)
		}
		return
	}
	c.Set("sessionId", session.ID)
	respond.OK(c, session)
}

func (h *Handler) listSessions(c *gin.Context) {
	filter := Filter{
		UserID: c.Query("userId"),
		Status: c.Query("status"),
	}
	if filter.UserID == "" {
		filter.UserID = middleware.UserIDFromContext(c)
	}

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	list, err := h.Svc.List(c.Request.Context(), filter, limit, offset)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			respond.Error(c, http.StatusBadRequest, "validation_error", "status must be one of active, archived, starred", []map[string]string{
				{"field": "status", "issue": "invalid_value"},
			})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sessions", nil)
		}
		return
	}

	items := make([]gin.H, 0, len(list))
	for _, s := range list {
		item := gin.H{
			"id":                s.ID,
			"status":            s.Status,
			"title":             s.Title,
			"targetCountries":   s.TargetCountries,
			"pathwayCount":      s.PathwayCount,
			"topRecommendation": s.TopRecommendation,
			"createdAt":         s.CreatedAt,
		}
		if s.TopPathwayCode != nil {
			item["topPathwayCode"] = *s.TopPathwayCode
		}
		if s.TopPathwayScore != nil {
			item["topPathwayScore"] = *s.TopPathwayScore
		}
		items = append(items, item)
	}
	respond.OK(c, items)
}

type updateSessionRequest struct {
	Status *string `json:"status"`
	Title  *string `json:"title"`
}

func (h *Handler) updateSession(c *gin.Context) {
	sessionID := c.Param("id")
	var req updateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Status == nil && req.Title == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status or title is required", nil)
		return
	}

	session, err := h.Svc.Update(c.Request.Context(), sessionID, Update{Status: req.Status, Title: req.Title})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			respond.Error(c, http.StatusBadRequest, "validation_error", "status must be one of active, archived, starred", []map[string]string{
				{"field": "status", "issue": "invalid_value"},
			})
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "session not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to update session", nil)
		}
		return
	}
	c.Set("sessionId", session.ID)
	respond.OK(c, session)
}

func (h *Handler) deleteSession(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), sessionID); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete session", nil)
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}
