package scoring

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"visapath-backend/internal/oracle"
	"visapath-backend/internal/shared/server/middleware"
	"visapath-backend/internal/shared/server/respond"
	"visapath-backend/internal/shared/telemetry"
	"visapath-backend/internal/visatypes"
)

// SessionSaver persists a completed scoring run and returns the new session
// ID. Kept narrow so this package stays independent of session storage.
type SessionSaver interface {
	SaveResult(ctx context.Context, userID string, profile ApplicantProfile, result Result, title string) (string, error)
}

// Handler wires HTTP handlers to the scorer.
type Handler struct {
	Scorer   *Scorer
	Catalog  visatypes.Repo
	Sessions SessionSaver
}

// NewHandler constructs a Handler. Sessions may be nil to disable saving.
func NewHandler(scorer *Scorer, catalog visatypes.Repo, sessions SessionSaver) *Handler {
	return &Handler{Scorer: scorer, Catalog: catalog, Sessions: sessions}
}

// RegisterRoutes attaches scoring routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/eligibility", h.scoreEligibility)
}

type eligibilityRequest struct {
	Profile ApplicantProfile `json:"profile"`
	Save    bool             `json:"save"`
	Title   string           `json:"title"`
}

type eligibilityResponse struct {
	Assessments           []PathwayAssessment `json:"assessments"`
	OverallAssessment     string              `json:"overallAssessment"`
	TopRecommendationCode string              `json:"topRecommendationCode"`
	SessionID             string              `json:"sessionId,omitempty"`
}

func (h *Handler) scoreEligibility(c *gin.Context) {
	var req eligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if err := ValidateProfile(&req.Profile); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile", verr.Issues)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile", nil)
		return
	}

	ctx := c.Request.Context()
	candidates, err := h.Catalog.ListByCountries(ctx, req.Profile.TargetCountries)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load visa catalog", nil)
		return
	}
	// No catalog coverage for the requested countries: widen to everything
	// rather than fail the run.
	if len(candidates) == 0 {
		candidates, err = h.Catalog.ListAll(ctx)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load visa catalog", nil)
			return
		}
	}

	result, err := h.Scorer.Score(ctx, req.Profile, candidates)
	if err != nil {
		var oerr *oracle.Error
		switch {
		case errors.Is(err, ErrNoCandidates):
			respond.Error(c, http.StatusUnprocessableEntity, "no_candidates", "no visa types available to assess", nil)
		case errors.As(err, &oerr):
			status := http.StatusBadGateway
			if oerr.Kind == oracle.KindTimeout {
				status = http.StatusGatewayTimeout
			}
			respond.Error(c, status, "oracle_error", "eligibility scoring failed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "eligibility scoring failed", nil)
		}
		return
	}

	resp := eligibilityResponse{
		Assessments:           result.Assessments,
		OverallAssessment:     result.OverallAssessment,
		TopRecommendationCode: result.TopRecommendationCode,
	}

	// Saving is best-effort: a storage failure must not discard a scoring
	// run the caller already paid for.
	if req.Save && h.Sessions != nil {
		userID := middleware.UserIDFromContext(c)
		sessionID, err := h.Sessions.SaveResult(ctx, userID, req.Profile, result, req.Title)
		if err != nil {
			telemetry.Warn("scoring.session_save_failed", map[string]any{
				"error": err.Error(),
			})
		} else {
			resp.SessionID = sessionID
			c.Set("sessionId", sessionID)
		}
	}

	respond.OK(c, resp)
}
