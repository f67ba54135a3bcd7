package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assesshq/session-engine/internal/models"
	"github.com/assesshq/session-engine/internal/services"
	"github.com/assesshq/session-engine/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessions   services.SessionService
	answers    services.AnswerService
	violations services.ViolationService
}

func NewSessionHandler(
	sessions services.SessionService,
	answers services.AnswerService,
	violations services.ViolationService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		answers:     answers,
		violations:  violations,
	}
}

// StartSession admits a candidate through an access link and creates an
// in-progress session. Prior non-terminal sessions for the same
// candidate+link are archived, not reused.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req services.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.sessions.Start(c.Request.Context(), &req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Session started",
		Data:    resp,
	})
}

// RecordAnswer upserts one answer; retries and changed answers converge on
// the last write.
func (h *SessionHandler) RecordAnswer(c *gin.Context) {
	sessionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.RecordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.answers.RecordAnswer(c.Request.Context(), sessionID, &req); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer recorded",
		Data:    gin.H{"accepted": true},
	})
}

// ResumeState reports the position derived from the answer ledger.
func (h *SessionHandler) ResumeState(c *gin.Context) {
	sessionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	state, err := h.answers.ResumeState(c.Request.Context(), sessionID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Resume state",
		Data:    state,
	})
}

// ReportViolation ingests one proctoring signal and returns the escalation
// level for the client's warning UI.
func (h *SessionHandler) ReportViolation(c *gin.Context) {
	sessionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.ReportViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	report, err := h.violations.ReportViolation(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Violation recorded",
		Data:    report,
	})
}

// CompleteSession finalizes the session. Retries against an already-terminal
// session return the stored result unchanged.
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	sessionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req services.CompleteSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	result, err := h.sessions.Complete(c.Request.Context(), sessionID, &req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Session completed",
		Data:    result,
	})
}

// TerminateSession is the administrative kill switch.
func (h *SessionHandler) TerminateSession(c *gin.Context) {
	sessionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}
	if req.Reason == "" {
		req.Reason = models.TerminationByAdministrator
	}

	if err := h.sessions.Terminate(c.Request.Context(), sessionID, req.Reason); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Session terminated",
	})
}
