package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/assesshq/session-engine/internal/services"
	"github.com/assesshq/session-engine/internal/utils"
)

// AdminHandler covers the administrative surface: access links, the
// risk-score backfill and audit exports.
type AdminHandler struct {
	BaseHandler
	links       services.LinkService
	maintenance services.MaintenanceService
	export      services.ExportService
}

func NewAdminHandler(
	links services.LinkService,
	maintenance services.MaintenanceService,
	export services.ExportService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		links:       links,
		maintenance: maintenance,
		export:      export,
	}
}

func (h *AdminHandler) CreateLink(c *gin.Context) {
	var req services.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	link, err := h.links.Create(c.Request.Context(), &req)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Access link created",
		Data:    link,
	})
}

// DeactivateLink turns a link off; sessions it admitted stay untouched.
func (h *AdminHandler) DeactivateLink(c *gin.Context) {
	linkID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.links.Deactivate(c.Request.Context(), linkID); err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Access link deactivated",
	})
}

// ListLinkSessions returns the attempt history the link admitted.
func (h *AdminHandler) ListLinkSessions(c *gin.Context) {
	linkID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	sessions, err := h.links.Sessions(c.Request.Context(), linkID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Link sessions",
		Data:    sessions,
	})
}

// BackfillRiskScores recomputes persisted risk scores from the event log.
// Idempotent: a second run over unchanged logs updates nothing.
func (h *AdminHandler) BackfillRiskScores(c *gin.Context) {
	var req struct {
		TestID uint `json:"test_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.maintenance.BackfillRiskScores(c.Request.Context(), req.TestID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Risk score backfill finished",
		Data:    result,
	})
}

// ExportSessionAudit streams the session's audit workbook.
func (h *AdminHandler) ExportSessionAudit(c *gin.Context) {
	sessionID, ok := ParseUintParam(c, "id")
	if !ok {
		return
	}

	data, err := h.export.ExportSessionAudit(c.Request.Context(), sessionID)
	if err != nil {
		h.RespondWithServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("session-%d-audit.xlsx", sessionID)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
