package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/assesshq/session-engine/internal/services"
	"github.com/assesshq/session-engine/internal/utils"
)

type HandlerManager struct {
	sessionHandler *SessionHandler
	adminHandler   *AdminHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		sessionHandler: NewSessionHandler(
			serviceManager.Session(),
			serviceManager.Answer(),
			serviceManager.Violation(),
			logger,
		),
		adminHandler: NewAdminHandler(
			serviceManager.Link(),
			serviceManager.Maintenance(),
			serviceManager.Export(),
			logger,
		),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "session-engine",
		})
	})

	v1 := router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("/start", hm.sessionHandler.StartSession)
			sessions.PUT("/:id/answers", hm.sessionHandler.RecordAnswer)
			sessions.GET("/:id/resume", hm.sessionHandler.ResumeState)
			sessions.POST("/:id/violations", hm.sessionHandler.ReportViolation)
			sessions.POST("/:id/complete", hm.sessionHandler.CompleteSession)

			// Administrative
			sessions.POST("/:id/terminate", hm.sessionHandler.TerminateSession)
			sessions.GET("/:id/export", hm.adminHandler.ExportSessionAudit)
		}

		links := v1.Group("/links")
		{
			links.POST("", hm.adminHandler.CreateLink)
			links.POST("/:id/deactivate", hm.adminHandler.DeactivateLink)
			links.GET("/:id/sessions", hm.adminHandler.ListLinkSessions)
		}

		maintenance := v1.Group("/maintenance")
		{
			maintenance.POST("/risk-scores", hm.adminHandler.BackfillRiskScores)
		}
	}
}
