package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	notificationdomain "github.com/hostfolio/payouts/internal/notification/domain"
)

func (s *Server) listNotifications(c *gin.Context) {
	var req notificationdomain.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	notifications, page, err := s.notifications.List(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "page_info": page})
}

func (s *Server) readNotification(c *gin.Context) {
	if err := s.notifications.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) dismissNotification(c *gin.Context) {
	if err := s.notifications.Dismiss(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
