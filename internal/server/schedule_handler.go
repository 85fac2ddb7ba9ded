package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	scheduledomain "github.com/hostfolio/payouts/internal/schedule/domain"
)

func (s *Server) listSchedules(c *gin.Context) {
	scheds, err := s.schedules.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedules": scheds})
}

func (s *Server) getSchedule(c *gin.Context) {
	sched, err := s.schedules.GetByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (s *Server) createSchedule(c *gin.Context) {
	var req scheduledomain.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	sched, err := s.schedules.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sched)
}

func (s *Server) updateSchedule(c *gin.Context) {
	var req scheduledomain.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	sched, err := s.schedules.Update(c.Request.Context(), c.Param("tag"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, sched)
}

func (s *Server) deleteSchedule(c *gin.Context) {
	if err := s.schedules.Delete(c.Request.Context(), c.Param("tag")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) triggerSchedule(c *gin.Context) {
	res, err := s.engine.TriggerManual(c.Request.Context(), c.Param("tag"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
