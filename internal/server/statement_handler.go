package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	statementdomain "github.com/hostfolio/payouts/internal/statement/domain"
)

func (s *Server) listStatements(c *gin.Context) {
	var req statementdomain.ListStatementsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	statements, page, err := s.statements.List(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"statements": statements, "page_info": page})
}

func (s *Server) getStatement(c *gin.Context) {
	st, err := s.statements.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) readyStatement(c *gin.Context) {
	if err := s.statements.MarkReady(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) sendStatement(c *gin.Context) {
	if err := s.statements.MarkSent(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) engineStatus(c *gin.Context) {
	scheds, err := s.schedules.ListEnabled(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"engine": s.engine.Status(), "schedules": scheds})
}
