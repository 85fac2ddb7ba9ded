package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	listingdomain "github.com/hostfolio/payouts/internal/listing/domain"
)

func (s *Server) listListings(c *gin.Context) {
	listings, err := s.listings.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

func (s *Server) getListing(c *gin.Context) {
	l, err := s.listings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) createListing(c *gin.Context) {
	var req listingdomain.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	l, err := s.listings.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (s *Server) updateListing(c *gin.Context) {
	var req listingdomain.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	l, err := s.listings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (s *Server) listGroups(c *gin.Context) {
	groups, err := s.listings.ListGroups(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (s *Server) createGroup(c *gin.Context) {
	var req listingdomain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	g, err := s.listings.CreateGroup(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}
