package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) findTools(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter is required"})
		return
	}
	res, err := s.directoryFor(c).FindTools(c.Request.Context(), query)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) toolDetails(c *gin.Context) {
	name := strings.TrimSpace(c.Query("tool"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tool parameter is required"})
		return
	}
	detail, err := s.directoryFor(c).GetToolDetails(c.Request.Context(), name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) compare(c *gin.Context) {
	a, b := strings.TrimSpace(c.Query("tool1")), strings.TrimSpace(c.Query("tool2"))
	if a == "" || b == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both tool1 and tool2 parameters are required"})
		return
	}
	cmp, err := s.directoryFor(c).CompareTools(c.Request.Context(), a, b)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

func (s *Server) news(c *gin.Context) {
	force := false
	if v := c.Query("refresh"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "refresh must be true or false"})
			return
		}
		force = b
	}
	batch, err := s.directoryFor(c).GetNews(c.Request.Context(), force)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
