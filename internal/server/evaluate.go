package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	evaldomain "github.com/smallbiznis/flaghub/internal/evaluation/domain"
)

func (s *Server) EvaluateFlag(c *gin.Context) {
	var req evaldomain.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.FlagKey == "" {
		req.FlagKey = strings.TrimSpace(c.Param("key"))
	}

	result, err := s.evalSvc.Evaluate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) BulkEvaluateFlags(c *gin.Context) {
	var req evaldomain.BulkEvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	results, err := s.evalSvc.BulkEvaluate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}
