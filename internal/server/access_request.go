package server

import (
	"net/http"

	accessrequestdomain "github.com/debacu/evalgate/internal/accessrequest/domain"
	"github.com/gin-gonic/gin"
)

// SubmitAccessRequest is the unauthenticated intake for prospects. A
// PENDING request already held for the same email is acknowledged as a
// duplicate rather than rejected.
func (s *Server) SubmitAccessRequest(c *gin.Context) {
	var req accessrequestdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.accessRequestSvc.Submit(c.Request.Context(), req)
	if err != nil {
		s.recordAccessRequest(c, "rejected")
		AbortWithError(c, err)
		return
	}

	if result.Duplicate {
		s.recordAccessRequest(c, "duplicate")
		c.JSON(http.StatusOK, result)
		return
	}

	s.recordAccessRequest(c, "accepted")
	c.JSON(http.StatusCreated, result)
}

func (s *Server) recordAccessRequest(c *gin.Context, outcome string) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordAccessRequest(c.Request.Context(), outcome)
}
