package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// TriggerSweep runs one sweep inline. The loop that normally drives the
// sweeper stays untouched; this exists for operators and tests.
func (s *Server) TriggerSweep(c *gin.Context) {
	if err := s.sweeper.RunOnce(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ran_at": time.Now().UTC().Format(time.RFC3339),
	})
}
