package server

import (
	"net/http"
	"strings"

	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type ChangePlanRequest struct {
	PlanCode string `json:"plan_code"`
}

// GetSubscriptionState returns the derived view for the session's
// customer. A customer with no history at all is not paywalled; only
// PAYMENT_REQUIRED and SUSPENDED deny access.
func (s *Server) GetSubscriptionState(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	state, err := s.subscriptionSvc.State(c.Request.Context(), session.CustomerID, session.AppCode)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

func (s *Server) ChangePlan(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	planCode := strings.ToUpper(strings.TrimSpace(req.PlanCode))
	if planCode == "" {
		AbortWithError(c, newValidationError("plan_code", "required", "plan code is required"))
		return
	}

	subscription, err := s.subscriptionSvc.ChangePlan(c.Request.Context(), subscriptiondomain.ChangePlanRequest{
		CustomerID: session.CustomerID,
		AppCode:    session.AppCode,
		PlanCode:   planCode,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordPlanChange(c.Request.Context(), planCode)
	}
	c.JSON(http.StatusCreated, subscription)
}
