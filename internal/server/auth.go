package server

import (
	"errors"
	"net/http"
	"strings"

	authdomain "github.com/debacu/evalgate/internal/auth/domain"
	customerdomain "github.com/debacu/evalgate/internal/customer/domain"
	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AppCode  string `json:"app_code"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	username := strings.TrimSpace(req.Username)
	if !s.loginLimiter.Allow(c.Request.Context(), username) {
		s.recordLogin(c, "rate_limited", false)
		AbortWithError(c, ErrTooManyRequests)
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), authdomain.LoginRequest{
		Username: username,
		Password: req.Password,
		AppCode:  req.AppCode,
	})
	if err != nil {
		s.recordLogin(c, loginFailureOutcome(err), false)
		AbortWithError(c, err)
		return
	}

	s.recordLogin(c, "success", result.User.IsAdmin)
	c.JSON(http.StatusOK, result)
}

func (s *Server) Logout(c *gin.Context) {
	token, ok := readSessionToken(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.authsvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordSessionRevoked(c.Request.Context(), "logout")
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) Me(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	customer, err := s.customerSvc.GetByID(c.Request.Context(), session.CustomerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if customer == nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
		"user": gin.H{
			"id":        customer.ID.String(),
			"username":  customer.Username,
			"full_name": customer.Name,
			"email":     strings.ToLower(strings.TrimSpace(customer.Email)),
			"is_admin":  customer.IsAdmin(),
		},
	})
}

func (s *Server) recordLogin(c *gin.Context, outcome string, isAdmin bool) {
	if s.obsMetrics == nil {
		return
	}
	s.obsMetrics.RecordLogin(c.Request.Context(), outcome, isAdmin)
}

func loginFailureOutcome(err error) string {
	switch {
	case errors.Is(err, authdomain.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, customerdomain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, customerdomain.ErrCustomerInactive):
		return "inactive"
	case errors.Is(err, customerdomain.ErrEmailMissing):
		return "email_missing"
	case errors.Is(err, subscriptiondomain.ErrNoActiveSubscription):
		return "no_active_subscription"
	default:
		return "error"
	}
}
