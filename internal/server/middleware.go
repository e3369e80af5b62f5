package server

import (
	"crypto/subtle"
	"strings"

	obscontext "github.com/debacu/evalgate/internal/observability/context"
	sessiondomain "github.com/debacu/evalgate/internal/session/domain"
	"github.com/gin-gonic/gin"
)

const (
	// HeaderSessionToken carries the raw session token on authenticated calls.
	HeaderSessionToken = "X-Session-Token"
	// HeaderSweepSecret guards the internal sweep trigger.
	HeaderSweepSecret = "X-Sweep-Secret"

	contextSessionKey = "session"
)

func readSessionToken(c *gin.Context) (string, bool) {
	token := strings.TrimSpace(c.GetHeader(HeaderSessionToken))
	if token == "" {
		return "", false
	}
	return token, true
}

// SessionRequired resolves the session token header and stores the live
// session on the request context. Unknown, expired and revoked tokens
// all fail the same way.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := readSessionToken(c)
		if !ok {
			AbortWithError(c, sessiondomain.ErrInvalidSession)
			return
		}

		session, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := obscontext.WithActor(c.Request.Context(), "customer", session.CustomerID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextSessionKey, session)
		c.Next()
	}
}

func sessionFromContext(c *gin.Context) (*sessiondomain.Session, bool) {
	value, ok := c.Get(contextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*sessiondomain.Session)
	return session, ok && session != nil
}

// SweepSecretRequired gates the internal sweep trigger behind a shared
// secret. A blank configured secret disables the endpoint entirely.
func (s *Server) SweepSecretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(s.cfg.SweepSecret)
		if secret == "" {
			AbortWithError(c, ErrNotFound)
			return
		}

		provided := strings.TrimSpace(c.GetHeader(HeaderSweepSecret))
		if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
