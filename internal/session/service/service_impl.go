package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/clock"
	"github.com/debacu/evalgate/internal/session/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("session.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Issue(ctx context.Context, req domain.IssueRequest) (*domain.IssueResult, error) {
	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		CustomerID:       req.CustomerID,
		AppCode:          strings.TrimSpace(req.AppCode),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		SessionTokenHash: hashToken(rawToken),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		revoked, err := s.repo.RevokeAllForCustomer(ctx, tx, req.CustomerID, session.AppCode, now)
		if err != nil {
			return err
		}
		if revoked > 0 {
			s.log.Info("revoked prior sessions",
				zap.String("customer_id", req.CustomerID.String()),
				zap.Int64("count", revoked),
			)
		}
		return s.repo.Insert(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	return &domain.IssueResult{Session: session, RawToken: rawToken}, nil
}

func (s *Service) Validate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.repo.FindByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.ErrInvalidSession
	}

	now := s.clock.Now()
	if session.RevokedAt != nil || now.After(session.ExpiresAt) {
		return nil, domain.ErrInvalidSession
	}

	if err := s.repo.UpdateLastSeen(ctx, s.db, session.ID, now); err != nil {
		return nil, err
	}
	session.LastSeenAt = now

	return session, nil
}

func (s *Service) Revoke(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.repo.FindByTokenHash(ctx, s.db, hashToken(token))
	if err != nil {
		return err
	}
	if session == nil {
		return domain.ErrInvalidSession
	}

	return s.repo.Revoke(ctx, s.db, session.ID, s.clock.Now())
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
