package service

import (
	"context"
	"strings"
	"time"

	"github.com/debacu/evalgate/internal/auth/domain"
	"github.com/debacu/evalgate/internal/config"
	customerdomain "github.com/debacu/evalgate/internal/customer/domain"
	plandomain "github.com/debacu/evalgate/internal/plan/domain"
	sessiondomain "github.com/debacu/evalgate/internal/session/domain"
	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB              *gorm.DB
	Log             *zap.Logger
	Config          config.Config
	CustomerSvc     customerdomain.Service
	SessionSvc      sessiondomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PlanRepo        plandomain.Repository
}

type Service struct {
	db              *gorm.DB
	log             *zap.Logger
	cfg             config.Config
	customerSvc     customerdomain.Service
	sessionSvc      sessiondomain.Service
	subscriptionSvc subscriptiondomain.Service
	planRepo        plandomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("auth.service"),
		cfg:             p.Config,
		customerSvc:     p.CustomerSvc,
		sessionSvc:      p.SessionSvc,
		subscriptionSvc: p.SubscriptionSvc,
		planRepo:        p.PlanRepo,
	}
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	if username == "" || password == "" {
		return nil, domain.ErrMissingCredentials
	}

	appCode := strings.TrimSpace(req.AppCode)
	if appCode == "" {
		appCode = s.appCode()
	}

	customer, err := s.customerSvc.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(customer.Email))
	if email == "" {
		return nil, customerdomain.ErrEmailMissing
	}

	isAdmin := customer.IsAdmin()
	planTier := plandomain.TierBasic
	var monthlyFee int64
	var planStartDate *time.Time

	if isAdmin {
		planTier = plandomain.TierAdmin
		planStartDate = customer.StartDate
	} else {
		subscription, err := s.subscriptionSvc.FindActive(ctx, customer.ID, appCode)
		if err != nil {
			return nil, err
		}

		planStartDate = customer.StartDate
		if planStartDate == nil {
			planStartDate = subscription.StartDate
		}

		if subscription.PlanID != 0 {
			plan, err := s.planRepo.FindByID(ctx, s.db, subscription.PlanID)
			if err != nil {
				return nil, err
			}
			if plan != nil {
				planTier = plandomain.TierForCode(plan.Code)
				monthlyFee = plan.PriceMonthly
			}
		}
	}

	issued, err := s.sessionSvc.Issue(ctx, sessiondomain.IssueRequest{
		CustomerID:   customer.ID,
		AppCode:      appCode,
		CustomerName: customer.Name,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("login succeeded",
		zap.String("customer_id", customer.ID.String()),
		zap.String("app_code", appCode),
		zap.Bool("is_admin", isAdmin),
	)

	startDate := ""
	if planStartDate != nil {
		startDate = planStartDate.Format("2006-01-02")
	}

	return &domain.LoginResult{
		OK:           true,
		AuthEmail:    email,
		SessionToken: issued.RawToken,
		User: domain.UserPayload{
			ID:            customer.ID.String(),
			CustomerID:    customer.ID.String(),
			Username:      customer.Username,
			FullName:      customer.Name,
			Email:         email,
			Plan:          planTier,
			PlanStartDate: startDate,
			MonthlyFee:    monthlyFee,
			IsAdmin:       isAdmin,
		},
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	return s.sessionSvc.Revoke(ctx, rawToken)
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*sessiondomain.Session, error) {
	return s.sessionSvc.Validate(ctx, rawToken)
}

func (s *Service) appCode() string {
	if code := strings.TrimSpace(s.cfg.AppCode); code != "" {
		return code
	}
	return config.DefaultAppCode
}
