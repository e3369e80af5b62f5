package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/clock"
	eventdomain "github.com/debacu/evalgate/internal/event/domain"
	plandomain "github.com/debacu/evalgate/internal/plan/domain"
	"github.com/debacu/evalgate/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// resolveLimit bounds how much history the resolver considers. Plan
// changes append rows, so anything past the newest 25 is stale.
const resolveLimit = 25

// statusPriority encodes business intent: paying-and-current beats
// awaiting-checkout beats suspended.
var statusPriority = []string{
	domain.StatusActive,
	domain.StatusPendingPayment,
	domain.StatusSuspended,
}

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	PlanRepo  plandomain.Repository
	EventRepo eventdomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	planRepo  plandomain.Repository
	eventRepo eventdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("subscription.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		planRepo:  p.PlanRepo,
		eventRepo: p.EventRepo,
	}
}

func (s *Service) ResolveEffective(ctx context.Context, customerID snowflake.ID, appCode string) (*domain.Subscription, error) {
	subscriptions, err := s.repo.ListByCustomer(ctx, s.db, customerID, strings.TrimSpace(appCode), resolveLimit)
	if err != nil {
		return nil, err
	}
	return pickEffective(subscriptions), nil
}

// pickEffective walks the status priority list over a newest-first
// history. A REPLACED row is only acceptable when it is literally the
// only history left.
func pickEffective(subscriptions []*domain.Subscription) *domain.Subscription {
	hasNonReplaced := false
	for _, item := range subscriptions {
		if item.Status != domain.StatusReplaced {
			hasNonReplaced = true
			break
		}
	}

	for _, status := range statusPriority {
		for _, item := range subscriptions {
			if item.Status != status {
				continue
			}
			if item.Status != domain.StatusReplaced || !hasNonReplaced {
				return item
			}
		}
	}

	if hasNonReplaced {
		for _, item := range subscriptions {
			if item.Status != domain.StatusReplaced {
				return item
			}
		}
	}

	if len(subscriptions) > 0 {
		return subscriptions[0]
	}
	return nil
}

func (s *Service) State(ctx context.Context, customerID snowflake.ID, appCode string) (*domain.EffectiveState, error) {
	subscription, err := s.ResolveEffective(ctx, customerID, appCode)
	if err != nil {
		return nil, err
	}

	state := &domain.EffectiveState{
		Subscription:    subscription,
		PlanDisplayName: domain.PlanDisplayNameFallback,
	}
	if subscription == nil {
		return state, nil
	}

	state.Status = subscription.Status
	state.NextBillingDate = subscription.NextBillingDate
	state.IsPaywalled = domain.IsPaywalledStatus(subscription.Status)

	if subscription.PlanID != 0 {
		plan, err := s.planRepo.FindByID(ctx, s.db, subscription.PlanID)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			state.Plan = plan
			state.PlanCode = strings.ToUpper(plan.Code)
			state.MaxQueriesPerMonth = plan.MaxQueriesPerMonth
			switch {
			case strings.TrimSpace(plan.Name) != "":
				state.PlanDisplayName = plan.Name
			case strings.TrimSpace(plan.Code) != "":
				state.PlanDisplayName = plan.Code
			}
		}
	}

	return state, nil
}

func (s *Service) FindActive(ctx context.Context, customerID snowflake.ID, appCode string) (*domain.Subscription, error) {
	subscription, err := s.repo.FindActive(ctx, s.db, customerID, strings.TrimSpace(appCode))
	if err != nil {
		return nil, err
	}
	if subscription == nil {
		return nil, domain.ErrNoActiveSubscription
	}
	return subscription, nil
}

func (s *Service) ChangePlan(ctx context.Context, req domain.ChangePlanRequest) (*domain.Subscription, error) {
	appCode := strings.TrimSpace(req.AppCode)

	pending, err := s.repo.FindPendingPayment(ctx, s.db, req.CustomerID, appCode)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, domain.ErrPendingPlanChange
	}

	plan, err := s.planRepo.FindByCode(ctx, s.db, req.PlanCode)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrPlanNotFound
	}

	effective, err := s.ResolveEffective(ctx, req.CustomerID, appCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	subscription := &domain.Subscription{
		ID:         s.genID.Generate(),
		CustomerID: req.CustomerID,
		AppCode:    appCode,
		PlanID:     plan.ID,
		Status:     domain.StatusPendingPayment,
		StartDate:  &now,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if effective != nil {
		id := effective.ID
		subscription.ReplacesSubscriptionID = &id
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, subscription); err != nil {
			return err
		}
		return s.eventRepo.Append(ctx, tx, &eventdomain.LifecycleEvent{
			ID:             s.genID.Generate(),
			SubscriptionID: subscription.ID,
			CustomerID:     req.CustomerID,
			Type:           eventdomain.TypePlanChangeRequested,
			Payload: datatypes.JSONMap{
				"plan_code": plan.Code,
			},
			OccurredAt: now,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("plan change requested",
		zap.String("customer_id", req.CustomerID.String()),
		zap.String("plan_code", plan.Code),
	)

	return subscription, nil
}
