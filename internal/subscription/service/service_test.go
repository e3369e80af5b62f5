package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/clock"
	eventdomain "github.com/debacu/evalgate/internal/event/domain"
	eventrepository "github.com/debacu/evalgate/internal/event/repository"
	plandomain "github.com/debacu/evalgate/internal/plan/domain"
	planrepository "github.com/debacu/evalgate/internal/plan/repository"
	"github.com/debacu/evalgate/internal/subscription/domain"
	"github.com/debacu/evalgate/internal/subscription/repository"
	"github.com/debacu/evalgate/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const appCode = "DEBACU_EVAL"

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbConn := db.NewTest(t)
	if err := dbConn.AutoMigrate(&domain.Subscription{}, &plandomain.Plan{}, &eventdomain.LifecycleEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:        dbConn,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		Repo:      repository.Provide(),
		PlanRepo:  planrepository.Provide(),
		EventRepo: eventrepository.Provide(),
	})

	return &fixture{svc: svc, db: dbConn, node: node, clock: fake}
}

func (f *fixture) insertSubscription(t *testing.T, customerID snowflake.ID, status string, createdAt time.Time) *domain.Subscription {
	t.Helper()
	sub := &domain.Subscription{
		ID:         f.node.Generate(),
		CustomerID: customerID,
		AppCode:    appCode,
		Status:     status,
		StartDate:  &createdAt,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := repository.Provide().Insert(context.Background(), f.db, sub); err != nil {
		t.Fatalf("failed to insert subscription: %v", err)
	}
	return sub
}

func (f *fixture) insertPlan(t *testing.T, code, name string, priceMonthly int64) *plandomain.Plan {
	t.Helper()
	now := f.clock.Now()
	plan := &plandomain.Plan{
		ID:           f.node.Generate(),
		Code:         code,
		Name:         name,
		PriceMonthly: priceMonthly,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := planrepository.Provide().Insert(context.Background(), f.db, plan); err != nil {
		t.Fatalf("failed to insert plan: %v", err)
	}
	return plan
}

func TestResolveEffectivePriority(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(100)

	// Creation order: ACTIVE first, then SUSPENDED, then REPLACED newest.
	active := f.insertSubscription(t, customerID, domain.StatusActive, base)
	f.insertSubscription(t, customerID, domain.StatusSuspended, base.Add(24*time.Hour))
	f.insertSubscription(t, customerID, domain.StatusReplaced, base.Add(48*time.Hour))

	got, err := f.svc.ResolveEffective(context.Background(), customerID, appCode)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if got == nil || got.ID != active.ID {
		t.Fatalf("expected ACTIVE row to win, got %+v", got)
	}
}

func TestResolveEffectivePendingBeatsSuspended(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(101)

	pending := f.insertSubscription(t, customerID, domain.StatusPendingPayment, base)
	f.insertSubscription(t, customerID, domain.StatusSuspended, base.Add(24*time.Hour))

	got, err := f.svc.ResolveEffective(context.Background(), customerID, appCode)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if got == nil || got.ID != pending.ID {
		t.Fatalf("expected PENDING_PAYMENT row to win, got %+v", got)
	}
}

func TestResolveEffectiveReplacedOnlyAsLastResort(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(102)

	f.insertSubscription(t, customerID, domain.StatusReplaced, base)
	newest := f.insertSubscription(t, customerID, domain.StatusReplaced, base.Add(24*time.Hour))

	got, err := f.svc.ResolveEffective(context.Background(), customerID, appCode)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if got == nil || got.ID != newest.ID {
		t.Fatalf("expected newest REPLACED row, got %+v", got)
	}
}

func TestResolveEffectiveNonPriorityFallback(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(103)

	f.insertSubscription(t, customerID, domain.StatusReplaced, base.Add(48*time.Hour))
	trial := f.insertSubscription(t, customerID, domain.StatusTrialActive, base)

	got, err := f.svc.ResolveEffective(context.Background(), customerID, appCode)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if got == nil || got.ID != trial.ID {
		t.Fatalf("expected TRIAL_ACTIVE fallback, got %+v", got)
	}
}

func TestResolveEffectiveEmptyHistory(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.ResolveEffective(context.Background(), snowflake.ID(999), appCode)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no subscription, got %+v", got)
	}
}

func TestStateDerivation(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(200)

	plan := f.insertPlan(t, "BASIC", "Plan Básico", 2900)
	sub := f.insertSubscription(t, customerID, domain.StatusPaymentRequired, base)
	if err := f.db.Exec(`UPDATE subscriptions SET plan_id = ? WHERE id = ?`, plan.ID, sub.ID).Error; err != nil {
		t.Fatalf("failed to attach plan: %v", err)
	}

	state, err := f.svc.State(context.Background(), customerID, appCode)
	if err != nil {
		t.Fatalf("failed to build state: %v", err)
	}
	if !state.IsPaywalled {
		t.Fatal("expected PAYMENT_REQUIRED to be paywalled")
	}
	if state.PlanDisplayName != "Plan Básico" {
		t.Fatalf("expected plan name, got %q", state.PlanDisplayName)
	}
	if state.PlanCode != "BASIC" {
		t.Fatalf("expected plan code BASIC, got %q", state.PlanCode)
	}
}

func TestStateWithoutSubscriptionNotPaywalled(t *testing.T) {
	f := newFixture(t)

	state, err := f.svc.State(context.Background(), snowflake.ID(201), appCode)
	if err != nil {
		t.Fatalf("failed to build state: %v", err)
	}
	if state.IsPaywalled {
		t.Fatal("expected absence of subscription to not be paywalled")
	}
	if state.PlanDisplayName != domain.PlanDisplayNameFallback {
		t.Fatalf("expected fallback display name, got %q", state.PlanDisplayName)
	}
}

func TestStateActiveNotPaywalled(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(202)

	f.insertSubscription(t, customerID, domain.StatusActive, base)

	state, err := f.svc.State(context.Background(), customerID, appCode)
	if err != nil {
		t.Fatalf("failed to build state: %v", err)
	}
	if state.IsPaywalled {
		t.Fatal("expected ACTIVE to not be paywalled")
	}
}

func TestFindActiveMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FindActive(context.Background(), snowflake.ID(300), appCode)
	if !errors.Is(err, domain.ErrNoActiveSubscription) {
		t.Fatalf("expected ErrNoActiveSubscription, got %v", err)
	}
}

func TestChangePlanConflictOnPending(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(400)

	f.insertPlan(t, "PRO", "Plan Profesional", 5900)
	f.insertSubscription(t, customerID, domain.StatusPendingPayment, base)

	_, err := f.svc.ChangePlan(context.Background(), domain.ChangePlanRequest{
		CustomerID: customerID,
		AppCode:    appCode,
		PlanCode:   "PRO",
	})
	if !errors.Is(err, domain.ErrPendingPlanChange) {
		t.Fatalf("expected ErrPendingPlanChange, got %v", err)
	}
}

func TestChangePlanUnknownPlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ChangePlan(context.Background(), domain.ChangePlanRequest{
		CustomerID: snowflake.ID(401),
		AppCode:    appCode,
		PlanCode:   "NOPE",
	})
	if !errors.Is(err, plandomain.ErrPlanNotFound) {
		t.Fatalf("expected ErrPlanNotFound, got %v", err)
	}
}

func TestChangePlanRecordsReplacementAndEvent(t *testing.T) {
	f := newFixture(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	customerID := snowflake.ID(402)

	f.insertPlan(t, "PRO", "Plan Profesional", 5900)
	current := f.insertSubscription(t, customerID, domain.StatusActive, base)

	created, err := f.svc.ChangePlan(context.Background(), domain.ChangePlanRequest{
		CustomerID: customerID,
		AppCode:    appCode,
		PlanCode:   "PRO",
	})
	if err != nil {
		t.Fatalf("failed to change plan: %v", err)
	}
	if created.Status != domain.StatusPendingPayment {
		t.Fatalf("expected PENDING_PAYMENT, got %s", created.Status)
	}
	if created.ReplacesSubscriptionID == nil || *created.ReplacesSubscriptionID != current.ID {
		t.Fatalf("expected replaces_subscription_id %s, got %v", current.ID, created.ReplacesSubscriptionID)
	}

	events, err := eventrepository.Provide().ListBySubscription(context.Background(), f.db, created.ID)
	if err != nil {
		t.Fatalf("failed to list events: %v", err)
	}
	if len(events) != 1 || events[0].Type != eventdomain.TypePlanChangeRequested {
		t.Fatalf("expected one PLAN_CHANGE_REQUESTED event, got %+v", events)
	}
}
