package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/clock"
	"github.com/debacu/evalgate/internal/config"
	eventdomain "github.com/debacu/evalgate/internal/event/domain"
	eventrepository "github.com/debacu/evalgate/internal/event/repository"
	subscriptiondomain "github.com/debacu/evalgate/internal/subscription/domain"
	subscriptionrepository "github.com/debacu/evalgate/internal/subscription/repository"
	"github.com/debacu/evalgate/internal/sweeper"
	"github.com/debacu/evalgate/pkg/db"
	"go.uber.org/zap"
)

func TestSweepEndpointRunsSweeper(t *testing.T) {
	dbConn := db.NewTest(t)
	if err := dbConn.AutoMigrate(&subscriptiondomain.Subscription{}, &eventdomain.LifecycleEvent{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	subRepo := subscriptionrepository.Provide()
	sw, err := sweeper.New(sweeper.Params{
		DB:               dbConn,
		Log:              zap.NewNop(),
		GenID:            node,
		Clock:            fake,
		SubscriptionRepo: subRepo,
		EventRepo:        eventrepository.Provide(),
	})
	if err != nil {
		t.Fatalf("failed to build sweeper: %v", err)
	}

	trialEnd := fake.Now().Add(-24 * time.Hour)
	sub := &subscriptiondomain.Subscription{
		ID:          node.Generate(),
		CustomerID:  node.Generate(),
		AppCode:     config.DefaultAppCode,
		Status:      subscriptiondomain.StatusTrialActive,
		TrialEndsAt: &trialEnd,
		CreatedAt:   fake.Now(),
		UpdatedAt:   fake.Now(),
	}
	if err := subRepo.Insert(context.Background(), dbConn, sub); err != nil {
		t.Fatalf("failed to insert subscription: %v", err)
	}

	srv := &Server{
		cfg:     config.Config{SweepSecret: "s3cret"},
		sweeper: sw,
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/internal/sweep", "", map[string]string{
		HeaderSweepSecret: "s3cret",
	})

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	got, err := subRepo.FindByID(context.Background(), dbConn, sub.ID)
	if err != nil {
		t.Fatalf("failed to reload subscription: %v", err)
	}
	if got == nil || got.Status != subscriptiondomain.StatusPaymentRequired {
		t.Fatalf("expected PAYMENT_REQUIRED after sweep, got %+v", got)
	}
}
