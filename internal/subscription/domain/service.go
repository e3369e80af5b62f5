package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type ChangePlanRequest struct {
	CustomerID snowflake.ID
	AppCode    string
	PlanCode   string
}

type Service interface {
	// ResolveEffective picks the row that represents the customer's
	// current standing among possibly many historical rows. Returns
	// nil when the customer has no history at all.
	ResolveEffective(ctx context.Context, customerID snowflake.ID, appCode string) (*Subscription, error)
	// State resolves the effective row and derives the client-facing view.
	State(ctx context.Context, customerID snowflake.ID, appCode string) (*EffectiveState, error)
	// FindActive returns the ACTIVE row used as the login gate, or
	// ErrNoActiveSubscription.
	FindActive(ctx context.Context, customerID snowflake.ID, appCode string) (*Subscription, error)
	// ChangePlan records a plan-change request as a PENDING_PAYMENT row.
	// At most one such request may be open per customer and app pair.
	ChangePlan(ctx context.Context, req ChangePlanRequest) (*Subscription, error)
}
