package domain

import "errors"

var (
	ErrNoActiveSubscription = errors.New("no_active_subscription")
	ErrPendingPlanChange    = errors.New("pending_plan_change")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
)
