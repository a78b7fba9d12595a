package approval

import (
	"context"

	"github.com/google/uuid"
)

// Authorizer is the external permission lookup collaborator. It is consulted
// before a chain is created and before a step is acted on; policy evaluation
// itself lives outside this core.
type Authorizer interface {
	// HasPermission reports whether the user holds the named permission
	HasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
}

// AllowAllAuthorizer grants every permission. Used in tests and in deployments
// where the web layer enforces permissions before calling the core.
type AllowAllAuthorizer struct{}

// HasPermission always returns true
func (AllowAllAuthorizer) HasPermission(context.Context, uuid.UUID, string) (bool, error) {
	return true, nil
}

// UnseenCounterStore caches per-responder counts of pending unseen approval
// steps for inbox badges. It is best-effort: failures are logged and never
// fail the approval operation.
type UnseenCounterStore interface {
	// Increment adjusts a responder's unseen count by delta
	Increment(ctx context.Context, responderID uuid.UUID, delta int64) error
	// Set overwrites a responder's unseen count
	Set(ctx context.Context, responderID uuid.UUID, value int64) error
	// Get returns a responder's cached unseen count; ok is false on a miss
	Get(ctx context.Context, responderID uuid.UUID) (int64, bool, error)
}
