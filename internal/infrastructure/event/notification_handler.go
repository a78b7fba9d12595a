package event

import (
	"context"
	"fmt"

	"github.com/procura/backoffice/internal/domain/approval"
	"github.com/procura/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// ApprovalNotificationHandler turns approval events into user notifications.
// This implementation writes them to the structured log; a deployment with a
// real notification channel replaces the emit function.
type ApprovalNotificationHandler struct {
	logger *zap.Logger
	emit   func(ctx context.Context, userID string, message string) error
}

// NewApprovalNotificationHandler creates a handler that logs notifications
func NewApprovalNotificationHandler(logger *zap.Logger) *ApprovalNotificationHandler {
	h := &ApprovalNotificationHandler{logger: logger}
	h.emit = func(_ context.Context, userID string, message string) error {
		h.logger.Info("notification",
			zap.String("user_id", userID),
			zap.String("message", message),
		)
		return nil
	}
	return h
}

// WithEmitter overrides the notification delivery function
func (h *ApprovalNotificationHandler) WithEmitter(emit func(ctx context.Context, userID string, message string) error) *ApprovalNotificationHandler {
	h.emit = emit
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *ApprovalNotificationHandler) EventTypes() []string {
	return []string{
		approval.EventTypeApprovalRequested,
		approval.EventTypeStepActed,
		approval.EventTypeStepReassigned,
	}
}

// Handle processes an approval event
func (h *ApprovalNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *approval.ApprovalRequestedEvent:
		message := fmt.Sprintf("%s %s awaits your %s", e.ApprovableType, e.DocumentReference, e.RequestType)
		return h.emit(ctx, e.ResponderID.String(), message)

	case *approval.StepActedEvent:
		message := fmt.Sprintf("%s recorded for the %s step of %s", e.Action, e.RequestType, e.ApprovableID)
		return h.emit(ctx, e.ResponderID.String(), message)

	case *approval.StepReassignedEvent:
		message := fmt.Sprintf("%s %s on %s was handed to you", e.ApprovableType, e.RequestType, e.ApprovableID)
		return h.emit(ctx, e.NewResponderID.String(), message)
	}
	return nil
}

// Ensure ApprovalNotificationHandler implements EventHandler
var _ shared.EventHandler = (*ApprovalNotificationHandler)(nil)
