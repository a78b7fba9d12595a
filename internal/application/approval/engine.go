package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/approval"
	"github.com/procura/backoffice/internal/domain/shared"
	"go.uber.org/zap"
)

// Engine orchestrates approval chains: creating a chain for a new document,
// deciding whether a user may act, applying actions, reassigning responders
// and recomputing the parent document's derived status. All chain mutations
// run inside a transaction scope; notification dispatch and inbox counters are
// fire-and-forget side effects that never roll back the transaction.
type Engine struct {
	steps          approval.ApprovalStepRepository
	scope          TransactionScope
	authorizer     Authorizer
	eventPublisher shared.EventPublisher
	unseen         UnseenCounterStore
	logger         *zap.Logger
}

// NewEngine creates a new approval Engine. The derived document status is
// written through the transaction scope's status writer, never through a
// connection of its own.
func NewEngine(
	steps approval.ApprovalStepRepository,
	scope TransactionScope,
	authorizer Authorizer,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		steps:      steps,
		scope:      scope,
		authorizer: authorizer,
		logger:     logger,
	}
}

// SetEventPublisher sets the publisher used for fire-and-forget notifications
func (e *Engine) SetEventPublisher(publisher shared.EventPublisher) {
	e.eventPublisher = publisher
}

// SetUnseenCounterStore sets the optional inbox unseen-counter cache
func (e *Engine) SetUnseenCounterStore(store UnseenCounterStore) {
	e.unseen = store
}

// CreateChain creates the whole step chain for a newly submitted document.
// Ordinals are resolved from the document kind's ordinal table; every step
// starts pending and the document's derived status is set to Pending in the
// same transaction.
func (e *Engine) CreateChain(ctx context.Context, req CreateChainRequest) ([]StepResponse, error) {
	steps, err := e.buildChain(req)
	if err != nil {
		return nil, err
	}

	if err := e.authorize(ctx, req.RequesterID, req.Kind.PermissionKey("submit")); err != nil {
		return nil, err
	}

	err = e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.StepRepo().CreateBatch(ctx, steps); err != nil {
			return err
		}
		return repos.StatusWriter().SetStatus(ctx, req.Kind, req.ApprovableID, approval.DocumentPending)
	})
	if err != nil {
		return nil, err
	}

	e.afterChainCreated(ctx, steps)
	return toStepResponses(steps), nil
}

// CanAct reports whether the acting user may act on the document right now:
// the user must own the first pending step whose strictly-earlier steps are
// all approved. This is a pure read; the same check is re-evaluated under row
// locks inside SubmitAction.
func (e *Engine) CanAct(ctx context.Context, kind approval.DocumentKind, approvableID, actingUserID uuid.UUID) (*Decision, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", shared.ErrInvalidInput, kind)
	}
	steps, err := e.steps.FindByDocument(ctx, kind, approvableID, false)
	if err != nil {
		return nil, err
	}
	decision := decide(steps, actingUserID)
	return &decision, nil
}

// Chain returns a document's whole step chain in order
func (e *Engine) Chain(ctx context.Context, kind approval.DocumentKind, approvableID uuid.UUID) ([]StepResponse, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", shared.ErrInvalidInput, kind)
	}
	steps, err := e.steps.FindByDocument(ctx, kind, approvableID, false)
	if err != nil {
		return nil, err
	}
	responses := make([]StepResponse, 0, len(steps))
	for i := range steps {
		responses = append(responses, ToStepResponse(&steps[i]))
	}
	return responses, nil
}

// SubmitAction applies a responder's decision to their current step and
// recomputes the parent document's derived status, all within one transaction
// holding row locks on the document's step set so concurrent submissions
// cannot both pass the ordering check.
func (e *Engine) SubmitAction(ctx context.Context, kind approval.DocumentKind, approvableID, actingUserID uuid.UUID, action approval.Action, comment string) (*ActionResult, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", shared.ErrInvalidInput, kind)
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, action)
	}

	var (
		acted     *approval.ApprovalStep
		wasUnseen bool
		status    approval.DocumentStatus
	)

	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		steps, err := repos.StepRepo().FindByDocument(ctx, kind, approvableID, true)
		if err != nil {
			return err
		}
		if len(steps) == 0 {
			e.logger.Error("document has no approval steps",
				zap.String("approvable_type", kind.String()),
				zap.String("approvable_id", approvableID.String()),
			)
			return fmt.Errorf("%w: document %s has no approval steps", shared.ErrConsistency, approvableID)
		}

		decision := decide(steps, actingUserID)
		if !decision.Allowed {
			return fmt.Errorf("%w: %s", shared.ErrConflict, decision.Reason)
		}
		step := decision.step

		if err := e.authorize(ctx, actingUserID, kind.PermissionKey(step.RequestType)); err != nil {
			return err
		}

		wasUnseen = !step.IsSeen
		if err := step.Apply(action, comment, time.Now()); err != nil {
			return fmt.Errorf("%w: %s", shared.ErrConflict, err.Error())
		}
		if err := repos.StepRepo().Update(ctx, step); err != nil {
			return err
		}

		// A Return un-blocks editing, so it overrides the purely derived status.
		status = approval.ProjectStatus(steps)
		if action == approval.ActionReturn {
			status = approval.DocumentReturned
		}
		if err := repos.StatusWriter().SetStatus(ctx, kind, approvableID, status); err != nil {
			return err
		}

		acted = step
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, approval.NewStepActedEvent(acted, action, status))
	if wasUnseen {
		e.adjustUnseen(ctx, acted.ResponderID, -1)
	}

	return &ActionResult{
		Step:           ToStepResponse(acted),
		DocumentStatus: status,
	}, nil
}

// Reassign hands a pending step to a new responder. The ordinal and request
// type are preserved and the seen flag is reset so the new responder's inbox
// shows an unseen item.
func (e *Engine) Reassign(ctx context.Context, stepID, newResponderID uuid.UUID, newPositionID *uuid.UUID, comment string) (*StepResponse, error) {
	var (
		step         *approval.ApprovalStep
		oldResponder uuid.UUID
		wasUnseen    bool
	)

	err := e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		found, err := repos.StepRepo().FindByID(ctx, stepID)
		if err != nil {
			return err
		}
		oldResponder = found.ResponderID
		wasUnseen = !found.IsSeen
		if err := found.ReassignTo(newResponderID, newPositionID, comment); err != nil {
			return fmt.Errorf("%w: %s", shared.ErrConflict, err.Error())
		}
		if err := repos.StepRepo().Update(ctx, found); err != nil {
			return err
		}
		step = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, approval.NewStepReassignedEvent(step, oldResponder))
	if wasUnseen {
		e.adjustUnseen(ctx, oldResponder, -1)
	}
	e.adjustUnseen(ctx, newResponderID, 1)

	response := ToStepResponse(step)
	return &response, nil
}

// Resubmit replaces a document's whole step batch after the document was
// edited, typically following a Return. This is an intentional full reset:
// edited documents may have a structurally different approval roster.
func (e *Engine) Resubmit(ctx context.Context, req CreateChainRequest) ([]StepResponse, error) {
	steps, err := e.buildChain(req)
	if err != nil {
		return nil, err
	}

	if err := e.authorize(ctx, req.RequesterID, req.Kind.PermissionKey("submit")); err != nil {
		return nil, err
	}

	err = e.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.StepRepo().DeleteByDocument(ctx, req.Kind, req.ApprovableID); err != nil {
			return err
		}
		if err := repos.StepRepo().CreateBatch(ctx, steps); err != nil {
			return err
		}
		return repos.StatusWriter().SetStatus(ctx, req.Kind, req.ApprovableID, approval.DocumentPending)
	})
	if err != nil {
		return nil, err
	}

	e.afterChainCreated(ctx, steps)
	return toStepResponses(steps), nil
}

// MarkSeen flags a step as seen by its responder and keeps the unseen counter
// in step.
func (e *Engine) MarkSeen(ctx context.Context, stepID, actingUserID uuid.UUID) error {
	step, err := e.steps.FindByID(ctx, stepID)
	if err != nil {
		return err
	}
	if step.ResponderID != actingUserID {
		return fmt.Errorf("%w: step is not assigned to user", shared.ErrForbidden)
	}
	if step.IsSeen {
		return nil
	}
	if err := e.steps.MarkSeen(ctx, stepID); err != nil {
		return err
	}
	e.adjustUnseen(ctx, actingUserID, -1)
	return nil
}

// Inbox returns a responder's pending steps with the unseen badge count
func (e *Engine) Inbox(ctx context.Context, responderID uuid.UUID, filter shared.Filter) (*InboxResponse, error) {
	steps, total, err := e.steps.FindPendingForResponder(ctx, responderID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]StepResponse, 0, len(steps))
	for i := range steps {
		responses = append(responses, ToStepResponse(&steps[i]))
	}

	return &InboxResponse{
		Steps:       responses,
		Total:       total,
		UnseenCount: e.unseenCount(ctx, responderID),
	}, nil
}

// buildChain validates the request and constructs the pending step entities
func (e *Engine) buildChain(req CreateChainRequest) ([]*approval.ApprovalStep, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown document kind %q", shared.ErrInvalidInput, req.Kind)
	}
	if req.ApprovableID == uuid.Nil {
		return nil, fmt.Errorf("%w: approvable ID cannot be empty", shared.ErrInvalidInput)
	}
	if req.RequesterID == uuid.Nil {
		return nil, fmt.Errorf("%w: requester ID cannot be empty", shared.ErrInvalidInput)
	}
	if len(req.Steps) == 0 {
		return nil, fmt.Errorf("%w: approval chain requires at least one step", shared.ErrInvalidInput)
	}

	steps := make([]*approval.ApprovalStep, 0, len(req.Steps))
	for _, spec := range req.Steps {
		ordinal, err := req.Kind.ResolveOrdinal(spec.RequestType)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err.Error())
		}
		step, err := approval.NewApprovalStep(
			req.Kind,
			req.ApprovableID,
			req.DocumentName,
			req.DocumentReference,
			spec.RequestType,
			ordinal,
			req.RequesterID,
			spec.ResponderID,
			spec.PositionID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", shared.ErrInvalidInput, err.Error())
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// authorize consults the external permission collaborator
func (e *Engine) authorize(ctx context.Context, userID uuid.UUID, permission string) error {
	allowed, err := e.authorizer.HasPermission(ctx, userID, permission)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("%w: user lacks permission %s", shared.ErrForbidden, permission)
	}
	return nil
}

// afterChainCreated fires notifications and bumps inbox counters once the
// chain transaction has committed
func (e *Engine) afterChainCreated(ctx context.Context, steps []*approval.ApprovalStep) {
	for _, step := range steps {
		e.publish(ctx, approval.NewApprovalRequestedEvent(step))
		e.adjustUnseen(ctx, step.ResponderID, 1)
	}
}

// publish sends events fire-and-forget; bus failures must not fail the operation
func (e *Engine) publish(ctx context.Context, events ...shared.DomainEvent) {
	if e.eventPublisher == nil {
		return
	}
	if err := e.eventPublisher.Publish(ctx, events...); err != nil {
		e.logger.Warn("failed to publish approval events", zap.Error(err))
	}
}

// adjustUnseen keeps the cached inbox badge in step, best-effort
func (e *Engine) adjustUnseen(ctx context.Context, responderID uuid.UUID, delta int64) {
	if e.unseen == nil {
		return
	}
	if err := e.unseen.Increment(ctx, responderID, delta); err != nil {
		e.logger.Warn("failed to adjust unseen counter",
			zap.String("responder_id", responderID.String()),
			zap.Error(err),
		)
	}
}

// unseenCount reads the cached badge count, falling back to the store on a miss
func (e *Engine) unseenCount(ctx context.Context, responderID uuid.UUID) int64 {
	if e.unseen != nil {
		if count, ok, err := e.unseen.Get(ctx, responderID); err == nil && ok {
			return count
		}
	}
	count, err := e.steps.CountPendingUnseen(ctx, responderID)
	if err != nil {
		e.logger.Warn("failed to count unseen steps", zap.Error(err))
		return 0
	}
	if e.unseen != nil {
		if err := e.unseen.Set(ctx, responderID, count); err != nil {
			e.logger.Warn("failed to prime unseen counter", zap.Error(err))
		}
	}
	return count
}

// decide evaluates the can-act rule over a document's steps: the acting user
// must own the first pending step in (ordinal, created_at, id) order, and
// every step strictly before it must be approved. A chain blocked by a
// rejection or a return never advances; later steps stay visibly pending but
// are denied here.
func decide(steps []approval.ApprovalStep, actingUserID uuid.UUID) Decision {
	approval.SortSteps(steps)

	idx := -1
	hasTerminalForUser := false
	for i := range steps {
		if steps[i].ResponderID != actingUserID {
			continue
		}
		if steps[i].ApprovalStatus == approval.StepPending {
			idx = i
			break
		}
		hasTerminalForUser = true
	}
	if idx < 0 {
		reason := ReasonNoPendingStep
		if hasTerminalForUser {
			reason = "step has already been processed"
		}
		return Decision{Allowed: false, Reason: reason}
	}

	for i := 0; i < idx; i++ {
		switch steps[i].ApprovalStatus {
		case approval.StepRejected:
			return Decision{Allowed: false, Reason: ReasonPreviousRejected}
		case approval.StepReturned:
			return Decision{Allowed: false, Reason: ReasonPreviousReturned}
		}
	}
	for i := 0; i < idx; i++ {
		if steps[i].ApprovalStatus == approval.StepPending {
			return Decision{Allowed: false, Reason: ReasonPreviousIncomplete}
		}
	}

	step := &steps[idx]
	response := ToStepResponse(step)
	return Decision{
		Allowed:     true,
		RequestType: step.RequestType,
		Step:        &response,
		step:        step,
	}
}
