package approval

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/approval"
	"github.com/procura/backoffice/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStepRepo is an in-memory ApprovalStepRepository for engine scenarios
type memStepRepo struct {
	steps map[uuid.UUID]*approval.ApprovalStep
}

func newMemStepRepo() *memStepRepo {
	return &memStepRepo{steps: make(map[uuid.UUID]*approval.ApprovalStep)}
}

func (r *memStepRepo) FindByID(_ context.Context, id uuid.UUID) (*approval.ApprovalStep, error) {
	step, ok := r.steps[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *step
	return &copied, nil
}

func (r *memStepRepo) FindByDocument(_ context.Context, kind approval.DocumentKind, approvableID uuid.UUID, _ bool) ([]approval.ApprovalStep, error) {
	var out []approval.ApprovalStep
	for _, step := range r.steps {
		if step.ApprovableType == kind && step.ApprovableID == approvableID {
			out = append(out, *step)
		}
	}
	approval.SortSteps(out)
	return out, nil
}

func (r *memStepRepo) FindPendingForResponder(_ context.Context, responderID uuid.UUID, _ shared.Filter) ([]approval.ApprovalStep, int64, error) {
	var out []approval.ApprovalStep
	for _, step := range r.steps {
		if step.ResponderID == responderID && step.ApprovalStatus == approval.StepPending {
			out = append(out, *step)
		}
	}
	approval.SortSteps(out)
	return out, int64(len(out)), nil
}

func (r *memStepRepo) CountPendingUnseen(_ context.Context, responderID uuid.UUID) (int64, error) {
	var count int64
	for _, step := range r.steps {
		if step.ResponderID == responderID && step.ApprovalStatus == approval.StepPending && !step.IsSeen {
			count++
		}
	}
	return count, nil
}

func (r *memStepRepo) CreateBatch(_ context.Context, steps []*approval.ApprovalStep) error {
	for _, step := range steps {
		copied := *step
		r.steps[step.ID] = &copied
	}
	return nil
}

func (r *memStepRepo) Update(_ context.Context, step *approval.ApprovalStep) error {
	if _, ok := r.steps[step.ID]; !ok {
		return shared.ErrNotFound
	}
	copied := *step
	r.steps[step.ID] = &copied
	return nil
}

func (r *memStepRepo) MarkSeen(_ context.Context, id uuid.UUID) error {
	step, ok := r.steps[id]
	if !ok {
		return shared.ErrNotFound
	}
	step.IsSeen = true
	return nil
}

func (r *memStepRepo) DeleteByDocument(_ context.Context, kind approval.DocumentKind, approvableID uuid.UUID) (int64, error) {
	var removed int64
	for id, step := range r.steps {
		if step.ApprovableType == kind && step.ApprovableID == approvableID {
			delete(r.steps, id)
			removed++
		}
	}
	return removed, nil
}

// statusRecorder records derived document statuses written by the engine
type statusRecorder struct {
	statuses map[uuid.UUID]approval.DocumentStatus
}

func newStatusRecorder() *statusRecorder {
	return &statusRecorder{statuses: make(map[uuid.UUID]approval.DocumentStatus)}
}

func (w *statusRecorder) SetStatus(_ context.Context, _ approval.DocumentKind, approvableID uuid.UUID, status approval.DocumentStatus) error {
	w.statuses[approvableID] = status
	return nil
}

// denyAllAuthorizer denies every permission
type denyAllAuthorizer struct{}

func (denyAllAuthorizer) HasPermission(context.Context, uuid.UUID, string) (bool, error) {
	return false, nil
}

type engineFixture struct {
	engine *Engine
	repo   *memStepRepo
	status *statusRecorder
}

func newFixture() *engineFixture {
	repo := newMemStepRepo()
	status := newStatusRecorder()
	engine := NewEngine(repo, NewNoOpTransactionScope(repo, status), AllowAllAuthorizer{}, zap.NewNop())
	return &engineFixture{engine: engine, repo: repo, status: status}
}

func purchaseChain(docID uuid.UUID, requester uuid.UUID, responders ...uuid.UUID) CreateChainRequest {
	roles := []string{"initial", "check", "review", "approve", "acknowledge"}
	steps := make([]StepSpec, 0, len(responders))
	for i, responder := range responders {
		steps = append(steps, StepSpec{RequestType: roles[i], ResponderID: responder})
	}
	return CreateChainRequest{
		Kind:              approval.KindPurchaseRequest,
		ApprovableID:      docID,
		DocumentName:      "Chemistry lab consumables",
		DocumentReference: "PR-2026-0104",
		RequesterID:       requester,
		Steps:             steps,
	}
}

func TestEngine_CreateChain(t *testing.T) {
	ctx := context.Background()

	t.Run("creates pending steps with resolved ordinals", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b, c := uuid.New(), uuid.New(), uuid.New()

		created, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b, c))

		require.NoError(t, err)
		require.Len(t, created, 3)
		assert.Equal(t, 1, created[0].Ordinal)
		assert.Equal(t, 2, created[1].Ordinal)
		assert.Equal(t, 3, created[2].Ordinal)
		for _, step := range created {
			assert.Equal(t, approval.StepPending.String(), step.ApprovalStatus)
		}
		assert.Equal(t, approval.DocumentPending, f.status.statuses[docID])
	})

	t.Run("rejects empty roster", func(t *testing.T) {
		f := newFixture()
		req := purchaseChain(uuid.New(), uuid.New())

		_, err := f.engine.CreateChain(ctx, req)

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("rejects unknown request type for the document kind", func(t *testing.T) {
		f := newFixture()
		req := CreateChainRequest{
			Kind:         approval.KindStockTransfer,
			ApprovableID: uuid.New(),
			RequesterID:  uuid.New(),
			Steps:        []StepSpec{{RequestType: "acknowledge", ResponderID: uuid.New()}},
		}

		_, err := f.engine.CreateChain(ctx, req)

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("denied by the authorization collaborator", func(t *testing.T) {
		repo := newMemStepRepo()
		engine := NewEngine(repo, NewNoOpTransactionScope(repo, newStatusRecorder()), denyAllAuthorizer{}, zap.NewNop())

		_, err := engine.CreateChain(ctx, purchaseChain(uuid.New(), uuid.New(), uuid.New()))

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Empty(t, repo.steps)
	})

	t.Run("notifies every responder", func(t *testing.T) {
		f := newFixture()
		publisher := &capturingPublisher{}
		f.engine.SetEventPublisher(publisher)

		_, err := f.engine.CreateChain(ctx, purchaseChain(uuid.New(), uuid.New(), uuid.New(), uuid.New()))

		require.NoError(t, err)
		assert.Len(t, publisher.events, 2)
		assert.Equal(t, approval.EventTypeApprovalRequested, publisher.events[0].EventType())
	})
}

func TestEngine_CanAct_Ordering(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	docID := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b, c))
	require.NoError(t, err)

	kind := approval.KindPurchaseRequest

	t.Run("first responder may act immediately", func(t *testing.T) {
		decision, err := f.engine.CanAct(ctx, kind, docID, a)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Equal(t, "initial", decision.RequestType)
	})

	t.Run("later responders are blocked until earlier steps approve", func(t *testing.T) {
		decision, err := f.engine.CanAct(ctx, kind, docID, b)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonPreviousIncomplete, decision.Reason)

		decision, err = f.engine.CanAct(ctx, kind, docID, c)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
	})

	t.Run("stranger has no pending step", func(t *testing.T) {
		decision, err := f.engine.CanAct(ctx, kind, docID, uuid.New())
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonNoPendingStep, decision.Reason)
	})

	t.Run("approving in order unblocks the next step", func(t *testing.T) {
		_, err := f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionApprove, "")
		require.NoError(t, err)

		decision, err := f.engine.CanAct(ctx, kind, docID, b)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)

		decision, err = f.engine.CanAct(ctx, kind, docID, c)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)

		_, err = f.engine.SubmitAction(ctx, kind, docID, b, approval.ActionApprove, "")
		require.NoError(t, err)

		decision, err = f.engine.CanAct(ctx, kind, docID, c)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})
}

func TestEngine_CanAct_Blocking(t *testing.T) {
	ctx := context.Background()
	kind := approval.KindPurchaseRequest

	t.Run("rejection blocks all later steps permanently", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b, c := uuid.New(), uuid.New(), uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b, c))
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionApprove, "")
		require.NoError(t, err)
		_, err = f.engine.SubmitAction(ctx, kind, docID, b, approval.ActionReject, "budget exceeded")
		require.NoError(t, err)

		decision, err := f.engine.CanAct(ctx, kind, docID, c)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonPreviousRejected, decision.Reason)

		// later steps stay visibly pending but never become actionable
		steps, err := f.repo.FindByDocument(ctx, kind, docID, false)
		require.NoError(t, err)
		assert.Equal(t, approval.StepPending, steps[2].ApprovalStatus)
	})

	t.Run("return blocks later steps with its own reason", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b := uuid.New(), uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b))
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionReturn, "fix quantities")
		require.NoError(t, err)

		decision, err := f.engine.CanAct(ctx, kind, docID, b)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, ReasonPreviousReturned, decision.Reason)
	})
}

func TestEngine_SubmitAction(t *testing.T) {
	ctx := context.Background()
	kind := approval.KindPurchaseRequest

	t.Run("approving every step projects the document approved", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b := uuid.New(), uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b))
		require.NoError(t, err)

		result, err := f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionApprove, "ok")
		require.NoError(t, err)
		assert.Equal(t, approval.DocumentPending, result.DocumentStatus)
		assert.NotNil(t, result.Step.RespondedDate)
		assert.Equal(t, "ok", result.Step.Comment)

		result, err = f.engine.SubmitAction(ctx, kind, docID, b, approval.ActionApprove, "")
		require.NoError(t, err)
		assert.Equal(t, approval.DocumentApproved, result.DocumentStatus)
		assert.Equal(t, approval.DocumentApproved, f.status.statuses[docID])
	})

	t.Run("rejection projects the document rejected", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a := uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, uuid.New()))
		require.NoError(t, err)

		result, err := f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionReject, "no")
		require.NoError(t, err)
		assert.Equal(t, approval.DocumentRejected, result.DocumentStatus)
	})

	t.Run("return sets the explicit returned status", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a := uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, uuid.New()))
		require.NoError(t, err)

		result, err := f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionReturn, "redo")
		require.NoError(t, err)
		assert.Equal(t, approval.DocumentReturned, result.DocumentStatus)
		assert.Equal(t, approval.DocumentReturned, f.status.statuses[docID])
	})

	t.Run("double submission is a conflict", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a := uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a))
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionApprove, "")
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionApprove, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConflict)
		assert.Contains(t, err.Error(), "already been processed")
	})

	t.Run("acting out of turn is a conflict", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b := uuid.New(), uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b))
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, b, approval.ActionApprove, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})

	t.Run("document without steps is a consistency error", func(t *testing.T) {
		f := newFixture()

		_, err := f.engine.SubmitAction(ctx, kind, uuid.New(), uuid.New(), approval.ActionApprove, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConsistency)
	})

	t.Run("unknown action is invalid input", func(t *testing.T) {
		f := newFixture()

		_, err := f.engine.SubmitAction(ctx, kind, uuid.New(), uuid.New(), approval.Action("ESCALATE"), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestEngine_Reassign(t *testing.T) {
	ctx := context.Background()
	kind := approval.KindPurchaseRequest

	t.Run("preserves ordinal and role, resets seen flag", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b := uuid.New(), uuid.New()
		created, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b))
		require.NoError(t, err)

		secondStep := created[1]
		require.NoError(t, f.repo.MarkSeen(ctx, secondStep.ID))

		replacement := uuid.New()
		updated, err := f.engine.Reassign(ctx, secondStep.ID, replacement, nil, "on leave")

		require.NoError(t, err)
		assert.Equal(t, replacement, updated.ResponderID)
		assert.Equal(t, secondStep.Ordinal, updated.Ordinal)
		assert.Equal(t, secondStep.RequestType, updated.RequestType)
		assert.False(t, updated.IsSeen)
	})

	t.Run("terminal step cannot be reassigned", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a := uuid.New()
		created, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a))
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionApprove, "")
		require.NoError(t, err)

		_, err = f.engine.Reassign(ctx, created[0].ID, uuid.New(), nil, "")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})
}

func TestEngine_Resubmit(t *testing.T) {
	ctx := context.Background()
	kind := approval.KindPurchaseRequest

	t.Run("replaces the whole batch and resets to pending", func(t *testing.T) {
		f := newFixture()
		docID := uuid.New()
		a, b := uuid.New(), uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(docID, uuid.New(), a, b))
		require.NoError(t, err)

		_, err = f.engine.SubmitAction(ctx, kind, docID, a, approval.ActionReturn, "wrong unit")
		require.NoError(t, err)
		assert.Equal(t, approval.DocumentReturned, f.status.statuses[docID])

		// edited document comes back with a different roster
		d, e2 := uuid.New(), uuid.New()
		created, err := f.engine.Resubmit(ctx, purchaseChain(docID, uuid.New(), d, e2))

		require.NoError(t, err)
		require.Len(t, created, 2)
		assert.Equal(t, approval.DocumentPending, f.status.statuses[docID])

		steps, err := f.repo.FindByDocument(ctx, kind, docID, false)
		require.NoError(t, err)
		require.Len(t, steps, 2)
		for _, step := range steps {
			assert.Equal(t, approval.StepPending, step.ApprovalStatus)
		}
	})
}

func TestEngine_Inbox(t *testing.T) {
	ctx := context.Background()

	t.Run("lists pending steps with unseen badge", func(t *testing.T) {
		f := newFixture()
		responder := uuid.New()
		_, err := f.engine.CreateChain(ctx, purchaseChain(uuid.New(), uuid.New(), responder))
		require.NoError(t, err)
		_, err = f.engine.CreateChain(ctx, purchaseChain(uuid.New(), uuid.New(), responder))
		require.NoError(t, err)

		inbox, err := f.engine.Inbox(ctx, responder, shared.DefaultFilter())

		require.NoError(t, err)
		assert.Len(t, inbox.Steps, 2)
		assert.Equal(t, int64(2), inbox.UnseenCount)
	})

	t.Run("mark seen drops the badge", func(t *testing.T) {
		f := newFixture()
		responder := uuid.New()
		created, err := f.engine.CreateChain(ctx, purchaseChain(uuid.New(), uuid.New(), responder))
		require.NoError(t, err)

		require.NoError(t, f.engine.MarkSeen(ctx, created[0].ID, responder))

		inbox, err := f.engine.Inbox(ctx, responder, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(0), inbox.UnseenCount)
	})

	t.Run("mark seen rejects the wrong user", func(t *testing.T) {
		f := newFixture()
		responder := uuid.New()
		created, err := f.engine.CreateChain(ctx, purchaseChain(uuid.New(), uuid.New(), responder))
		require.NoError(t, err)

		err = f.engine.MarkSeen(ctx, created[0].ID, uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrForbidden)
	})
}

type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}
