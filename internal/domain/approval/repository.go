package approval

import (
	"context"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/shared"
)

// ApprovalStepRepository defines the interface for approval step persistence
type ApprovalStepRepository interface {
	// FindByID finds a step by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ApprovalStep, error)

	// FindByDocument returns all steps of one document ordered by
	// (ordinal, created_at, id) ascending. When forUpdate is true the rows are
	// locked for the duration of the surrounding transaction so concurrent
	// actions on the same chain serialize.
	FindByDocument(ctx context.Context, kind DocumentKind, approvableID uuid.UUID, forUpdate bool) ([]ApprovalStep, error)

	// FindPendingForResponder lists a responder's actionable inbox
	FindPendingForResponder(ctx context.Context, responderID uuid.UUID, filter shared.Filter) ([]ApprovalStep, int64, error)

	// CountPendingUnseen counts a responder's pending steps not yet seen
	CountPendingUnseen(ctx context.Context, responderID uuid.UUID) (int64, error)

	// CreateBatch inserts a document's whole step chain
	CreateBatch(ctx context.Context, steps []*ApprovalStep) error

	// Update persists a step mutation (action, reassignment, seen flag)
	Update(ctx context.Context, step *ApprovalStep) error

	// MarkSeen flags a step as seen by its responder
	MarkSeen(ctx context.Context, id uuid.UUID) error

	// DeleteByDocument removes a document's whole step chain, returning the
	// number of rows removed
	DeleteByDocument(ctx context.Context, kind DocumentKind, approvableID uuid.UUID) (int64, error)
}

// DocumentStatusWriter persists the derived status onto the owning document.
// Document tables live outside this core; the web layer supplies an
// implementation per document kind.
type DocumentStatusWriter interface {
	// SetStatus writes the derived status of a document
	SetStatus(ctx context.Context, kind DocumentKind, approvableID uuid.UUID, status DocumentStatus) error
}
