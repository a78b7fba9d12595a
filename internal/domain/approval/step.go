package approval

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/shared"
)

// StepStatus represents the state of one approval step
type StepStatus string

const (
	// StepPending means the step has not been acted on yet
	StepPending StepStatus = "PENDING"
	// StepApproved means the responder approved the step
	StepApproved StepStatus = "APPROVED"
	// StepRejected means the responder rejected the step
	StepRejected StepStatus = "REJECTED"
	// StepReturned means the responder returned the document for editing
	StepReturned StepStatus = "RETURNED"
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	return string(s)
}

// IsTerminal returns true once a step has left Pending. Terminal steps never
// transition again.
func (s StepStatus) IsTerminal() bool {
	return s == StepApproved || s == StepRejected || s == StepReturned
}

// Action is a responder's decision on a pending step
type Action string

const (
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionReturn  Action = "RETURN"
)

// IsValid returns true if the action is one of the known decisions
func (a Action) IsValid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionReturn:
		return true
	}
	return false
}

// TargetStatus returns the step status an action transitions into
func (a Action) TargetStatus() StepStatus {
	switch a {
	case ActionApprove:
		return StepApproved
	case ActionReject:
		return StepRejected
	case ActionReturn:
		return StepReturned
	}
	return StepPending
}

// ApprovalStep is one position in a document's sign-off chain. Within one
// (approvable_type, approvable_id) group steps form a total order by
// (ordinal, created_at, id); a step may only leave Pending once every step
// strictly before it in that order is Approved.
type ApprovalStep struct {
	shared.BaseEntity
	ApprovableType    DocumentKind `gorm:"type:varchar(30);not null;index:idx_approval_doc,priority:1"`
	ApprovableID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_approval_doc,priority:2"`
	DocumentName      string       `gorm:"type:varchar(255);not null"`
	DocumentReference string       `gorm:"type:varchar(100);not null"`
	RequestType       string       `gorm:"type:varchar(50);not null"`
	Ordinal           int          `gorm:"not null;index:idx_approval_doc,priority:3"`
	ApprovalStatus    StepStatus   `gorm:"type:varchar(20);not null;default:'PENDING'"`
	RequesterID       uuid.UUID    `gorm:"type:uuid;not null"`
	ResponderID       uuid.UUID    `gorm:"type:uuid;not null;index:idx_approval_responder"`
	PositionID        *uuid.UUID   `gorm:"type:uuid"`
	Comment           string       `gorm:"type:text"`
	RespondedDate     *time.Time
	IsSeen            bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ApprovalStep) TableName() string {
	return "approval_steps"
}

// NewApprovalStep creates a pending step for a document's chain. The ordinal is
// resolved by the document kind's ordinal table before this is called.
func NewApprovalStep(
	kind DocumentKind,
	approvableID uuid.UUID,
	documentName string,
	documentReference string,
	requestType string,
	ordinal int,
	requesterID uuid.UUID,
	responderID uuid.UUID,
	positionID *uuid.UUID,
) (*ApprovalStep, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown approvable document kind")
	}
	if approvableID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Approvable ID cannot be empty")
	}
	if requestType == "" {
		return nil, shared.NewDomainError("INVALID_REQUEST_TYPE", "Request type cannot be empty")
	}
	if ordinal <= 0 {
		return nil, shared.NewDomainError("INVALID_ORDINAL", "Ordinal must be positive")
	}
	if requesterID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REQUESTER", "Requester ID cannot be empty")
	}
	if responderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESPONDER", "Responder ID cannot be empty")
	}

	return &ApprovalStep{
		BaseEntity:        shared.NewBaseEntity(),
		ApprovableType:    kind,
		ApprovableID:      approvableID,
		DocumentName:      documentName,
		DocumentReference: documentReference,
		RequestType:       requestType,
		Ordinal:           ordinal,
		ApprovalStatus:    StepPending,
		RequesterID:       requesterID,
		ResponderID:       responderID,
		PositionID:        positionID,
	}, nil
}

// Apply transitions the step out of Pending according to the responder's
// action, stamping the responded date on every terminal transition for audit
// consistency. Acting on an already-terminal step is a conflict, not a no-op.
func (s *ApprovalStep) Apply(action Action, comment string, now time.Time) error {
	if !action.IsValid() {
		return shared.NewDomainError("INVALID_ACTION", "Unknown approval action")
	}
	if s.ApprovalStatus.IsTerminal() {
		return shared.NewDomainError("ALREADY_PROCESSED", "Step has already been processed")
	}
	s.ApprovalStatus = action.TargetStatus()
	s.Comment = comment
	s.RespondedDate = &now
	s.UpdatedAt = now
	return nil
}

// ReassignTo hands the step to a new responder. Only pending steps may be
// reassigned; the ordinal and request type never change, and the seen flag is
// reset so the new responder's inbox shows an unseen item.
func (s *ApprovalStep) ReassignTo(responderID uuid.UUID, positionID *uuid.UUID, comment string) error {
	if responderID == uuid.Nil {
		return shared.NewDomainError("INVALID_RESPONDER", "Responder ID cannot be empty")
	}
	if s.ApprovalStatus.IsTerminal() {
		return shared.NewDomainError("ALREADY_PROCESSED", "Cannot reassign a processed step")
	}
	s.ResponderID = responderID
	if positionID != nil {
		s.PositionID = positionID
	}
	if comment != "" {
		s.Comment = comment
	}
	s.IsSeen = false
	s.UpdatedAt = time.Now()
	return nil
}

// Before reports whether this step precedes other in the chain's total order
// (ordinal, created_at, id).
func (s *ApprovalStep) Before(other *ApprovalStep) bool {
	if s.Ordinal != other.Ordinal {
		return s.Ordinal < other.Ordinal
	}
	if !s.CreatedAt.Equal(other.CreatedAt) {
		return s.CreatedAt.Before(other.CreatedAt)
	}
	return s.ID.String() < other.ID.String()
}

// SortSteps orders steps by the chain's total order in place
func SortSteps(steps []ApprovalStep) {
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Before(&steps[j])
	})
}
