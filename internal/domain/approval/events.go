package approval

import (
	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeApprovalStep = "ApprovalStep"

// Event type constants
const (
	EventTypeApprovalRequested = "ApprovalRequested"
	EventTypeStepActed         = "ApprovalStepActed"
	EventTypeStepReassigned    = "ApprovalStepReassigned"
)

// ApprovalRequestedEvent is raised for the responder of each step when a chain
// is created, so the notification collaborator can announce a pending approval
type ApprovalRequestedEvent struct {
	shared.BaseDomainEvent
	ApprovableType    DocumentKind `json:"approvable_type"`
	ApprovableID      uuid.UUID    `json:"approvable_id"`
	DocumentName      string       `json:"document_name"`
	DocumentReference string       `json:"document_reference"`
	RequestType       string       `json:"request_type"`
	ResponderID       uuid.UUID    `json:"responder_id"`
}

// NewApprovalRequestedEvent creates a new ApprovalRequestedEvent
func NewApprovalRequestedEvent(step *ApprovalStep) *ApprovalRequestedEvent {
	return &ApprovalRequestedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeApprovalRequested, AggregateTypeApprovalStep, step.ID),
		ApprovableType:    step.ApprovableType,
		ApprovableID:      step.ApprovableID,
		DocumentName:      step.DocumentName,
		DocumentReference: step.DocumentReference,
		RequestType:       step.RequestType,
		ResponderID:       step.ResponderID,
	}
}

// EventType returns the event type name
func (e *ApprovalRequestedEvent) EventType() string {
	return EventTypeApprovalRequested
}

// StepActedEvent is raised after a responder acts on a step
type StepActedEvent struct {
	shared.BaseDomainEvent
	ApprovableType DocumentKind   `json:"approvable_type"`
	ApprovableID   uuid.UUID      `json:"approvable_id"`
	RequestType    string         `json:"request_type"`
	Action         Action         `json:"action"`
	ResponderID    uuid.UUID      `json:"responder_id"`
	DocumentStatus DocumentStatus `json:"document_status"`
}

// NewStepActedEvent creates a new StepActedEvent
func NewStepActedEvent(step *ApprovalStep, action Action, status DocumentStatus) *StepActedEvent {
	return &StepActedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStepActed, AggregateTypeApprovalStep, step.ID),
		ApprovableType:  step.ApprovableType,
		ApprovableID:    step.ApprovableID,
		RequestType:     step.RequestType,
		Action:          action,
		ResponderID:     step.ResponderID,
		DocumentStatus:  status,
	}
}

// EventType returns the event type name
func (e *StepActedEvent) EventType() string {
	return EventTypeStepActed
}

// StepReassignedEvent is raised when a pending step changes responder
type StepReassignedEvent struct {
	shared.BaseDomainEvent
	ApprovableType DocumentKind `json:"approvable_type"`
	ApprovableID   uuid.UUID    `json:"approvable_id"`
	RequestType    string       `json:"request_type"`
	OldResponderID uuid.UUID    `json:"old_responder_id"`
	NewResponderID uuid.UUID    `json:"new_responder_id"`
}

// NewStepReassignedEvent creates a new StepReassignedEvent
func NewStepReassignedEvent(step *ApprovalStep, oldResponderID uuid.UUID) *StepReassignedEvent {
	return &StepReassignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStepReassigned, AggregateTypeApprovalStep, step.ID),
		ApprovableType:  step.ApprovableType,
		ApprovableID:    step.ApprovableID,
		RequestType:     step.RequestType,
		OldResponderID:  oldResponderID,
		NewResponderID:  step.ResponderID,
	}
}

// EventType returns the event type name
func (e *StepReassignedEvent) EventType() string {
	return EventTypeStepReassigned
}
