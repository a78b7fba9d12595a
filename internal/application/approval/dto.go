package approval

import (
	"time"

	"github.com/google/uuid"
	"github.com/procura/backoffice/internal/domain/approval"
)

// StepSpec describes one step of a chain to be created. The ordinal is not
// supplied by the caller; it is resolved from the document kind's ordinal table.
type StepSpec struct {
	RequestType string
	ResponderID uuid.UUID
	PositionID  *uuid.UUID
}

// CreateChainRequest is the input for creating a document's approval chain
type CreateChainRequest struct {
	Kind              approval.DocumentKind
	ApprovableID      uuid.UUID
	DocumentName      string
	DocumentReference string
	RequesterID       uuid.UUID
	Steps             []StepSpec
}

// StepResponse is the outward representation of one approval step
type StepResponse struct {
	ID                uuid.UUID  `json:"id"`
	ApprovableType    string     `json:"approvable_type"`
	ApprovableID      uuid.UUID  `json:"approvable_id"`
	DocumentName      string     `json:"document_name"`
	DocumentReference string     `json:"document_reference"`
	RequestType       string     `json:"request_type"`
	Ordinal           int        `json:"ordinal"`
	ApprovalStatus    string     `json:"approval_status"`
	RequesterID       uuid.UUID  `json:"requester_id"`
	ResponderID       uuid.UUID  `json:"responder_id"`
	PositionID        *uuid.UUID `json:"position_id,omitempty"`
	Comment           string     `json:"comment,omitempty"`
	RespondedDate     *time.Time `json:"responded_date,omitempty"`
	IsSeen            bool       `json:"is_seen"`
}

// ToStepResponse maps a step entity to its outward representation
func ToStepResponse(step *approval.ApprovalStep) StepResponse {
	return StepResponse{
		ID:                step.ID,
		ApprovableType:    step.ApprovableType.String(),
		ApprovableID:      step.ApprovableID,
		DocumentName:      step.DocumentName,
		DocumentReference: step.DocumentReference,
		RequestType:       step.RequestType,
		Ordinal:           step.Ordinal,
		ApprovalStatus:    step.ApprovalStatus.String(),
		RequesterID:       step.RequesterID,
		ResponderID:       step.ResponderID,
		PositionID:        step.PositionID,
		Comment:           step.Comment,
		RespondedDate:     step.RespondedDate,
		IsSeen:            step.IsSeen,
	}
}

// toStepResponses maps a freshly built chain to its outward representation
func toStepResponses(steps []*approval.ApprovalStep) []StepResponse {
	responses := make([]StepResponse, 0, len(steps))
	for _, step := range steps {
		responses = append(responses, ToStepResponse(step))
	}
	return responses
}

// Decision is the outcome of a can-act check
type Decision struct {
	Allowed     bool                   `json:"allowed"`
	Reason      string                 `json:"reason,omitempty"`
	RequestType string                 `json:"request_type,omitempty"`
	Step        *StepResponse          `json:"step,omitempty"`
	step        *approval.ApprovalStep // internal handle for the engine
}

// ActionResult is the outcome of a submitted action: the updated step and the
// document's derived status
type ActionResult struct {
	Step           StepResponse            `json:"step"`
	DocumentStatus approval.DocumentStatus `json:"document_status"`
}

// InboxResponse is one responder's actionable inbox page
type InboxResponse struct {
	Steps       []StepResponse `json:"steps"`
	Total       int64          `json:"total"`
	UnseenCount int64          `json:"unseen_count"`
}

// Denial reasons surfaced by can-act checks
const (
	ReasonNoPendingStep      = "no pending step assigned to user"
	ReasonPreviousRejected   = "a previous approval was rejected"
	ReasonPreviousReturned   = "a previous approval was returned"
	ReasonPreviousIncomplete = "previous steps not completed"
)
