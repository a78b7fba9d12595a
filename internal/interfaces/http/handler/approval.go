package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	approvalapp "github.com/procura/backoffice/internal/application/approval"
	"github.com/procura/backoffice/internal/domain/approval"
	"github.com/procura/backoffice/internal/interfaces/http/dto"
)

// ApprovalHandler exposes the approval workflow: chain creation, can-act
// checks, decisions, reassignment and the responder inbox.
type ApprovalHandler struct {
	BaseHandler
	engine *approvalapp.Engine
}

// NewApprovalHandler creates a new ApprovalHandler
func NewApprovalHandler(engine *approvalapp.Engine) *ApprovalHandler {
	return &ApprovalHandler{engine: engine}
}

// parseKind resolves the :kind path parameter, accepting either case
func parseKind(c *gin.Context) (approval.DocumentKind, bool) {
	kind := approval.DocumentKind(strings.ToUpper(c.Param("kind")))
	return kind, kind.IsValid()
}

// StepSpecRequest is one step of a chain creation request
type StepSpecRequest struct {
	RequestType string  `json:"request_type" binding:"required,min=1,max=50"`
	ResponderID string  `json:"responder_id" binding:"required,uuid"`
	PositionID  *string `json:"position_id" binding:"omitempty,uuid"`
}

// CreateChainHTTPRequest is the request body for creating an approval chain
type CreateChainHTTPRequest struct {
	Kind              string            `json:"kind" binding:"required"`
	ApprovableID      string            `json:"approvable_id" binding:"required,uuid"`
	DocumentName      string            `json:"document_name" binding:"required,max=255"`
	DocumentReference string            `json:"document_reference" binding:"required,max=100"`
	Steps             []StepSpecRequest `json:"steps" binding:"required,min=1,dive"`
}

// toCreateChainRequest maps the HTTP body to the application request
func (r *CreateChainHTTPRequest) toCreateChainRequest(requesterID uuid.UUID) approvalapp.CreateChainRequest {
	steps := make([]approvalapp.StepSpec, 0, len(r.Steps))
	for _, spec := range r.Steps {
		step := approvalapp.StepSpec{
			RequestType: spec.RequestType,
			ResponderID: uuid.MustParse(spec.ResponderID),
		}
		if spec.PositionID != nil {
			positionID := uuid.MustParse(*spec.PositionID)
			step.PositionID = &positionID
		}
		steps = append(steps, step)
	}
	return approvalapp.CreateChainRequest{
		Kind:              approval.DocumentKind(strings.ToUpper(r.Kind)),
		ApprovableID:      uuid.MustParse(r.ApprovableID),
		DocumentName:      r.DocumentName,
		DocumentReference: r.DocumentReference,
		RequesterID:       requesterID,
		Steps:             steps,
	}
}

// ActionRequest is the request body for acting on a document
type ActionRequest struct {
	Action  string `json:"action" binding:"required,oneof=APPROVE REJECT RETURN approve reject return"`
	Comment string `json:"comment" binding:"max=2000"`
}

// ReassignRequest is the request body for handing a step to a new responder
type ReassignRequest struct {
	NewResponderID string  `json:"new_responder_id" binding:"required,uuid"`
	NewPositionID  *string `json:"new_position_id" binding:"omitempty,uuid"`
	Comment        string  `json:"comment" binding:"max=2000"`
}

// CreateChain creates the approval chain for a newly submitted document
// POST /api/v1/approvals
func (h *ApprovalHandler) CreateChain(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateChainHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	steps, err := h.engine.CreateChain(c.Request.Context(), req.toCreateChainRequest(userID))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, steps)
}

// Resubmit replaces a document's chain after it was edited following a return
// POST /api/v1/approvals/resubmit
func (h *ApprovalHandler) Resubmit(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	var req CreateChainHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	steps, err := h.engine.Resubmit(c.Request.Context(), req.toCreateChainRequest(userID))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Created(c, steps)
}

// CanAct reports whether the acting user may act on the document right now
// GET /api/v1/approvals/:kind/:id/can-act
func (h *ApprovalHandler) CanAct(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}
	kind, ok := parseKind(c)
	if !ok {
		h.BadRequest(c, "unknown document kind")
		return
	}
	approvableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid document ID")
		return
	}

	decision, err := h.engine.CanAct(c.Request.Context(), kind, approvableID, userID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, decision)
}

// SubmitAction applies the acting user's decision to their current step
// POST /api/v1/approvals/:kind/:id/actions
func (h *ApprovalHandler) SubmitAction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}
	kind, ok := parseKind(c)
	if !ok {
		h.BadRequest(c, "unknown document kind")
		return
	}
	approvableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid document ID")
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	action := approval.Action(strings.ToUpper(req.Action))

	result, err := h.engine.SubmitAction(c.Request.Context(), kind, approvableID, userID, action, req.Comment)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, result)
}

// Steps lists a document's whole chain in order
// GET /api/v1/approvals/:kind/:id/steps
func (h *ApprovalHandler) Steps(c *gin.Context) {
	kind, ok := parseKind(c)
	if !ok {
		h.BadRequest(c, "unknown document kind")
		return
	}
	approvableID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid document ID")
		return
	}

	steps, err := h.engine.Chain(c.Request.Context(), kind, approvableID)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, steps)
}

// Reassign hands a pending step to a new responder
// POST /api/v1/approvals/steps/:step_id/reassign
func (h *ApprovalHandler) Reassign(c *gin.Context) {
	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		h.BadRequest(c, "invalid step ID")
		return
	}

	var req ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	newResponderID := uuid.MustParse(req.NewResponderID)
	var newPositionID *uuid.UUID
	if req.NewPositionID != nil {
		positionID := uuid.MustParse(*req.NewPositionID)
		newPositionID = &positionID
	}

	step, err := h.engine.Reassign(c.Request.Context(), stepID, newResponderID, newPositionID, req.Comment)
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.Success(c, step)
}

// MarkSeen flags a step as seen by its responder
// POST /api/v1/approvals/steps/:step_id/seen
func (h *ApprovalHandler) MarkSeen(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}
	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		h.BadRequest(c, "invalid step ID")
		return
	}

	if err := h.engine.MarkSeen(c.Request.Context(), stepID, userID); err != nil {
		h.DomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Inbox lists the acting user's pending steps with the unseen badge count
// GET /api/v1/approvals/inbox
func (h *ApprovalHandler) Inbox(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, err.Error())
		return
	}

	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inbox, err := h.engine.Inbox(c.Request.Context(), userID, toFilter(req))
	if err != nil {
		h.DomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, inbox, inbox.Total, req.Page, req.PageSize)
}
