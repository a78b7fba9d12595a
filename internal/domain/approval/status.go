package approval

// DocumentStatus is the derived status of a document owning an approval chain
type DocumentStatus string

const (
	// DocumentPending covers any mix of pending/approved steps with no rejection
	DocumentPending DocumentStatus = "PENDING"
	// DocumentApproved means every step in the chain is approved
	DocumentApproved DocumentStatus = "APPROVED"
	// DocumentRejected means at least one step was rejected
	DocumentRejected DocumentStatus = "REJECTED"
	// DocumentReturned is set explicitly when the acted step's action was
	// Return; it un-blocks editing rather than just blocking progress, so it is
	// never derived from the step list alone
	DocumentReturned DocumentStatus = "RETURNED"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// ProjectStatus folds a document's steps into its derived status: Rejected if
// any step is rejected, Approved if every step is approved, Pending otherwise.
// An empty chain projects to Pending; callers that require at least one step
// treat that as a consistency error before projecting.
func ProjectStatus(steps []ApprovalStep) DocumentStatus {
	if len(steps) == 0 {
		return DocumentPending
	}

	allApproved := true
	for _, step := range steps {
		switch step.ApprovalStatus {
		case StepRejected:
			return DocumentRejected
		case StepApproved:
			// keep scanning
		default:
			allApproved = false
		}
	}

	if allApproved {
		return DocumentApproved
	}
	return DocumentPending
}
