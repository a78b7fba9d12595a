package approval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func stepsWith(statuses ...StepStatus) []ApprovalStep {
	steps := make([]ApprovalStep, 0, len(statuses))
	for i, status := range statuses {
		steps = append(steps, ApprovalStep{
			Ordinal:        i + 1,
			ApprovalStatus: status,
		})
	}
	return steps
}

func TestProjectStatus(t *testing.T) {
	t.Run("all approved projects approved", func(t *testing.T) {
		assert.Equal(t, DocumentApproved, ProjectStatus(stepsWith(StepApproved, StepApproved, StepApproved)))
	})

	t.Run("any rejection wins regardless of other states", func(t *testing.T) {
		assert.Equal(t, DocumentRejected, ProjectStatus(stepsWith(StepApproved, StepRejected, StepPending)))
		assert.Equal(t, DocumentRejected, ProjectStatus(stepsWith(StepRejected, StepApproved, StepApproved)))
	})

	t.Run("mix of pending and approved stays pending", func(t *testing.T) {
		assert.Equal(t, DocumentPending, ProjectStatus(stepsWith(StepApproved, StepPending, StepPending)))
		assert.Equal(t, DocumentPending, ProjectStatus(stepsWith(StepPending)))
	})

	t.Run("returned step does not project returned", func(t *testing.T) {
		// Returned document status is set explicitly by the engine, never derived.
		assert.Equal(t, DocumentPending, ProjectStatus(stepsWith(StepApproved, StepReturned, StepPending)))
	})

	t.Run("empty chain defaults to pending", func(t *testing.T) {
		assert.Equal(t, DocumentPending, ProjectStatus(nil))
	})
}
