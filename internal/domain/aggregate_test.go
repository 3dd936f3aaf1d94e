package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeAggregate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		children []DepositStatus
		expected SubmissionStatus
	}{
		{
			name:     "all accepted",
			children: []DepositStatus{DepositStatusAccepted, DepositStatusAccepted},
			expected: SubmissionStatusAccepted,
		},
		{
			name:     "any failed wins over accepted",
			children: []DepositStatus{DepositStatusAccepted, DepositStatusFailed},
			expected: SubmissionStatusFailed,
		},
		{
			name:     "all terminal with a rejection",
			children: []DepositStatus{DepositStatusAccepted, DepositStatusRejected},
			expected: SubmissionStatusRejected,
		},
		{
			name:     "non-terminal child keeps in progress",
			children: []DepositStatus{DepositStatusAccepted, DepositStatusSubmitted},
			expected: SubmissionStatusInProgress,
		},
		{
			name:     "dirty child keeps in progress",
			children: []DepositStatus{DepositStatusDirty},
			expected: SubmissionStatusInProgress,
		},
		{
			name:     "single accepted",
			children: []DepositStatus{DepositStatusAccepted},
			expected: SubmissionStatusAccepted,
		},
		{
			name:     "single rejected",
			children: []DepositStatus{DepositStatusRejected},
			expected: SubmissionStatusRejected,
		},
		{
			name:     "single failed",
			children: []DepositStatus{DepositStatusFailed},
			expected: SubmissionStatusFailed,
		},
		{
			name:     "no children",
			children: nil,
			expected: SubmissionStatusInProgress,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, ComputeAggregate(tt.children))
		})
	}
}

// TestComputeAggregate_Exhaustive checks every combination of exactly 4
// children drawn from the 4 statuses that matter to the aggregation rule
// against an independent reference implementation, covering the property
// named in the aggregation-correctness invariant.
func TestComputeAggregate_Exhaustive(t *testing.T) {
	t.Parallel()

	statuses := []DepositStatus{
		DepositStatusSubmitted,
		DepositStatusAccepted,
		DepositStatusRejected,
		DepositStatusFailed,
	}

	const n = 4
	total := 1
	for i := 0; i < n; i++ {
		total *= len(statuses)
	}

	for combo := 0; combo < total; combo++ {
		children := make([]DepositStatus, n)
		rest := combo
		for i := 0; i < n; i++ {
			children[i] = statuses[rest%len(statuses)]
			rest /= len(statuses)
		}

		got := ComputeAggregate(children)
		want := referenceAggregate(children)

		assert.Equalf(t, want, got, "children=%v", children)
	}
}

// referenceAggregate is a deliberately naive, differently-shaped
// implementation of the same rule, used only to cross-check ComputeAggregate.
func referenceAggregate(children []DepositStatus) SubmissionStatus {
	for _, c := range children {
		if c == DepositStatusFailed {
			return SubmissionStatusFailed
		}
	}

	acceptedCount := 0
	terminalCount := 0
	rejectedCount := 0

	for _, c := range children {
		if c == DepositStatusAccepted {
			acceptedCount++
		}
		if c == DepositStatusRejected {
			rejectedCount++
		}
		if c.IsTerminal() {
			terminalCount++
		}
	}

	if acceptedCount == len(children) {
		return SubmissionStatusAccepted
	}

	if terminalCount == len(children) && rejectedCount > 0 {
		return SubmissionStatusRejected
	}

	return SubmissionStatusInProgress
}

func TestDepositSubmission_Validate(t *testing.T) {
	t.Parallel()

	t.Run("rejects empty file list", func(t *testing.T) {
		t.Parallel()
		d := DepositSubmission{}
		assert.Error(t, d.Validate())
	})

	t.Run("rejects file with empty content location", func(t *testing.T) {
		t.Parallel()
		d := DepositSubmission{Files: []File{{Name: "a.pdf"}}}
		assert.Error(t, d.Validate())
	})

	t.Run("accepts well-formed submission", func(t *testing.T) {
		t.Parallel()
		d := DepositSubmission{Files: []File{{Name: "a.pdf", ContentLocation: "http://x/a.pdf"}}}
		assert.NoError(t, d.Validate())
	})
}

func TestDepositStatus_Predicates(t *testing.T) {
	t.Parallel()

	assert.True(t, DepositStatusDirty.IsIntermediate())
	assert.True(t, DepositStatusSubmitted.IsIntermediate())
	assert.False(t, DepositStatusAccepted.IsIntermediate())

	assert.True(t, DepositStatusAccepted.IsTerminal())
	assert.True(t, DepositStatusRejected.IsTerminal())
	assert.True(t, DepositStatusFailed.IsTerminal())
	assert.False(t, DepositStatusSubmitted.IsTerminal())
}
