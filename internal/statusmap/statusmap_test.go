package statusmap

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
)

func TestMapping_Lookup_ExactMatch(t *testing.T) {
	t.Parallel()

	m := New(map[string]domain.DepositStatus{
		"http://dspace.org/state/archived": domain.DepositStatusAccepted,
		"http://dspace.org/state/withdrawn": domain.DepositStatusRejected,
	}, domain.DepositStatusSubmitted, true)

	status, ok := m.Lookup("http://dspace.org/state/archived")
	assert.True(t, ok)
	assert.Equal(t, domain.DepositStatusAccepted, status)
}

func TestMapping_Lookup_FallsBackToDefault(t *testing.T) {
	t.Parallel()

	m := New(map[string]domain.DepositStatus{
		"http://dspace.org/state/archived": domain.DepositStatusAccepted,
	}, domain.DepositStatusSubmitted, true)

	status, ok := m.Lookup("http://dspace.org/state/inreview")
	assert.True(t, ok)
	assert.Equal(t, domain.DepositStatusSubmitted, status)
}

func TestMapping_Lookup_UnmappedWithoutDefault(t *testing.T) {
	t.Parallel()

	m := New(map[string]domain.DepositStatus{
		"http://dspace.org/state/archived": domain.DepositStatusAccepted,
	}, "", false)

	_, ok := m.Lookup("http://dspace.org/state/inreview")
	assert.False(t, ok)
}

func TestDepositStatus_Predicates_UsedByEvaluator(t *testing.T) {
	t.Parallel()

	assert.True(t, domain.DepositStatusDirty.IsIntermediate())
	assert.True(t, domain.DepositStatusSubmitted.IsIntermediate())
	assert.True(t, domain.DepositStatusAccepted.IsTerminal())
	assert.True(t, domain.DepositStatusRejected.IsTerminal())
	assert.True(t, domain.DepositStatusFailed.IsTerminal())
}
