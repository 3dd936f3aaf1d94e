package submissionupdater

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store/memstore"
)

func TestUpdater_Tick_RecomputesAggregateFromDeposits(t *testing.T) {
	t.Parallel()

	st := memstore.New()

	sub, err := st.CreateSubmission(context.Background(), domain.Submission{
		Submitted:        true,
		AggregatedStatus: domain.SubmissionStatusInProgress,
	})
	require.NoError(t, err)

	_, err = st.CreateDeposit(context.Background(), domain.Deposit{SubmissionID: sub.ID, Status: domain.DepositStatusAccepted})
	require.NoError(t, err)
	_, err = st.CreateDeposit(context.Background(), domain.Deposit{SubmissionID: sub.ID, Status: domain.DepositStatusAccepted})
	require.NoError(t, err)

	u := New(st, time.Hour)
	require.NoError(t, u.Tick(context.Background()))

	updated, err := st.ReadSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusAccepted, updated.AggregatedStatus)
}

func TestUpdater_Tick_AnyFailedDepositFailsTheSubmission(t *testing.T) {
	t.Parallel()

	st := memstore.New()

	sub, err := st.CreateSubmission(context.Background(), domain.Submission{
		Submitted:        true,
		AggregatedStatus: domain.SubmissionStatusInProgress,
	})
	require.NoError(t, err)

	_, err = st.CreateDeposit(context.Background(), domain.Deposit{SubmissionID: sub.ID, Status: domain.DepositStatusAccepted})
	require.NoError(t, err)
	_, err = st.CreateDeposit(context.Background(), domain.Deposit{SubmissionID: sub.ID, Status: domain.DepositStatusFailed})
	require.NoError(t, err)

	u := New(st, time.Hour)
	require.NoError(t, u.Tick(context.Background()))

	updated, err := st.ReadSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusFailed, updated.AggregatedStatus)
}

func TestUpdater_Tick_SkipsUnsubmittedSubmissions(t *testing.T) {
	t.Parallel()

	st := memstore.New()

	sub, err := st.CreateSubmission(context.Background(), domain.Submission{
		Submitted:        false,
		AggregatedStatus: domain.SubmissionStatusNotStarted,
	})
	require.NoError(t, err)

	u := New(st, time.Hour)
	require.NoError(t, u.Tick(context.Background()))

	updated, err := st.ReadSubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionStatusNotStarted, updated.AggregatedStatus)
}

func TestUpdater_Tick_SkipsTerminalSubmissions(t *testing.T) {
	t.Parallel()

	st := memstore.New()

	sub, err := st.CreateSubmission(context.Background(), domain.Submission{
		Submitted:        true,
		AggregatedStatus: domain.SubmissionStatusComplete,
	})
	require.NoError(t, err)

	u := New(st, time.Hour)

	ids, err := st.FindSubmissionsNotIn(context.Background(), terminalSubmissionStatuses)
	require.NoError(t, err)
	assert.NotContains(t, ids, sub.ID)

	require.NoError(t, u.Tick(context.Background()))
}
