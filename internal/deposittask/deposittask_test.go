package deposittask

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/errs"
	"github.com/eclipse-pass/deposit-orchestrator/internal/packager"
	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/resolver"
	"github.com/eclipse-pass/deposit-orchestrator/internal/statusmap"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store/memstore"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
)

type fakeAssembler struct{}

func (fakeAssembler) Assemble(_ context.Context, _ domain.DepositSubmission, _ transport.AssemblerOptions) (transport.PackageStream, error) {
	return transport.PackageStream{
		Archive: "zip",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte("package bytes"))), nil
		},
	}, nil
}

type fakeTransport struct {
	resp    transport.TransportResponse
	openErr error
}

func (t *fakeTransport) Open(_ context.Context) (transport.Session, error) {
	if t.openErr != nil {
		return nil, t.openErr
	}

	return &fakeSession{resp: t.resp}, nil
}

type fakeSession struct {
	resp transport.TransportResponse
}

func (s *fakeSession) Send(_ context.Context, _ transport.PackageStream) (transport.TransportResponse, error) {
	return s.resp, nil
}

func (s *fakeSession) Close() error { return nil }

func validSubmission() domain.DepositSubmission {
	return domain.DepositSubmission{
		SubmissionID: "s1",
		Files:        []domain.File{{Name: "a.pdf", ContentLocation: "http://x/a.pdf"}},
	}
}

func seedDeposit(t *testing.T, st *memstore.Store, status domain.DepositStatus) domain.Deposit {
	t.Helper()

	d, err := st.CreateDeposit(context.Background(), domain.Deposit{
		ID:           "d1",
		SubmissionID: "s1",
		RepositoryID: "r1",
		Status:       status,
	})
	require.NoError(t, err)

	return d
}

func atomFeedWithTerm(term string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <category scheme="http://purl.org/net/sword/terms/state" term="%s"/>
  </entry>
</feed>`, term)
}

func TestExecutor_Run_OpaqueReceipt_OpensRepositoryCopyInProgress(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusDirty)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{Success: true, Receipt: transport.Receipt{Opaque: true}}},
		Config:    registry.RepositoryConfig{RepositoryKey: "r1"},
	}

	err := exec.Run(context.Background(), "d1", validSubmission(), pkg)
	require.NoError(t, err)

	d, err := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusSubmitted, d.Status)
	assert.Empty(t, d.StatusRef)
	require.NotEmpty(t, d.RepositoryCopyID)

	rc, err := st.ReadRepositoryCopy(context.Background(), d.RepositoryCopyID)
	require.NoError(t, err)
	assert.Equal(t, domain.RepositoryCopyStatusInProgress, rc.CopyStatus)
}

func TestExecutor_Run_StructuredReceipt_ResolvesToAccepted(t *testing.T) {
	t.Parallel()

	const term = "http://example.org/state/accepted"
	const itemURL = "http://r/item/1"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(atomFeedWithTerm(term)))
	}))
	defer srv.Close()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusDirty)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{
			Success: true,
			Receipt: transport.Receipt{Opaque: false, AlternateLink: itemURL, StatementLink: srv.URL},
		}},
		Config: registry.RepositoryConfig{
			RepositoryKey:   "r1",
			FollowRedirects: true,
			SettleInterval:  time.Millisecond,
			StatusMapping:   statusmap.New(map[string]domain.DepositStatus{term: domain.DepositStatusAccepted}, "", false),
		},
	}

	err := exec.Run(context.Background(), "d1", validSubmission(), pkg)
	require.NoError(t, err)

	d, err := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusAccepted, d.Status)
	assert.Equal(t, itemURL, d.ItemURL)
	require.NotEmpty(t, d.RepositoryCopyID)

	rc, err := st.ReadRepositoryCopy(context.Background(), d.RepositoryCopyID)
	require.NoError(t, err)
	assert.Equal(t, domain.RepositoryCopyStatusComplete, rc.CopyStatus)
	assert.Equal(t, []string{itemURL}, rc.ExternalIDs)
	assert.Equal(t, itemURL, rc.AccessURL)
}

func TestExecutor_Run_StructuredReceipt_ResolvesToRejected(t *testing.T) {
	t.Parallel()

	const term = "http://example.org/state/rejected"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(atomFeedWithTerm(term)))
	}))
	defer srv.Close()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusDirty)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{
			Success: true,
			Receipt: transport.Receipt{Opaque: false, StatementLink: srv.URL},
		}},
		Config: registry.RepositoryConfig{
			RepositoryKey:  "r1",
			StatusMapping:  statusmap.New(map[string]domain.DepositStatus{term: domain.DepositStatusRejected}, "", false),
		},
	}

	err := exec.Run(context.Background(), "d1", validSubmission(), pkg)
	require.NoError(t, err)

	d, err := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusRejected, d.Status)
	assert.Empty(t, d.RepositoryCopyID)
}

func TestExecutor_Run_StructuredReceipt_UnmappedLeavesSubmitted(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(atomFeedWithTerm("http://example.org/state/unknown")))
	}))
	defer srv.Close()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusDirty)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{
			Success: true,
			Receipt: transport.Receipt{Opaque: false, StatementLink: srv.URL},
		}},
		Config: registry.RepositoryConfig{RepositoryKey: "r1"},
	}

	err := exec.Run(context.Background(), "d1", validSubmission(), pkg)
	require.NoError(t, err)

	d, err := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.DepositStatusSubmitted, d.Status)
	assert.Equal(t, srv.URL, d.StatusRef)
	assert.Empty(t, d.RepositoryCopyID)
}

func TestExecutor_Run_TransportFailure_LeavesDepositDirty(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusDirty)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{Success: false, Err: errors.New("connection reset")}},
		Config:    registry.RepositoryConfig{RepositoryKey: "r1"},
	}

	err := exec.Run(context.Background(), "d1", validSubmission(), pkg)
	require.Error(t, err)

	var classified errs.Classified
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, errs.KindTransportFailed, classified.Kind())

	d, readErr := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, readErr)
	assert.Equal(t, domain.DepositStatusDirty, d.Status)
}

func TestExecutor_Run_InvalidSubmission_MarksDepositFailed(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusDirty)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{Success: true}},
		Config:    registry.RepositoryConfig{RepositoryKey: "r1"},
	}

	err := exec.Run(context.Background(), "d1", domain.DepositSubmission{}, pkg)
	require.Error(t, err)

	d, readErr := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, readErr)
	assert.Equal(t, domain.DepositStatusFailed, d.Status)
}

func TestExecutor_Run_AlreadyTerminal_ReturnsPreconditionFailure(t *testing.T) {
	t.Parallel()

	st := memstore.New()
	seedDeposit(t, st, domain.DepositStatusAccepted)

	exec := New(st, resolver.New())
	pkg := packager.Packager{
		Assembler: fakeAssembler{},
		Transport: &fakeTransport{resp: transport.TransportResponse{Success: true}},
		Config:    registry.RepositoryConfig{RepositoryKey: "r1"},
	}

	err := exec.Run(context.Background(), "d1", validSubmission(), pkg)
	require.Error(t, err)

	var classified errs.Classified
	require.True(t, errors.As(err, &classified))
	assert.Equal(t, errs.KindPreconditionFailed, classified.Kind())

	d, readErr := st.ReadDeposit(context.Background(), "d1")
	require.NoError(t, readErr)
	assert.Equal(t, domain.DepositStatusAccepted, d.Status)
}
