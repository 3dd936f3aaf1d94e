package assembler

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
)

func TestZipAssembler_Assemble_PackagesFilesAndManifest(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.pdf":
			_, _ = w.Write([]byte("manuscript bytes"))
		case "/b.xml":
			_, _ = w.Write([]byte("<metadata/>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ds := domain.DepositSubmission{
		Files: []domain.File{
			{Name: "a.pdf", ContentLocation: srv.URL + "/a.pdf"},
			{Name: "b.xml", ContentLocation: srv.URL + "/b.xml"},
		},
	}

	a := New()
	stream, err := a.Assemble(context.Background(), ds, transport.AssemblerOptions{})
	require.NoError(t, err)
	assert.Equal(t, "zip", stream.Archive)
	assert.Equal(t, "deflate", stream.Compression)

	rc, err := stream.Open()
	require.NoError(t, err)
	defer rc.Close()

	packaged, err := io.ReadAll(rc)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(packaged), int64(len(packaged)))
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}

	assert.True(t, names["a.pdf"])
	assert.True(t, names["b.xml"])
	assert.True(t, names["manifest.sha256"])
}

func TestZipAssembler_Assemble_RejectsInvalidSubmission(t *testing.T) {
	t.Parallel()

	a := New()
	_, err := a.Assemble(context.Background(), domain.DepositSubmission{}, transport.AssemblerOptions{})
	assert.Error(t, err)
}
