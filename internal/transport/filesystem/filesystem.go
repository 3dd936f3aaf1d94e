// Package filesystem implements the Filesystem protocol binding: a
// Transport that copies a package stream into a local (or NFS-mounted)
// directory. Its receipt is always opaque: the filesystem has no concept
// of asynchronous acceptance.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
)

// Transport writes package streams into cfg.BaseDir.
type Transport struct {
	cfg registry.FilesystemBinding
}

// New builds a Transport bound to cfg.
func New(cfg registry.FilesystemBinding) *Transport {
	return &Transport{cfg: cfg}
}

func (t *Transport) Open(_ context.Context) (transport.Session, error) {
	if t.cfg.CreateIfMissing {
		if err := os.MkdirAll(t.cfg.BaseDir, 0o755); err != nil {
			return nil, fmt.Errorf("filesystem transport: creating base dir: %w", err)
		}
	}

	return &session{cfg: t.cfg}, nil
}

type session struct {
	cfg registry.FilesystemBinding
}

func (s *session) Send(_ context.Context, stream transport.PackageStream) (transport.TransportResponse, error) {
	rc, err := stream.Open()
	if err != nil {
		return transport.TransportResponse{}, fmt.Errorf("filesystem transport: opening stream: %w", err)
	}
	defer rc.Close()

	name := uuid.NewString() + "." + stream.Archive
	dest := filepath.Join(s.cfg.BaseDir, name)

	flags := os.O_CREATE | os.O_WRONLY
	if s.cfg.Overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	return transport.TransportResponse{
		Success: true,
		Receipt: transport.Receipt{Opaque: true},
	}, nil
}

func (s *session) Close() error {
	return nil
}

var _ transport.Transport = (*Transport)(nil)
