// Package transport defines the Assembler and Transport ports the
// deposit task drives: Assembler turns a DepositSubmission into a package stream,
// Transport opens a scoped session to a remote endpoint and sends that
// stream, returning either an opaque or a structured-SWORD receipt.
package transport

import (
	"context"
	"io"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
)

// PackageStream is a single-shot byte stream plus the metadata describing
// how it was built. Consumers must call Open at most once and must Close
// the returned reader when done.
type PackageStream struct {
	Archive            string
	Compression        string
	ChecksumAlgorithms []string
	Open               func() (io.ReadCloser, error)
}

// AssemblerOptions configures package construction; mirrors
// registry.AssemblerOptions without importing the registry package, since
// Assembler is an external-collaborator port and should not depend on C2's
// concrete type.
type AssemblerOptions struct {
	Archive            string
	Compression        string
	ChecksumAlgorithms []string
}

// Assembler builds a PackageStream from a DepositSubmission. Implementations
// must be safe to call concurrently from multiple goroutines with no
// shared mutable state.
type Assembler interface {
	Assemble(ctx context.Context, ds domain.DepositSubmission, opts AssemblerOptions) (PackageStream, error)
}

// Receipt is the outcome of a successful Session.Send. Opaque is true when
// the target gives no structured receipt (e.g. a fire-and-forget FTP
// upload); AlternateLink/StatementLink are populated only for a
// structured-SWORD receipt.
type Receipt struct {
	Opaque        bool
	AlternateLink string
	StatementLink string
}

// TransportResponse is the result of one Session.Send call.
type TransportResponse struct {
	Success bool
	Err     error
	Receipt Receipt
}

// Session is a scoped connection to a remote endpoint: send, then close on
// every exit path.
type Session interface {
	Send(ctx context.Context, stream PackageStream) (TransportResponse, error)
	Close() error
}

// Transport opens a Session using protocol-specific options.
type Transport interface {
	Open(ctx context.Context) (Session, error)
}
