// Package packager resolves a Packager (assembler + transport + config)
// for a repository, via the RepositoryConfigRegistry's resolution order,
// and constructs a concrete Transport for whichever protocolBinding kind
// the resolved RepositoryConfig names.
package packager

import (
	"context"
	"fmt"

	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport/filesystem"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport/ftp"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport/sword"
)

// Packager bundles everything DepositTask needs to package and send one
// deposit: an Assembler, a Transport bound to the target's protocol, and
// the RepositoryConfig that produced them.
type Packager struct {
	Assembler transport.Assembler
	Transport transport.Transport
	Config    registry.RepositoryConfig
}

// Resolver builds a Packager for a repository using a shared Assembler
// and the in-memory RepositoryConfigRegistry.
type Resolver struct {
	registry  *registry.Registry
	assembler transport.Assembler
}

// New builds a Resolver.
func New(reg *registry.Registry, assembler transport.Assembler) *Resolver {
	return &Resolver{registry: reg, assembler: assembler}
}

// Resolve looks up the RepositoryConfig for (repositoryID, repositoryKey)
// using the registry's resolution order and builds the matching Transport.
func (r *Resolver) Resolve(_ context.Context, repositoryID, repositoryKey string) (Packager, error) {
	cfg, ok := r.registry.Resolve(repositoryID, repositoryKey)
	if !ok {
		return Packager{}, fmt.Errorf("packager: no configuration resolvable for repository %s (%s)", repositoryID, repositoryKey)
	}

	t, err := buildTransport(cfg)
	if err != nil {
		return Packager{}, err
	}

	return Packager{Assembler: r.assembler, Transport: t, Config: cfg}, nil
}

func buildTransport(cfg registry.RepositoryConfig) (transport.Transport, error) {
	switch cfg.ProtocolBinding.Kind {
	case registry.ProtocolFilesystem:
		return filesystem.New(cfg.ProtocolBinding.Filesystem), nil
	case registry.ProtocolFTP:
		return ftp.New(cfg.ProtocolBinding.FTP), nil
	case registry.ProtocolSwordV2:
		return sword.New(cfg.ProtocolBinding.SwordV2), nil
	default:
		return nil, fmt.Errorf("packager: unrecognized protocol binding kind %q", cfg.ProtocolBinding.Kind)
	}
}
