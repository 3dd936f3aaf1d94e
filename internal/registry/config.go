package registry

import (
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/statusmap"
)

// BasicAuthRealm names an HTTP basic-auth credential scoped to every URL
// under BaseURL.
type BasicAuthRealm struct {
	BaseURL  string
	User     string
	Password string
}

// AssemblerOptions configures package construction: archive container,
// compression, and checksum algorithms.
type AssemblerOptions struct {
	Archive            string
	Compression        string
	ChecksumAlgorithms []string
}

// RepositoryConfig is per-target deposit configuration, held only in the
// in-memory registry: never persisted to the metadata store.
type RepositoryConfig struct {
	RepositoryKey   string
	AssemblerID     string
	AssemblerOptions AssemblerOptions
	ProtocolBinding ProtocolBinding
	AuthRealms      []BasicAuthRealm
	StatusMapping   statusmap.Mapping
	DepositStatusProcessorID string

	// FollowRedirects governs C4's HTTP fetch of a status reference.
	// LoadDocument sets it to true when the document omits it.
	FollowRedirects bool

	// SettleInterval is the post-deposit pause before C5 resolves a
	// SWORD-style deposit's status.
	SettleInterval time.Duration

	// StatementURLRewritePrefix/Replacement implement the workaround for
	// targets that return internally-routable statement URLs.
	StatementURLRewritePrefix      string
	StatementURLRewriteReplacement string
}

// AuthRealmFor returns the realm whose BaseURL is a prefix of url, if any.
func (c RepositoryConfig) AuthRealmFor(url string) (BasicAuthRealm, bool) {
	for _, r := range c.AuthRealms {
		if len(url) >= len(r.BaseURL) && url[:len(r.BaseURL)] == r.BaseURL {
			return r, true
		}
	}

	return BasicAuthRealm{}, false
}

// RewriteStatementURL applies the configured prefix-rewrite rule to a
// SWORD statement URL. Unchanged if the prefix does not match.
func (c RepositoryConfig) RewriteStatementURL(statementURL string) string {
	if c.StatementURLRewritePrefix == "" {
		return statementURL
	}

	prefix := c.StatementURLRewritePrefix
	if len(statementURL) >= len(prefix) && statementURL[:len(prefix)] == prefix {
		return c.StatementURLRewriteReplacement + statementURL[len(prefix):]
	}

	return statementURL
}
