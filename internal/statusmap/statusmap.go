// Package statusmap implements the StatusMapping concern: per-target
// lookup from an external status URI to an internal DepositStatus. The
// StatusEvaluator predicates on DepositStatus live in package domain.
package statusmap

import "github.com/eclipse-pass/deposit-orchestrator/internal/domain"

// Mapping is a per-RepositoryConfig map from external status URI to
// internal DepositStatus, with a default used when no key matches. Lookup
// is exact-match only.
type Mapping struct {
	byURI   map[string]domain.DepositStatus
	Default domain.DepositStatus
	hasDefault bool
}

// New builds a Mapping from a URI -> status table. hasDefault controls
// whether unmatched lookups fall back to def or report unmapped.
func New(byURI map[string]domain.DepositStatus, def domain.DepositStatus, hasDefault bool) Mapping {
	table := make(map[string]domain.DepositStatus, len(byURI))
	for k, v := range byURI {
		table[k] = v
	}

	return Mapping{byURI: table, Default: def, hasDefault: hasDefault}
}

// Lookup maps an external status URI to an internal status. ok is false
// when the URI has no mapping and no default is configured: the caller
// should treat the status as unresolved and leave the deposit untouched.
func (m Mapping) Lookup(externalStatusURI string) (status domain.DepositStatus, ok bool) {
	if s, found := m.byURI[externalStatusURI]; found {
		return s, true
	}

	if m.hasDefault {
		return m.Default, true
	}

	return domain.DepositStatusDirty, false
}
