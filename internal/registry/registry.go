// Package registry implements the RepositoryConfigRegistry: an in-memory,
// read-only-after-init keyed map of per-target RepositoryConfig, loaded
// from a structured document via viper and resolved by repository identity
// using a fixed priority order.
package registry

import (
	"strings"
)

// Registry is a read-only-after-init lookup of RepositoryConfig by key.
type Registry struct {
	byKey map[string]RepositoryConfig
}

// New builds a Registry from a set of configs keyed by RepositoryKey.
func New(configs []RepositoryConfig) *Registry {
	byKey := make(map[string]RepositoryConfig, len(configs))
	for _, c := range configs {
		byKey[c.RepositoryKey] = c
	}

	return &Registry{byKey: byKey}
}

// Get returns the config registered under key, if any.
func (r *Registry) Get(key string) (RepositoryConfig, bool) {
	c, ok := r.byKey[key]
	return c, ok
}

// Resolve implements the RepositoryConfig resolution order: first hit wins
// across (1) the repository id verbatim, (2) the repository's
// repositoryKey, (3) the URI-path component of the repository id, (4)
// progressive suffixes of the repository-id path, with and without a
// leading slash.
func (r *Registry) Resolve(repositoryID, repositoryKey string) (RepositoryConfig, bool) {
	if c, ok := r.byKey[repositoryID]; ok {
		return c, true
	}

	if repositoryKey != "" {
		if c, ok := r.byKey[repositoryKey]; ok {
			return c, true
		}
	}

	if last := lastPathComponent(repositoryID); last != "" {
		if c, ok := r.byKey[last]; ok {
			return c, true
		}
	}

	for _, suffix := range pathSuffixes(repositoryID) {
		if c, ok := r.byKey[suffix]; ok {
			return c, true
		}

		withSlash := "/" + suffix
		if c, ok := r.byKey[withSlash]; ok {
			return c, true
		}
	}

	return RepositoryConfig{}, false
}

// lastPathComponent returns the final "/"-delimited segment of a URI-like
// id, or "" if id has no path separators.
func lastPathComponent(id string) string {
	trimmed := strings.TrimRight(id, "/")

	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return ""
	}

	return trimmed[idx+1:]
}

// pathSuffixes returns every progressive suffix of id's path, from the
// most specific (all but the first segment) down to the last segment
// alone, splitting on "/". A bare id with no slashes yields no suffixes
// beyond itself, which lastPathComponent and the exact-id check already
// cover.
func pathSuffixes(id string) []string {
	trimmed := strings.Trim(id, "/")
	if trimmed == "" {
		return nil
	}

	segments := strings.Split(trimmed, "/")
	if len(segments) < 2 {
		return nil
	}

	var suffixes []string
	for i := 1; i < len(segments); i++ {
		suffixes = append(suffixes, strings.Join(segments[i:], "/"))
	}

	return suffixes
}
