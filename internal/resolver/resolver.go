// Package resolver resolves a deposit's external status: given a status
// reference URL and the owning RepositoryConfig, it fetches and parses the
// referenced document into a normalized external status URI.
package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eclipse-pass/deposit-orchestrator/internal/errs"
	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
)

// Resolver fetches and parses status-reference documents. It implements
// the AtomStatement resolution strategy: an Atom feed carrying a SWORD
// state category.
type Resolver struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// New builds a Resolver with a bounded HTTP client and a circuit breaker
// shared across all status-reference fetches, so a dead endpoint fails
// fast rather than exhausting worker goroutines on repeated timeouts.
func New() *Resolver {
	return &Resolver{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "deposit-status-resolver",
			MaxRequests: 1,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Resolve fetches statusRef (using basic auth from the first matching
// realm in cfg.AuthRealms, if any) and extracts the external status URI
// from the first sword-state category found. It returns errs.UnmappedError
// when the document parses but carries no recognized term, and
// errs.ResolveFailedError on any I/O or parse failure.
func (r *Resolver) Resolve(ctx context.Context, statusRef string, cfg registry.RepositoryConfig) (string, error) {
	client := r.httpClient
	if !cfg.FollowRedirects {
		client = &http.Client{
			Timeout: r.httpClient.Timeout,
			CheckRedirect: func(_ *http.Request, _ []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusRef, nil)
	if err != nil {
		return "", errs.ResolveFailedError{StatusRef: statusRef, Err: err}
	}

	if realm, ok := cfg.AuthRealmFor(statusRef); ok {
		req.SetBasicAuth(realm.User, realm.Password)
	}

	result, err := r.breaker.Execute(func() (any, error) {
		resp, doErr := client.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("status reference fetch: status %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return "", errs.ResolveFailedError{StatusRef: statusRef, Err: err}
	}

	body, ok := result.([]byte)
	if !ok {
		return "", errs.ResolveFailedError{StatusRef: statusRef, Err: fmt.Errorf("unexpected breaker result type %T", result)}
	}

	term, found, err := extractSwordStateTerm(body)
	if err != nil {
		return "", errs.ResolveFailedError{StatusRef: statusRef, Err: err}
	}

	if !found {
		return "", errs.UnmappedError{ExternalStatus: "", RepositoryKey: cfg.RepositoryKey}
	}

	return term, nil
}
