// Package httpstore is a MetadataStore client against a REST-style
// metadata repository: explicit http.NewRequest calls and an explicit
// status-code switch, no HTTP framework. A gobreaker.CircuitBreaker wraps
// every call so a repository outage fails fast instead of piling up
// goroutines on dead connections.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/eclipse-pass/deposit-orchestrator/internal/domain"
	"github.com/eclipse-pass/deposit-orchestrator/internal/store"
)

// Client is an HTTP-backed MetadataStore.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// New builds a Client against baseURL, authenticating with HTTP basic auth
// when user is non-empty.
func New(baseURL, user, password string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "metadata-store",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		baseURL:  baseURL,
		user:     user,
		password: password,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: breaker,
	}
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	req.Header.Set("Content-Type", "application/json")

	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, fmt.Errorf("metadata store: server error, status %d", resp.StatusCode)
		}

		return resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("metadata store request: %w", err)
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, fmt.Errorf("metadata store: unexpected breaker result type %T", result)
	}

	return resp, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("metadata store: building request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata store: GET %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("metadata store: decoding %s: %w", path, err)
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("metadata store: marshalling %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("metadata store: building request: %w", err)
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("metadata store: POST %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("metadata store: decoding %s: %w", path, err)
	}

	return nil
}

// put sends an etag-guarded update. The etag travels as an If-Match header;
// a 409 or 412 response is translated to store.ErrConflict.
func (c *Client) put(ctx context.Context, path, etag string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("metadata store: marshalling %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("metadata store: building request: %w", err)
	}
	req.Header.Set("If-Match", etag)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusConflict, http.StatusPreconditionFailed:
		return fmt.Errorf("%s: %w", path, store.ErrConflict)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, store.ErrNotFound)
	default:
		return fmt.Errorf("metadata store: PUT %s: status %d", path, resp.StatusCode)
	}
}

func (c *Client) ReadSubmission(ctx context.Context, id string) (domain.Submission, error) {
	var s domain.Submission
	err := c.get(ctx, "/submissions/"+id, &s)
	return s, err
}

func (c *Client) CreateSubmission(ctx context.Context, s domain.Submission) (domain.Submission, error) {
	var out domain.Submission
	err := c.post(ctx, "/submissions", s, &out)
	return out, err
}

func (c *Client) UpdateSubmission(ctx context.Context, s domain.Submission) error {
	return c.put(ctx, "/submissions/"+s.ID, s.Etag, s)
}

func (c *Client) ReadDeposit(ctx context.Context, id string) (domain.Deposit, error) {
	var d domain.Deposit
	err := c.get(ctx, "/deposits/"+id, &d)
	return d, err
}

func (c *Client) CreateDeposit(ctx context.Context, d domain.Deposit) (domain.Deposit, error) {
	var out domain.Deposit
	err := c.post(ctx, "/deposits", d, &out)
	return out, err
}

func (c *Client) UpdateDeposit(ctx context.Context, d domain.Deposit) error {
	return c.put(ctx, "/deposits/"+d.ID, d.Etag, d)
}

func (c *Client) ReadRepository(ctx context.Context, id string) (domain.Repository, error) {
	var r domain.Repository
	err := c.get(ctx, "/repositories/"+id, &r)
	return r, err
}

func (c *Client) ReadRepositoryCopy(ctx context.Context, id string) (domain.RepositoryCopy, error) {
	var rc domain.RepositoryCopy
	err := c.get(ctx, "/repositoryCopies/"+id, &rc)
	return rc, err
}

func (c *Client) CreateRepositoryCopy(ctx context.Context, rc domain.RepositoryCopy) (domain.RepositoryCopy, error) {
	var out domain.RepositoryCopy
	err := c.post(ctx, "/repositoryCopies", rc, &out)
	return out, err
}

func (c *Client) UpdateRepositoryCopy(ctx context.Context, rc domain.RepositoryCopy) error {
	return c.put(ctx, "/repositoryCopies/"+rc.ID, rc.Etag, rc)
}

func (c *Client) FindDepositsByStatus(ctx context.Context, statuses []domain.DepositStatus) ([]string, error) {
	path := "/deposits?attr=status&values="
	for i, st := range statuses {
		if i > 0 {
			path += ","
		}
		path += string(st)
	}

	var ids []string
	err := c.get(ctx, path, &ids)
	return ids, err
}

func (c *Client) FindSubmissionsNotIn(ctx context.Context, terminal []domain.SubmissionStatus) ([]string, error) {
	path := "/submissions?submitted=true&aggregatedStatusNotIn="
	for i, st := range terminal {
		if i > 0 {
			path += ","
		}
		path += string(st)
	}

	var ids []string
	err := c.get(ctx, path, &ids)
	return ids, err
}

func (c *Client) FindDepositsBySubmission(ctx context.Context, submissionID string) ([]string, error) {
	var ids []string
	err := c.get(ctx, "/deposits?attr=submissionId&values="+submissionID, &ids)
	return ids, err
}

var _ store.MetadataStore = (*Client)(nil)
