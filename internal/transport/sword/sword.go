// Package sword implements the SwordV2 protocol binding: a Transport that
// POSTs a package stream to a SWORDv2 collection endpoint over HTTP and
// parses the Atom deposit receipt for the item's alternate link and
// statement (status reference) link. SWORDv2 is itself an AtomPub-over-
// HTTP protocol, so net/http plus encoding/xml is the natural binding, not
// a stdlib fallback.
package sword

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
)

// Transport POSTs package streams to a SWORDv2 collection.
type Transport struct {
	cfg        registry.SwordV2Binding
	httpClient *http.Client
}

// New builds a Transport bound to cfg.
func New(cfg registry.SwordV2Binding) *Transport {
	return &Transport{cfg: cfg, httpClient: &http.Client{Timeout: 60 * time.Second}}
}

func (t *Transport) Open(_ context.Context) (transport.Session, error) {
	collectionURL := t.cfg.DefaultCollectionURL
	if collectionURL == "" {
		return nil, fmt.Errorf("sword transport: no collection URL configured")
	}

	return &session{cfg: t.cfg, httpClient: t.httpClient, collectionURL: collectionURL}, nil
}

type session struct {
	cfg           registry.SwordV2Binding
	httpClient    *http.Client
	collectionURL string
}

func (s *session) Send(ctx context.Context, stream transport.PackageStream) (transport.TransportResponse, error) {
	rc, err := stream.Open()
	if err != nil {
		return transport.TransportResponse{}, fmt.Errorf("sword transport: opening stream: %w", err)
	}
	defer rc.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.collectionURL, rc)
	if err != nil {
		return transport.TransportResponse{}, fmt.Errorf("sword transport: building request: %w", err)
	}

	req.Header.Set("Content-Type", packagingContentType(stream.Archive))
	req.Header.Set("Content-Disposition", "attachment; filename=package."+stream.Archive)
	req.Header.Set("X-Packaging", "http://purl.org/net/sword/package/SimpleZip")

	if s.cfg.User != "" {
		req.SetBasicAuth(s.cfg.User, s.cfg.Password)
	}

	if s.cfg.OnBehalfOf != "" {
		req.Header.Set("X-On-Behalf-Of", s.cfg.OnBehalfOf)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return transport.TransportResponse{
			Success: false,
			Err:     fmt.Errorf("sword transport: deposit rejected, status %d", resp.StatusCode),
		}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	alternateLink, statementLink, err := parseDepositReceipt(body)
	if err != nil {
		// A 2xx with an unparsable body is still a physical success; the
		// receipt just isn't structured, so it is reported as opaque.
		return transport.TransportResponse{
			Success: true,
			Receipt: transport.Receipt{Opaque: true},
		}, nil
	}

	return transport.TransportResponse{
		Success: true,
		Receipt: transport.Receipt{
			Opaque:        false,
			AlternateLink: alternateLink,
			StatementLink: statementLink,
		},
	}, nil
}

func (s *session) Close() error {
	return nil
}

func packagingContentType(archive string) string {
	switch archive {
	case "zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// depositReceipt is the subset of a SWORDv2 Atom deposit receipt needed to
// extract the two links DepositTask cares about: the alternate (item) link
// and the statement (status reference) link.
type depositReceipt struct {
	XMLName xml.Name    `xml:"entry"`
	Links   []atomLink  `xml:"link"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
	Type string `xml:"type,attr"`
}

// parseDepositReceipt extracts the alternate link and the statement link
// (the link whose rel is http://purl.org/net/sword/terms/statement) from a
// SWORDv2 Atom entry document.
func parseDepositReceipt(body []byte) (alternateLink, statementLink string, err error) {
	var receipt depositReceipt
	if err := xml.Unmarshal(body, &receipt); err != nil {
		return "", "", err
	}

	for _, link := range receipt.Links {
		switch {
		case link.Rel == "alternate":
			alternateLink = link.Href
		case link.Rel == "http://purl.org/net/sword/terms/statement":
			statementLink = link.Href
		}
	}

	if alternateLink == "" && statementLink == "" {
		return "", "", fmt.Errorf("sword transport: no recognized links in deposit receipt")
	}

	return alternateLink, statementLink, nil
}

var _ transport.Transport = (*Transport)(nil)
