// Package ftp implements a minimal FTP Transport: enough of RFC 959's
// control-channel dialogue (USER/PASS, TYPE, PASV, STOR) to exercise the
// fire-and-forget "opaque response" path used for targets that expose no
// status reference to poll. It is not a complete client: no active mode,
// no resume, no directory listing.
package ftp

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eclipse-pass/deposit-orchestrator/internal/registry"
	"github.com/eclipse-pass/deposit-orchestrator/internal/transport"
)

// Transport dials an FTP control channel per Open call.
type Transport struct {
	cfg registry.FTPBinding
}

// New builds a Transport bound to cfg.
func New(cfg registry.FTPBinding) *Transport {
	return &Transport{cfg: cfg}
}

func (t *Transport) Open(ctx context.Context) (transport.Session, error) {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))

	dialer := net.Dialer{Timeout: 15 * time.Second}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ftp transport: dial %s: %w", addr, err)
	}

	tp := textproto.NewConn(conn)

	if _, _, err := tp.ReadResponse(220); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ftp transport: greeting: %w", err)
	}

	user := t.cfg.User
	if user == "" {
		user = "anonymous"
	}

	if err := command(tp, "USER "+user, 331, 230); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ftp transport: USER: %w", err)
	}

	if t.cfg.Password != "" {
		if err := command(tp, "PASS "+t.cfg.Password, 230); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ftp transport: PASS: %w", err)
		}
	}

	typeCode := "I"
	if t.cfg.Type != "" {
		typeCode = t.cfg.Type
	}

	if err := command(tp, "TYPE "+typeCode, 200); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ftp transport: TYPE: %w", err)
	}

	if t.cfg.DefaultDir != "" {
		if err := command(tp, "CWD "+t.cfg.DefaultDir, 250); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ftp transport: CWD: %w", err)
		}
	}

	return &session{conn: conn, tp: tp, cfg: t.cfg}, nil
}

type session struct {
	conn net.Conn
	tp   *textproto.Conn
	cfg  registry.FTPBinding
}

// Send uploads the stream over a PASV data connection and reports an
// opaque receipt: FTP has no mechanism to report asynchronous acceptance
// within this exchange.
func (s *session) Send(ctx context.Context, stream transport.PackageStream) (transport.TransportResponse, error) {
	rc, err := stream.Open()
	if err != nil {
		return transport.TransportResponse{}, fmt.Errorf("ftp transport: opening stream: %w", err)
	}
	defer rc.Close()

	dataAddr, err := s.enterPassiveMode()
	if err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	dialer := net.Dialer{Timeout: 15 * time.Second}

	dataConn, err := dialer.DialContext(ctx, "tcp", dataAddr)
	if err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	name := uuid.NewString() + "." + stream.Archive

	id, err := s.tp.Cmd("STOR %s", name)
	if err != nil {
		dataConn.Close()
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	s.tp.StartResponse(id)
	_, _, err = s.tp.ReadResponse(150)
	s.tp.EndResponse(id)
	if err != nil {
		dataConn.Close()
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	if _, err := io.Copy(dataConn, rc); err != nil {
		dataConn.Close()
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	if err := dataConn.Close(); err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	if _, _, err := s.tp.ReadResponse(226); err != nil {
		return transport.TransportResponse{Success: false, Err: err}, nil
	}

	return transport.TransportResponse{
		Success: true,
		Receipt: transport.Receipt{Opaque: true},
	}, nil
}

func (s *session) Close() error {
	_, _ = s.tp.Cmd("QUIT")
	return s.conn.Close()
}

func (s *session) enterPassiveMode() (string, error) {
	id, err := s.tp.Cmd("PASV")
	if err != nil {
		return "", err
	}

	s.tp.StartResponse(id)
	_, line, err := s.tp.ReadResponse(227)
	s.tp.EndResponse(id)
	if err != nil {
		return "", fmt.Errorf("PASV: %w", err)
	}

	return parsePASVResponse(line)
}

// parsePASVResponse extracts "h1,h2,h3,h4,p1,p2" from a 227 response line
// like "Entering Passive Mode (127,0,0,1,200,13)." and returns "host:port".
func parsePASVResponse(line string) (string, error) {
	open := strings.Index(line, "(")
	close := strings.Index(line, ")")
	if open < 0 || close < 0 || close <= open {
		return "", fmt.Errorf("malformed PASV response: %q", line)
	}

	parts := strings.Split(line[open+1:close], ",")
	if len(parts) != 6 {
		return "", fmt.Errorf("malformed PASV response: %q", line)
	}

	host := strings.Join(parts[0:4], ".")

	p1, err := strconv.Atoi(parts[4])
	if err != nil {
		return "", fmt.Errorf("malformed PASV port: %w", err)
	}

	p2, err := strconv.Atoi(parts[5])
	if err != nil {
		return "", fmt.Errorf("malformed PASV port: %w", err)
	}

	port := p1*256 + p2

	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

func command(tp *textproto.Conn, cmd string, expectCodes ...int) error {
	id, err := tp.Cmd(cmd)
	if err != nil {
		return err
	}

	tp.StartResponse(id)
	defer tp.EndResponse(id)

	code, _, err := tp.ReadCodeLine(expectCodes[0])
	if err == nil {
		return nil
	}

	for _, want := range expectCodes[1:] {
		if code == want {
			return nil
		}
	}

	return err
}

var _ transport.Transport = (*Transport)(nil)
