// Package fetch retrieves raw HTTP/1.1 responses over a plain TCP connection.
// Bodies are returned exactly as received, chunk framing and content
// encoding included.
package fetch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMalformedResponse = errors.New("malformed http response")
	ErrResponseTooLarge  = errors.New("response exceeds size limit")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// RetryableError marks transport failures worth another attempt.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %s", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// IsRetryable reports whether err is a transport failure or a 429/5xx status.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	if errors.As(err, &retryErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusTooManyRequests || statusErr.Code >= 500
	}
	return false
}

// Response is a parsed status line and header block plus the raw body.
type Response struct {
	Proto      string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// Client issues GET requests with "Connection: close" and reads until EOF.
type Client struct {
	dialer    *net.Dialer
	timeout   time.Duration
	maxBytes  int64
	userAgent string
}

func NewClient(timeout time.Duration, maxBytes int64) *Client {
	return &Client{
		dialer:    &net.Dialer{Timeout: timeout},
		timeout:   timeout,
		maxBytes:  maxBytes,
		userAgent: "domgest/1.0",
	}
}

// Get fetches rawURL. Only the http scheme is supported.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
	port := u.Port()
	if port == "" {
		port = "80"
	}
	addr := net.JoinHostPort(u.Hostname(), port)

	conn, err := c.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("dial %s: %w", addr, err)}
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if !deadline.IsZero() {
		conn.SetDeadline(deadline)
	}

	req := "GET " + u.RequestURI() + " HTTP/1.1\r\n" +
		"Host: " + u.Host + "\r\n" +
		"User-Agent: " + c.userAgent + "\r\n" +
		"Accept-Encoding: gzip, deflate, br\r\n" +
		"Connection: close\r\n" +
		"\r\n"
	if _, err := io.WriteString(conn, req); err != nil {
		return nil, c.transportErr(ctx, "write request", err)
	}

	var r io.Reader = conn
	if c.maxBytes > 0 {
		r = io.LimitReader(conn, c.maxBytes+1)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, c.transportErr(ctx, "read response", err)
	}
	if c.maxBytes > 0 && int64(len(raw)) > c.maxBytes {
		return nil, ErrResponseTooLarge
	}

	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return resp, nil
}

func (c *Client) transportErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w", op, ctxErr)
	}
	return &RetryableError{Err: fmt.Errorf("%s: %w", op, err)}
}

// ParseResponse splits raw at the first blank line and parses the status
// line and headers. The body is everything after the blank line.
func ParseResponse(raw []byte) (*Response, error) {
	idx := bytes.Index(raw, []byte("\r\n\r\n"))
	if idx == -1 {
		return nil, fmt.Errorf("%w: no header terminator", ErrMalformedResponse)
	}
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(raw[:idx+4])))

	line, err := tp.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	proto, rest, ok := strings.Cut(line, " ")
	if !ok || !strings.HasPrefix(proto, "HTTP/") {
		return nil, fmt.Errorf("%w: status line %q", ErrMalformedResponse, line)
	}
	codeStr, _, _ := strings.Cut(rest, " ")
	code, err := strconv.Atoi(codeStr)
	if err != nil || len(codeStr) != 3 {
		return nil, fmt.Errorf("%w: status code %q", ErrMalformedResponse, codeStr)
	}

	mh, err := tp.ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &Response{
		Proto:      proto,
		StatusCode: code,
		Status:     strings.TrimSpace(rest),
		Header:     http.Header(mh),
		Body:       raw[idx+4:],
	}, nil
}
