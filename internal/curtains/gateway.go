// Curtains - Room Curtain Control Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curtains

package curtains

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tomtom215/curtains/internal/logging"
)

// userAgent is what the controller expects from its mobile client.
const userAgent = "XXter/1.0"

// maxResponseBody bounds how much of a controller reply is read.
const maxResponseBody = 64 << 10

// Request is one command for the controller.
type Request struct {
	Host     string // ip or hostname
	Port     string
	Username string
	Password string
	MD5      string
	Group    string
	Value    string // empty for stop
}

// Response is the controller's answer.
type Response struct {
	StatusCode int
	Body       string
}

// Accepted reports whether the controller took the command.
func (r Response) Accepted() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusAccepted
}

// Gateway sends commands to the controller.
type Gateway interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// EncodeBody renders the controller's CRLF-separated form.
func EncodeBody(req Request) string {
	var b strings.Builder
	for _, kv := range [][2]string{
		{"username", req.Username},
		{"password", req.Password},
		{"sk", ""},
		{"version", "2"},
		{"md5", req.MD5},
		{"group", req.Group},
		{"eis", "1.001"},
		{"value", req.Value},
	} {
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(kv[1])
		b.WriteString("\r\n")
	}
	return b.String()
}

// HTTPGateway posts commands over HTTPS.
type HTTPGateway struct {
	client *http.Client
	scheme string
}

// NewHTTPGateway returns a gateway with the given request timeout. The
// controller serves a self-signed certificate, so verification is off.
func NewHTTPGateway(timeout time.Duration) *HTTPGateway {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // controller uses a self-signed certificate
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPGateway{
		client: &http.Client{Timeout: timeout, Transport: transport},
		scheme: "https",
	}
}

// URL is the send endpoint for req.
func (g *HTTPGateway) URL(req Request) string {
	return fmt.Sprintf("%s://%s/iphone/send", g.scheme, net.JoinHostPort(req.Host, req.Port))
}

// Send posts req and returns the status and body, whatever the status.
func (g *HTTPGateway) Send(ctx context.Context, req Request) (Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL(req), strings.NewReader(EncodeBody(req)))
	if err != nil {
		return Response{}, fmt.Errorf("build controller request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("controller request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Response{}, fmt.Errorf("read controller response: %w", err)
	}
	return Response{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

// DryRunGateway accepts every command without contacting a controller.
type DryRunGateway struct{}

// Send logs req and answers 200.
func (DryRunGateway) Send(ctx context.Context, req Request) (Response, error) {
	logging.Ctx(ctx).Info().
		Str("host", req.Host).
		Str("port", req.Port).
		Str("username", req.Username).
		Str("group", req.Group).
		Str("value", req.Value).
		Msg("Dry run: curtain command not sent")
	return Response{StatusCode: http.StatusOK, Body: "dry run"}, nil
}

var (
	_ Gateway = (*HTTPGateway)(nil)
	_ Gateway = DryRunGateway{}
)
