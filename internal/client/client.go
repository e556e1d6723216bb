// Package client is the command-line side of statsmcp: an MCP client that
// lists and calls the server's tools.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/statsmcp/internal/version"
	pkgauth "github.com/matiasleandrokruk/statsmcp/pkg/auth"
)

const (
	TransportSSE        = "sse"
	TransportStreamable = "streamable"

	DefaultServerURL = "http://127.0.0.1:8000"
)

var ErrInvalidOptions = errors.New("client: invalid options")

// transportBuilder is overridden in tests to stub the transport factory.
var transportBuilder = buildTransport

type Options struct {
	// ServerURL is the server base URL or a full endpoint URL. A bare base
	// URL gets /sse or /mcp appended according to Transport.
	ServerURL string
	// Transport is "sse" (default) or "streamable".
	Transport string
	// Token, when set, is sent as "Authorization: Bearer <token>".
	Token string
	// HTTPClient is the base client; http.DefaultClient when nil.
	HTTPClient *http.Client
}

// CallResult is a tool result as seen by the client.
type CallResult struct {
	Text      string
	IsError   bool
	Value     any
	ErrorKind string
}

type Client struct {
	impl *mcp.Client
	opts Options

	once       sync.Once
	session    *mcp.ClientSession
	connectErr error

	mu    sync.Mutex
	tools []*mcp.Tool
}

func New(opts Options) *Client {
	impl := mcp.NewClient(&mcp.Implementation{Name: "statsmcp-cli", Version: version.Version}, nil)
	return &Client{impl: impl, opts: opts}
}

func (c *Client) ensureConnected(ctx context.Context) error {
	c.once.Do(func() {
		transport, err := transportBuilder(c.opts)
		if err != nil {
			c.connectErr = err
			return
		}
		session, err := c.impl.Connect(ctx, transport, nil)
		if err != nil {
			c.connectErr = fmt.Errorf("client: connect: %w", err)
			return
		}
		c.session = session
	})
	return c.connectErr
}

// ListTools fetches the server's tools and caches them for Invoke.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}
	var tools []*mcp.Tool
	for t, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("client: list tools: %w", err)
		}
		tools = append(tools, t)
	}

	c.mu.Lock()
	c.tools = tools
	c.mu.Unlock()
	return tools, nil
}

// Invoke calls a tool. A name the server does not list yields a NotFound
// result without a round trip; tool failures come back as IsError results,
// and only transport problems are returned as errors.
func (c *Client) Invoke(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	known, err := c.hasTool(ctx, name)
	if err != nil {
		return nil, err
	}
	if !known {
		msg := fmt.Sprintf("unknown tool %q", name)
		return &CallResult{Text: "NotFound: " + msg, IsError: true, ErrorKind: "NotFound"}, nil
	}

	if args == nil {
		args = map[string]any{}
	}
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("client: call %s: %w", name, err)
	}
	return toCallResult(res), nil
}

func (c *Client) hasTool(ctx context.Context, name string) (bool, error) {
	c.mu.Lock()
	tools := c.tools
	c.mu.Unlock()

	if tools == nil {
		var err error
		if tools, err = c.ListTools(ctx); err != nil {
			return false, err
		}
	}
	for _, t := range tools {
		if t.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Close shuts down the underlying session, if any.
func (c *Client) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func toCallResult(res *mcp.CallToolResult) *CallResult {
	out := &CallResult{IsError: res.IsError}

	var texts []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			texts = append(texts, text.Text)
		}
	}
	out.Text = strings.Join(texts, "\n")

	structured, _ := res.StructuredContent.(map[string]any)
	if v, ok := structured["result"]; ok {
		out.Value = v
	}
	if e, ok := structured["error"].(map[string]any); ok {
		out.ErrorKind, _ = e["kind"].(string)
	}
	return out
}

func buildTransport(opts Options) (mcp.Transport, error) {
	kind := strings.ToLower(strings.TrimSpace(opts.Transport))
	if kind == "" {
		kind = TransportSSE
	}

	var defaultPath string
	switch kind {
	case TransportSSE:
		defaultPath = "/sse"
	case TransportStreamable, "http", "stream":
		kind = TransportStreamable
		defaultPath = "/mcp"
	default:
		return nil, fmt.Errorf("%w: unsupported transport %q", ErrInvalidOptions, opts.Transport)
	}

	serverURL := opts.ServerURL
	if strings.TrimSpace(serverURL) == "" {
		serverURL = DefaultServerURL
	}
	endpoint, err := normalizeEndpoint(serverURL, defaultPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	httpClient := bearerClient(opts.HTTPClient, opts.Token)
	if kind == TransportStreamable {
		return &mcp.StreamableClientTransport{Endpoint: endpoint, HTTPClient: httpClient}, nil
	}
	return &mcp.SSEClientTransport{Endpoint: endpoint, HTTPClient: httpClient}, nil
}

// normalizeEndpoint accepts "host:port", a base URL or a full endpoint URL.
func normalizeEndpoint(raw, defaultPath string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	parsed.Scheme = scheme
	if parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = defaultPath
	}
	return parsed.String(), nil
}

func bearerClient(base *http.Client, token string) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	if token == "" {
		return base
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	clone := *base
	clone.Transport = &bearerRoundTripper{token: token, base: rt}
	return &clone
}

type bearerRoundTripper struct {
	token string
	base  http.RoundTripper
}

func (b *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(pkgauth.HeaderAuthorization, pkgauth.HeaderValue(b.token))
	return b.base.RoundTrip(req)
}
