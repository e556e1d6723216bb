package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matiasleandrokruk/statsmcp/internal/api"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
)

type stubQuotes struct{}

func (stubQuotes) Fetch(_ context.Context, symbol string) (*quote.StockQuote, error) {
	if symbol == "ZZZZ" {
		return nil, quote.ErrSymbolNotFound
	}
	return &quote.StockQuote{Symbol: symbol, Price: "185.3000"}, nil
}

func newStatsServer(t *testing.T) *mcp.Server {
	t.Helper()
	ds, err := dataset.ReadCSV(context.Background(), strings.NewReader("region,revenue\nNorth,10\nSouth,20\nEast,30\n"), "test.csv")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	registry := tool.NewToolRegistry()
	require.NoError(t, tool.RegisterBuiltins(registry, tool.BuiltinServices{Dataset: ds, Quotes: stubQuotes{}}))
	return api.NewMCPServer(tool.NewDispatcher(registry), "test")
}

// setupTestClient connects a Client to an in-memory statsmcp server.
func setupTestClient(t *testing.T, connects *atomic.Int32) *Client {
	t.Helper()
	server := newStatsServer(t)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(context.Background(), serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	original := transportBuilder
	transportBuilder = func(Options) (mcp.Transport, error) {
		if connects != nil {
			connects.Add(1)
		}
		return clientTransport, nil
	}
	t.Cleanup(func() { transportBuilder = original })

	c := New(Options{})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClient_ListToolsConnectsOnce(t *testing.T) {
	var connects atomic.Int32
	c := setupTestClient(t, &connects)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 5)
	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name)
	}
	assert.ElementsMatch(t, []string{
		"summarize_dataset", "compute_mean", "compute_median", "compute_std", "get_stock_price",
	}, names)

	_, err = c.ListTools(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, connects.Load())
}

func TestClient_InvokeSuccess(t *testing.T) {
	c := setupTestClient(t, nil)

	res, err := c.Invoke(context.Background(), "compute_mean", map[string]any{"column": "revenue"})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "20.0", res.Text)
	assert.Equal(t, 20.0, res.Value)

	res, err = c.Invoke(context.Background(), "get_stock_price", map[string]any{"symbol": "ibm"})
	require.NoError(t, err)
	assert.Equal(t, "Latest price for ibm: $185.3000", res.Text)
}

func TestClient_InvokeToolError(t *testing.T) {
	c := setupTestClient(t, nil)

	res, err := c.Invoke(context.Background(), "get_stock_price", map[string]any{"symbol": "ZZZZ"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "SymbolNotFound", res.ErrorKind)
	assert.True(t, strings.HasPrefix(res.Text, "SymbolNotFound: "), res.Text)

	res, err = c.Invoke(context.Background(), "compute_mean", nil)
	require.NoError(t, err)
	assert.Equal(t, "MissingArgument", res.ErrorKind)
}

func TestClient_InvokeUnknownToolIsLocalNotFound(t *testing.T) {
	c := setupTestClient(t, nil)

	res, err := c.Invoke(context.Background(), "compute_mode", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "NotFound", res.ErrorKind)
	assert.Equal(t, `NotFound: unknown tool "compute_mode"`, res.Text)
}

func TestClient_ConnectErrorIsCached(t *testing.T) {
	original := transportBuilder
	t.Cleanup(func() { transportBuilder = original })

	var calls atomic.Int32
	transportBuilder = func(Options) (mcp.Transport, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	}

	c := New(Options{})
	_, err := c.ListTools(context.Background())
	require.Error(t, err)
	_, err = c.Invoke(context.Background(), "compute_mean", nil)
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
	assert.NoError(t, c.Close())
}

func TestBuildTransport_Endpoints(t *testing.T) {
	cases := []struct {
		name      string
		opts      Options
		wantSSE   bool
		wantedURL string
	}{
		{"default", Options{}, true, "http://127.0.0.1:8000/sse"},
		{"base url sse", Options{ServerURL: "http://localhost:9000"}, true, "http://localhost:9000/sse"},
		{"host only", Options{ServerURL: "localhost:9000/"}, true, "http://localhost:9000/sse"},
		{"explicit path kept", Options{ServerURL: "https://stats.example/custom/sse"}, true, "https://stats.example/custom/sse"},
		{"streamable", Options{ServerURL: "http://localhost:9000", Transport: "streamable"}, false, "http://localhost:9000/mcp"},
		{"http alias", Options{ServerURL: "HTTP://localhost:9000", Transport: "http"}, false, "http://localhost:9000/mcp"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr, err := buildTransport(tc.opts)
			require.NoError(t, err)
			if tc.wantSSE {
				sse, ok := tr.(*mcp.SSEClientTransport)
				require.True(t, ok, "transport is %T", tr)
				assert.Equal(t, tc.wantedURL, sse.Endpoint)
				return
			}
			st, ok := tr.(*mcp.StreamableClientTransport)
			require.True(t, ok, "transport is %T", tr)
			assert.Equal(t, tc.wantedURL, st.Endpoint)
		})
	}
}

func TestBuildTransport_Invalid(t *testing.T) {
	_, err := buildTransport(Options{Transport: "stdio"})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = buildTransport(Options{ServerURL: "ftp://example.com"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestBearerClient_SetsAuthorizationHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	resp, err := bearerClient(nil, "tok-123").Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer tok-123", got)

	assert.Same(t, http.DefaultClient, bearerClient(nil, ""))
}

func TestClient_OverSSE(t *testing.T) {
	f := newStatsServer(t)
	handler := mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return f }, nil)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(Options{ServerURL: srv.URL, Transport: TransportSSE, Token: "opaque"})
	t.Cleanup(func() { _ = c.Close() })

	res, err := c.Invoke(context.Background(), "compute_std", map[string]any{"column": "revenue"})
	require.NoError(t, err)
	assert.Equal(t, "10.0", res.Text)
}
