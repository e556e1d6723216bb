package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
)

func connectInMemory(t *testing.T, server *mcp.Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ss, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return text.Text
}

func TestMCPServer_ListTools(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	cs := connectInMemory(t, NewMCPServer(f.dispatcher, "test"))

	var names []string
	for tl, err := range cs.Tools(context.Background(), nil) {
		if err != nil {
			t.Fatalf("list tools: %v", err)
		}
		names = append(names, tl.Name)
	}
	want := map[string]bool{
		"summarize_dataset": true, "compute_mean": true, "compute_median": true,
		"compute_std": true, "get_stock_price": true,
	}
	if len(names) != len(want) {
		t.Fatalf("tools=%v", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Fatalf("unexpected tool %q", n)
		}
	}
}

func TestMCPServer_CallTool_Result(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	cs := connectInMemory(t, NewMCPServer(f.dispatcher, "test"))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "compute_mean",
		Arguments: map[string]any{"column": "revenue"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", callText(t, res))
	}
	if got := callText(t, res); got != "20.0" {
		t.Fatalf("text=%q want 20.0", got)
	}
	structured, ok := res.StructuredContent.(map[string]any)
	if !ok || structured["result"] != 20.0 {
		t.Fatalf("structured=%#v", res.StructuredContent)
	}

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_stock_price",
		Arguments: map[string]any{"symbol": "ibm"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := callText(t, res); got != "Latest price for ibm: $185.3000" {
		t.Fatalf("text=%q", got)
	}
}

func TestMCPServer_CallTool_NonFiniteResult(t *testing.T) {
	t.Parallel()

	f := newAPIFixtureFromCSV(t, "x,y\n1e308,inf\n1e308,1\n")
	cs := connectInMemory(t, NewMCPServer(f.dispatcher, "test"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "compute_mean",
		Arguments: map[string]any{"column": "x"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatalf("expected error result, got %q", callText(t, res))
	}
	if got := callText(t, res); !strings.HasPrefix(got, "HandlerFailure: compute_mean") {
		t.Fatalf("text=%q", got)
	}
}

func TestMCPServer_CallTool_ErrorResult(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	cs := connectInMemory(t, NewMCPServer(f.dispatcher, "test"))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "compute_std",
		Arguments: map[string]any{"column": "region"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result")
	}
	structured, _ := res.StructuredContent.(map[string]any)
	errObj, _ := structured["error"].(map[string]any)
	if errObj["kind"] != "NotNumeric" {
		t.Fatalf("structured=%#v", res.StructuredContent)
	}

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "compute_mean", Arguments: map[string]any{}})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if !res.IsError || callText(t, res) != "MissingArgument: column" {
		t.Fatalf("expected MissingArgument, got %q", callText(t, res))
	}

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "compute_mean",
		Arguments: map[string]any{"column": []any{"revenue"}},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	structured, _ = res.StructuredContent.(map[string]any)
	errObj, _ = structured["error"].(map[string]any)
	if !res.IsError || errObj["kind"] != "InvalidArgument" {
		t.Fatalf("expected InvalidArgument, got %#v", res.StructuredContent)
	}
}

func TestMCPServer_UnknownToolRejected(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	cs := connectInMemory(t, NewMCPServer(f.dispatcher, "test"))

	if _, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "compute_mode"}); err == nil {
		t.Fatal("expected an error for an unregistered tool")
	}
}

func TestToCallToolResult(t *testing.T) {
	t.Parallel()

	ok := toCallToolResult(tool.Ok(2.5))
	if ok.IsError || ok.StructuredContent.(map[string]any)["result"] != 2.5 {
		t.Fatalf("ok result=%#v", ok)
	}
	if ok.Content[0].(*mcp.TextContent).Text != "2.5" {
		t.Fatalf("text=%q", ok.Content[0].(*mcp.TextContent).Text)
	}

	failed := toCallToolResult(tool.Fail(tool.KindSymbolNotFound, "ZZZZ"))
	if !failed.IsError || failed.Content[0].(*mcp.TextContent).Text != "SymbolNotFound: ZZZZ" {
		t.Fatalf("error result=%#v", failed)
	}
}

type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.base.RoundTrip(req)
}

func connectHTTP(t *testing.T, transport mcp.Transport) *mcp.ClientSession {
	t.Helper()
	// The SSE stream lives as long as the connect context.
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(context.Background(), transport, nil)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestRouter_MCPOverSSE_AttributesSubject(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	records := f.bus.Subscribe(tool.TopicToolInvoked)

	srv := httptest.NewServer(NewRouter(f.router()))
	t.Cleanup(srv.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("any-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	cs := connectHTTP(t, &mcp.SSEClientTransport{
		Endpoint:   srv.URL + "/sse",
		HTTPClient: &http.Client{Transport: bearerTransport{token: token, base: http.DefaultTransport}},
	})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "compute_std",
		Arguments: map[string]any{"column": "revenue"},
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := callText(t, res); got != "10.0" {
		t.Fatalf("text=%q want 10.0", got)
	}

	select {
	case evt := <-records:
		rec := evt.Payload.(tool.InvocationRecord)
		if rec.Subject != "alice" {
			t.Fatalf("subject=%q want alice", rec.Subject)
		}
	case <-time.After(time.Second):
		t.Fatal("no invocation record published")
	}
}

func TestRouter_MCPOverStreamableHTTP(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	srv := httptest.NewServer(NewRouter(f.router()))
	t.Cleanup(srv.Close)

	cs := connectHTTP(t, &mcp.StreamableClientTransport{Endpoint: srv.URL + "/mcp"})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "summarize_dataset"})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got := callText(t, res); got != "Dataset has 3 rows and 2 columns. Columns: region, revenue" {
		t.Fatalf("text=%q", got)
	}
}
