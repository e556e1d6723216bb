package api

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
)

// ServerName is the MCP implementation name announced on initialize.
const ServerName = "statsmcp"

// NewMCPServer exposes every registered tool over MCP. Tool calls run
// through the dispatcher, so MCP clients see the same results and error
// kinds as the REST and JSON-RPC surfaces.
func NewMCPServer(dispatcher *tool.Dispatcher, version string) *mcp.Server {
	return newMCPServer(dispatcher, version, sessionIdentity{})
}

func newMCPServer(dispatcher *tool.Dispatcher, version string, id sessionIdentity) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	for _, d := range dispatcher.Registry().List() {
		server.AddTool(&mcp.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema(),
		}, mcpToolHandler(dispatcher, d.Name, id))
	}
	return server
}

// mcpServerFactory returns the getServer callback of the SSE and streamable
// handlers. Each session gets its own server bound to the identity of the
// request that opened it.
func mcpServerFactory(dispatcher *tool.Dispatcher, version string) func(*http.Request) *mcp.Server {
	return func(r *http.Request) *mcp.Server {
		return newMCPServer(dispatcher, version, identityFromRequest(r))
	}
}

func mcpToolHandler(dispatcher *tool.Dispatcher, name string, id sessionIdentity) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := tool.ArgumentsFromJSON(req.Params.Arguments)
		if err != nil {
			return toCallToolResult(tool.Fail(tool.KindInvalidArgument, err.Error())), nil
		}
		res := dispatcher.Invoke(id.attach(ctx), tool.InvocationRequest{Tool: name, Arguments: args})
		return toCallToolResult(res), nil
	}
}

// toCallToolResult renders a result as one text block plus structured
// content: {"result": value} on success, {"error": {kind, message}} otherwise.
func toCallToolResult(res tool.Result) *mcp.CallToolResult {
	out := &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: res.Text()}},
	}
	if res.IsError() {
		out.IsError = true
		out.StructuredContent = map[string]any{"error": res.Err}
		return out
	}
	out.StructuredContent = map[string]any{"result": res.Value}
	return out
}
