package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/matiasleandrokruk/statsmcp/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/statsmcp/internal/api/middleware"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/logging"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Dispatcher *tool.Dispatcher
	Dataset    handlers.DatasetDescriber
	Logger     *slog.Logger
	Version    string
}

// NewRouter wires the MCP, JSON-RPC and REST surfaces onto one chi router.
// None of the routes require authentication; bearer tokens are only
// recorded for attribution.
func NewRouter(deps Dependencies) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.BearerPassthrough)
	r.Use(apmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// ===== MCP =====
	getServer := mcpServerFactory(deps.Dispatcher, deps.Version)
	r.Handle("/sse", mcp.NewSSEHandler(getServer, nil))            // GET opens a session, POST ?sessionid= sends
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(getServer, nil)) // streamable HTTP

	// ===== JSON-RPC =====
	r.Post("/rpc", handlers.NewRPCHandler(deps.Dispatcher).Serve)

	// ===== REST =====
	toolHandler := handlers.NewToolHandler(deps.Dispatcher)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/tools", toolHandler.ListTools)                 // GET /api/v1/tools
		r.Post("/tools/{name}/invoke", toolHandler.InvokeTool) // POST /api/v1/tools/{name}/invoke
		if deps.Dataset != nil {
			r.Get("/dataset", handlers.NewDatasetHandler(deps.Dataset).GetDataset) // GET /api/v1/dataset
		}
	})

	return r
}
