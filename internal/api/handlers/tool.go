package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
)

type ToolHandler struct {
	dispatcher *tool.Dispatcher
}

func NewToolHandler(dispatcher *tool.Dispatcher) *ToolHandler {
	return &ToolHandler{dispatcher: dispatcher}
}

type invokeToolRequest struct {
	Arguments json.RawMessage `json:"arguments"`
}

type invokeToolResponse struct {
	Result any `json:"result"`
}

// ListTools handles GET /api/v1/tools.
func (h *ToolHandler) ListTools(w http.ResponseWriter, r *http.Request) {
	out := summarizeTools(h.dispatcher.Registry())
	writeJSON(w, http.StatusOK, map[string]any{"data": out, "meta": map[string]int{"total": len(out)}})
}

// InvokeTool handles POST /api/v1/tools/{name}/invoke. An empty body means
// no arguments.
func (h *ToolHandler) InvokeTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req invokeToolRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, &tool.InvocationError{Kind: tool.KindInvalidArgument, Message: "invalid request body"})
		return
	}

	args, err := tool.ArgumentsFromJSON(req.Arguments)
	if err != nil {
		writeError(w, &tool.InvocationError{Kind: tool.KindInvalidArgument, Message: err.Error()})
		return
	}

	res := h.dispatcher.Invoke(r.Context(), tool.InvocationRequest{
		ID:        r.Header.Get("X-Invocation-Id"),
		Tool:      name,
		Arguments: args,
	})
	if res.IsError() {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, invokeToolResponse{Result: res.Value})
}
