package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
)

const maxRequestBodyBytes = 1 << 20

type errorBody struct {
	Error *tool.InvocationError `json:"error"`
}

var errEncodeFailed = &tool.InvocationError{Kind: tool.KindHandlerFailure, Message: "failed to encode response"}

// writeJSON writes v with the given status. v is encoded before the header
// goes out, so an encoding failure still answers with a JSON 500.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorBody{Error: errEncodeFailed})
		statusCode = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(buf.Bytes())
}

// writeError writes {"error":{"kind","message"}} with the status for its kind.
func writeError(w http.ResponseWriter, e *tool.InvocationError) {
	writeJSON(w, statusForKind(e.Kind), errorBody{Error: e})
}

// statusForKind maps error kinds to REST status codes: caller mistakes are
// 4xx, dataset errors 422, provider errors 502, handler failures 500.
func statusForKind(kind tool.ErrorKind) int {
	switch kind {
	case tool.KindNotFound:
		return http.StatusNotFound
	case tool.KindMissingArgument, tool.KindInvalidArgument:
		return http.StatusBadRequest
	case tool.KindColumnNotFound, tool.KindNotNumeric, tool.KindInsufficientData:
		return http.StatusUnprocessableEntity
	case tool.KindProviderUnavailable, tool.KindSymbolNotFound:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// toolSummary is the discovery view of a descriptor shared by REST and JSON-RPC.
type toolSummary struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  []tool.Param   `json:"parameters"`
	InputSchema map[string]any `json:"inputSchema"`
}

func summarizeTools(registry *tool.ToolRegistry) []toolSummary {
	list := registry.List()
	out := make([]toolSummary, 0, len(list))
	for _, d := range list {
		params := d.Params
		if params == nil {
			params = []tool.Param{}
		}
		out = append(out, toolSummary{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  params,
			InputSchema: d.InputSchema(),
		})
	}
	return out
}
