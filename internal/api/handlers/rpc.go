package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/matiasleandrokruk/statsmcp/internal/domain/tool"
)

const (
	jsonRPCVersion = "2.0"

	rpcMethodList   = "tools/list"
	rpcMethodPrefix = "tools/"
)

// JSON-RPC 2.0 error codes.
const (
	rpcCodeParseError     = -32700
	rpcCodeInvalidRequest = -32600
	rpcCodeMethodNotFound = -32601
	rpcCodeInvalidParams  = -32602
	rpcCodeInternalError  = -32603
	rpcCodeToolError      = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    *rpcErrorData `json:"data,omitempty"`
}

type rpcErrorData struct {
	Kind tool.ErrorKind `json:"kind"`
}

// RPCHandler serves tools over JSON-RPC 2.0: "tools/list" and "tools/<name>".
// Batches are not supported.
type RPCHandler struct {
	dispatcher *tool.Dispatcher
}

func NewRPCHandler(dispatcher *tool.Dispatcher) *RPCHandler {
	return &RPCHandler{dispatcher: dispatcher}
}

// Serve handles POST /rpc.
func (h *RPCHandler) Serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err != nil {
		writeRPCError(w, nil, rpcCodeParseError, "failed to read request body")
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		writeRPCError(w, nil, rpcCodeInvalidRequest, "batch requests are not supported")
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		writeRPCError(w, nil, rpcCodeParseError, "parse error")
		return
	}
	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		writeRPCError(w, req.ID, rpcCodeInvalidRequest, "invalid request")
		return
	}

	result, rpcErr := h.call(r, req)

	// Notifications get no response body.
	if isNotification(req.ID) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if rpcErr != nil {
		writeRPC(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Error: rpcErr})
		return
	}
	writeRPC(w, rpcResponse{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result})
}

func (h *RPCHandler) call(r *http.Request, req rpcRequest) (any, *rpcError) {
	if req.Method == rpcMethodList {
		return map[string]any{"tools": summarizeTools(h.dispatcher.Registry())}, nil
	}

	name, ok := strings.CutPrefix(req.Method, rpcMethodPrefix)
	if !ok || name == "" {
		return nil, &rpcError{Code: rpcCodeMethodNotFound, Message: "method not found: " + req.Method}
	}

	args, err := tool.ArgumentsFromJSON(req.Params)
	if err != nil {
		return nil, &rpcError{
			Code:    rpcCodeInvalidParams,
			Message: err.Error(),
			Data:    &rpcErrorData{Kind: tool.KindInvalidArgument},
		}
	}

	res := h.dispatcher.Invoke(r.Context(), tool.InvocationRequest{Tool: name, Arguments: args})
	if res.IsError() {
		return nil, &rpcError{
			Code:    rpcCodeForKind(res.Err.Kind),
			Message: res.Err.Error(),
			Data:    &rpcErrorData{Kind: res.Err.Kind},
		}
	}
	return res.Value, nil
}

func rpcCodeForKind(kind tool.ErrorKind) int {
	switch kind {
	case tool.KindNotFound:
		return rpcCodeMethodNotFound
	case tool.KindMissingArgument, tool.KindInvalidArgument:
		return rpcCodeInvalidParams
	default:
		return rpcCodeToolError
	}
}

func isNotification(id json.RawMessage) bool {
	return len(id) == 0
}

func writeRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string) {
	if id == nil {
		id = json.RawMessage("null")
	}
	writeRPC(w, rpcResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &rpcError{Code: code, Message: message},
	})
}

// writeRPC answers with an internal error for the same id when resp cannot
// be encoded, so the reply is always a JSON-RPC response.
func writeRPC(w http.ResponseWriter, resp rpcResponse) {
	if _, err := json.Marshal(resp); err != nil {
		resp = rpcResponse{
			JSONRPC: jsonRPCVersion,
			ID:      resp.ID,
			Error:   &rpcError{Code: rpcCodeInternalError, Message: "failed to encode response"},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
