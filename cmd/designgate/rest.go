package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/wilhg/designgate/pkg/errmodel"
	"github.com/wilhg/designgate/pkg/gateway"
)

type querier interface {
	Query(ctx context.Context, name, argument string) gateway.Result
}

type operationRequest struct {
	Argument *string `json:"argument"`
}

// buildMux serves the REST surface and, when mcp is non-nil, the streamable
// HTTP MCP endpoint at /mcp.
func buildMux(q querier, mcp http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/operations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"operations": gateway.Operations()})
	})

	mux.HandleFunc("POST /api/operations/{name}", func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		op, ok := gateway.Lookup(name)
		if !ok {
			errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "unknown operation", map[string]any{"operation": name}))
			return
		}
		var req operationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errmodel.WriteHTTP(w, r, errmodel.New(errmodel.CategoryValidation, "invalid_json", "request body must be a JSON object", nil, err))
			return
		}
		if req.Argument == nil {
			errmodel.WriteHTTP(w, r, errmodel.Validation("missing_argument", "argument is required", map[string]any{"argument": op.Argument}))
			return
		}
		writeJSON(w, http.StatusOK, q.Query(r.Context(), op.Name, *req.Argument))
	})

	if mcp != nil {
		mux.Handle("/mcp", mcp)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
