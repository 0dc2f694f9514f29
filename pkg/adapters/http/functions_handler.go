// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"

	"github.com/openai/openai-go/shared"
)

type listFunctionsResponse struct {
	Object string                           `json:"object"`
	Data   []shared.FunctionDefinitionParam `json:"data"`
}

// handleListFunctions handles GET /v1/functions
func (h *Handler) handleListFunctions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listFunctionsResponse{
		Object: "list",
		Data:   h.functions.Definitions(),
	})
}

type callFunctionRequest struct {
	DeviceID  string          `json:"device_id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
	Language  string          `json:"language,omitempty"`
}

// handleCallFunction handles POST /v1/functions/call. The function's
// directive is returned as-is, including not_found for unknown names.
func (h *Handler) handleCallFunction(w http.ResponseWriter, r *http.Request) {
	var req callFunctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse function call request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Name is required")
		return
	}

	conn := h.connFor(r.Context(), req.DeviceID, req.Language)
	resp := h.functions.Call(r.Context(), conn, req.Name, req.Arguments)

	h.logger.Info("Function called",
		"name", req.Name,
		"device_id", req.DeviceID,
		"action", resp.Action.String())

	writeJSON(w, http.StatusOK, resp)
}
