// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"net/http"
)

type chatRequest struct {
	DeviceID string `json:"device_id"`
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

type chatResponse struct {
	DeviceID string `json:"device_id,omitempty"`
	Reply    string `json:"reply"`
}

// handleChat handles POST /v1/chat
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		h.writeError(w, http.StatusServiceUnavailable, "not_configured", "No language model configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse chat request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}
	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Message is required")
		return
	}

	conn := h.connFor(r.Context(), req.DeviceID, req.Language)
	reply, err := h.assistant.Reply(r.Context(), conn, req.Message)
	if err != nil {
		h.logger.Error("Chat failed", "device_id", req.DeviceID, "error", err)
		h.writeError(w, http.StatusBadGateway, "backend_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{DeviceID: req.DeviceID, Reply: reply})
}
