// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/voxkit/websearch/pkg/profiles"
	"github.com/voxkit/websearch/pkg/websearch"
)

type listDevicesResponse struct {
	Object string              `json:"object"`
	Data   []*profiles.Profile `json:"data"`
}

type putDeviceRequest struct {
	Engine   string `json:"engine,omitempty"`
	Language string `json:"language,omitempty"`
}

// handleListDevices handles GET /v1/devices
func (h *Handler) handleListDevices(w http.ResponseWriter, r *http.Request) {
	list, err := h.profiles.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list devices", "error", err)
		h.writeError(w, http.StatusInternalServerError, "list_error", err.Error())
		return
	}
	if list == nil {
		list = []*profiles.Profile{}
	}
	writeJSON(w, http.StatusOK, listDevicesResponse{Object: "list", Data: list})
}

// handleGetDevice handles GET /v1/devices/{id}
func (h *Handler) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePutDevice handles PUT /v1/devices/{id}
func (h *Handler) handlePutDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req putDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to parse device request", "error", err)
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Failed to parse request body")
		return
	}

	engine := strings.ToLower(strings.TrimSpace(req.Engine))
	if engine != "" && !websearch.IsEngine(engine) {
		h.writeError(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("Unknown engine %q (available: %v)", req.Engine, websearch.Providers.Available()))
		return
	}

	p := &profiles.Profile{DeviceID: id, Engine: engine, Language: req.Language}
	if err := h.profiles.Put(r.Context(), p); err != nil {
		h.logger.Error("Failed to save device profile", "device_id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "update_error", err.Error())
		return
	}

	saved, err := h.profiles.Get(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, id, err)
		return
	}
	h.logger.Info("Device profile saved", "device_id", id, "engine", engine)
	writeJSON(w, http.StatusOK, saved)
}

// handleDeleteDevice handles DELETE /v1/devices/{id}
func (h *Handler) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.profiles.Delete(r.Context(), id); err != nil {
		h.writeStoreError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, profiles.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("Device %s not found", id))
		return
	}
	h.logger.Error("Profile store failed", "device_id", id, "error", err)
	h.writeError(w, http.StatusInternalServerError, "store_error", err.Error())
}
