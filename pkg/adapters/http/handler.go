// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package http exposes the function registry, the assistant driver and the
// device profile store over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/voxkit/websearch/pkg/core/config"
	"github.com/voxkit/websearch/pkg/functions"
	"github.com/voxkit/websearch/pkg/observability/logging"
	"github.com/voxkit/websearch/pkg/profiles"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// Assistant answers a user message, calling functions as needed.
type Assistant interface {
	Reply(ctx context.Context, conn *functions.Conn, text string) (string, error)
}

// Handler implements the HTTP adapter
type Handler struct {
	cfg       *config.Config
	functions *functions.Registry
	assistant Assistant
	profiles  profiles.Store
	logger    *logging.Logger
	mux       *http.ServeMux
}

// New creates a new HTTP handler. assistant may be nil, in which case the
// chat endpoint answers 503.
func New(cfg *config.Config, fns *functions.Registry, assistant Assistant, store profiles.Store, logger *logging.Logger) *Handler {
	h := &Handler{
		cfg:       cfg,
		functions: fns,
		assistant: assistant,
		profiles:  store,
		logger:    logger,
		mux:       http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /openapi.json", h.handleOpenAPI)

	// Functions API
	h.mux.HandleFunc("GET /v1/functions", h.handleListFunctions)
	h.mux.HandleFunc("POST /v1/functions/call", h.handleCallFunction)

	// Chat API
	h.mux.HandleFunc("POST /v1/chat", h.handleChat)

	// Devices API
	h.mux.HandleFunc("GET /v1/devices", h.handleListDevices)
	h.mux.HandleFunc("GET /v1/devices/{id}", h.handleGetDevice)
	h.mux.HandleFunc("PUT /v1/devices/{id}", h.handlePutDevice)
	h.mux.HandleFunc("DELETE /v1/devices/{id}", h.handleDeleteDevice)

	return h
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set(RequestIDHeader, requestID)

	h.logger.Info("Request",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"request_id", requestID)

	h.mux.ServeHTTP(w, r)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// connFor builds the function context for a device: server config first,
// then the device profile, then an explicit per-request language.
func (h *Handler) connFor(ctx context.Context, deviceID, language string) *functions.Conn {
	conn := functions.NewConn(deviceID, h.cfg)

	if deviceID != "" && h.profiles != nil {
		p, err := h.profiles.Get(ctx, deviceID)
		switch {
		case err == nil:
			if p.Engine != "" {
				conn.Plugins.WebSearch.Engine = p.Engine
			}
			if p.Language != "" {
				conn.Language = p.Language
			}
		case errors.Is(err, profiles.ErrNotFound):
		default:
			h.logger.Warn("Failed to load device profile", "device_id", deviceID, "error", err)
		}
	}

	if language != "" {
		conn.Language = language
	}
	return conn
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"type":    errType,
			"message": message,
		},
	})
}
