// Copyright Web Search Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package http

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

var (
	cachedJSON []byte
	jsonOnce   sync.Once
)

// handleOpenAPI serves the embedded OpenAPI document as JSON.
func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOnce.Do(func() {
		var spec interface{}
		if err := yaml.Unmarshal(openAPISpec, &spec); err != nil {
			h.logger.Error("Failed to parse embedded OpenAPI document", "error", err)
			return
		}
		data, err := json.Marshal(convertYAMLToJSON(spec))
		if err != nil {
			h.logger.Error("Failed to marshal OpenAPI document to JSON", "error", err)
			return
		}
		cachedJSON = data
	})

	if cachedJSON == nil {
		h.writeError(w, http.StatusInternalServerError, "spec_error", "Failed to load OpenAPI document")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(cachedJSON)
}

// convertYAMLToJSON walks a yaml.v3 decoded tree so nested values are JSON
// encodable.
func convertYAMLToJSON(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, v := range val {
			result[k] = convertYAMLToJSON(v)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, v := range val {
			result[i] = convertYAMLToJSON(v)
		}
		return result
	default:
		return v
	}
}
