package server

import (
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
)

// operation describes one documented route.
type operation struct {
	method    string
	path      string
	summary   string
	body      bool
	pathID    bool
	responses map[string]string
}

var documentedRoutes = []operation{
	{method: "get", path: "/", summary: "Main screen", responses: map[string]string{"200": "Welcome message"}},
	{method: "get", path: "/health", summary: "Health Check", responses: map[string]string{"200": "Service is healthy"}},
	{method: "get", path: "/tools", summary: "List all DevOps tools", responses: map[string]string{"200": "All tools"}},
	{method: "post", path: "/tools", summary: "Create a new DevOps tool", body: true,
		responses: map[string]string{"200": "Created tool with its ID", "422": "Validation Error"}},
	{method: "get", path: "/tools/{tool_id}", summary: "Get a DevOps tool by ID", pathID: true,
		responses: map[string]string{"200": "The tool", "404": "Tool not found", "422": "Validation Error"}},
	{method: "put", path: "/tools/{tool_id}", summary: "Update an existing DevOps tool", pathID: true, body: true,
		responses: map[string]string{"200": "Updated tool", "404": "Tool not found", "422": "Validation Error"}},
	{method: "delete", path: "/tools/{tool_id}", summary: "Delete a DevOps tool", pathID: true,
		responses: map[string]string{"200": "Deletion confirmation", "404": "Tool not found", "422": "Validation Error"}},
}

// openAPIDocument builds an OpenAPI 3.1 description of the API.
func (s *Server) openAPIDocument() map[string]any {
	paths := make(map[string]map[string]any)
	for _, op := range documentedRoutes {
		item, ok := paths[op.path]
		if !ok {
			item = make(map[string]any)
			paths[op.path] = item
		}

		responses := make(map[string]any, len(op.responses))
		for code, desc := range op.responses {
			responses[code] = map[string]any{"description": desc}
		}
		entry := map[string]any{
			"summary":   op.summary,
			"responses": responses,
		}
		if op.pathID {
			entry["parameters"] = []map[string]any{{
				"name":     "tool_id",
				"in":       "path",
				"required": true,
				"schema":   &jsonschema.Schema{Type: "integer"},
			}}
		}
		if op.body {
			entry["requestBody"] = map[string]any{
				"required": true,
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]string{"$ref": "#/components/schemas/DevOpsTool"},
					},
				},
			}
		}
		item[op.method] = entry
	}

	return map[string]any{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":   "DevOps Tools API",
			"version": s.opts.Version,
		},
		"paths": paths,
		"components": map[string]any{
			"schemas": map[string]any{
				"DevOpsTool": s.validator.Schema(),
			},
		},
	}
}

func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.openAPIDocument())
}
