package tools

import "github.com/olgasafonova/devops-tools-api/internal/store"

// ListToolsArgs takes no parameters.
type ListToolsArgs struct{}

// ListToolsResult is the full catalog.
type ListToolsResult struct {
	Tools []ToolResult `json:"tools" jsonschema:"All tools ordered by id"`
	Count int          `json:"count" jsonschema:"Number of tools"`
}

// GetToolArgs selects one tool.
type GetToolArgs struct {
	ID int `json:"id" jsonschema:"Tool ID"`
}

// CreateToolArgs carries the fields of a new tool.
type CreateToolArgs struct {
	Name         string  `json:"name" jsonschema:"Tool name, must not be empty"`
	Description  *string `json:"description,omitempty" jsonschema:"Optional free-text description"`
	Category     string  `json:"category" jsonschema:"Category such as CI/CD or Orchestration"`
	IsOpenSource bool    `json:"is_open_source,omitempty" jsonschema:"Whether the tool is open source (default false)"`
}

// UpdateToolArgs replaces every field of an existing tool.
type UpdateToolArgs struct {
	ID           int     `json:"id" jsonschema:"Tool ID"`
	Name         string  `json:"name" jsonschema:"Tool name, must not be empty"`
	Description  *string `json:"description,omitempty" jsonschema:"Optional free-text description"`
	Category     string  `json:"category" jsonschema:"Category such as CI/CD or Orchestration"`
	IsOpenSource bool    `json:"is_open_source,omitempty" jsonschema:"Whether the tool is open source (default false)"`
}

// DeleteToolArgs selects the tool to remove.
type DeleteToolArgs struct {
	ID int `json:"id" jsonschema:"Tool ID"`
}

// ToolResult is one catalog entry.
type ToolResult struct {
	ID           int     `json:"id" jsonschema:"Tool ID"`
	Name         string  `json:"name" jsonschema:"Tool name"`
	Description  *string `json:"description" jsonschema:"Description, null when unset"`
	Category     string  `json:"category" jsonschema:"Tool category"`
	IsOpenSource bool    `json:"is_open_source" jsonschema:"Whether the tool is open source"`
}

// DeleteToolResult confirms a deletion.
type DeleteToolResult struct {
	ID      int    `json:"id" jsonschema:"ID of the deleted tool"`
	Message string `json:"message" jsonschema:"Confirmation message"`
}

func toResult(rec store.Record) ToolResult {
	return ToolResult{
		ID:           rec.ID,
		Name:         rec.Name,
		Description:  rec.Description,
		Category:     rec.Category,
		IsOpenSource: rec.IsOpenSource,
	}
}
