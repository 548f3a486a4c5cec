// Package tools exposes the DevOps tool catalog as MCP tools. Tools are
// defined declaratively and bound to typed handlers at registration.
package tools

// ToolSpec defines a tool's metadata for declarative registration.
// Each spec maps to a HandlerRegistry method with matching Args/Result types.
type ToolSpec struct {
	// Name is the MCP tool name (e.g., "devops_get_tool")
	Name string

	// Method is the handler method name (e.g., "GetTool")
	Method string

	// Description is the tool description shown to LLMs
	Description string

	// Title is the human-readable tool title for annotations
	Title string

	// Category groups tools logically (read, write)
	Category string

	// ReadOnly indicates the tool doesn't modify the catalog
	ReadOnly bool

	// Destructive indicates the tool can delete or overwrite data
	Destructive bool

	// Idempotent indicates repeated calls have the same effect
	Idempotent bool
}

// ptr is a helper to create a pointer to a value.
func ptr[T any](v T) *T {
	return &v
}
