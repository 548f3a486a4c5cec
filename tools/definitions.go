package tools

// AllTools contains all tool specifications for the DevOps Tools MCP endpoint.
// Tool descriptions follow a structured format for LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// READ TOOLS
	// ==========================================================================
	{
		Name:     "devops_list_tools",
		Method:   "ListTools",
		Title:    "List DevOps Tools",
		Category: "read",
		Description: `List every DevOps tool in the catalog.

USE WHEN: User asks "what tools do we have", "show the catalog", or needs an ID before a get/update/delete.

NOT FOR: Fetching a single known tool (use devops_get_tool instead).

PARAMETERS: none

RETURNS: All tools with id, name, description, category and is_open_source, ordered by id.`,
		ReadOnly:   true,
		Idempotent: true,
	},
	{
		Name:     "devops_get_tool",
		Method:   "GetTool",
		Title:    "Get DevOps Tool",
		Category: "read",
		Description: `Get one DevOps tool by its ID.

USE WHEN: User asks "what is tool 3", "show me the Docker entry" and the ID is known.

NOT FOR: Browsing the catalog (use devops_list_tools instead).

PARAMETERS:
- id: Tool ID (required)

RETURNS: The tool record, or an error if no tool has that ID.`,
		ReadOnly:   true,
		Idempotent: true,
	},

	// ==========================================================================
	// WRITE TOOLS
	// ==========================================================================
	{
		Name:     "devops_create_tool",
		Method:   "CreateTool",
		Title:    "Create DevOps Tool",
		Category: "write",
		Description: `Add a new DevOps tool to the catalog.

USE WHEN: User says "add Terraform to the catalog", "register a new tool".

NOT FOR: Changing an existing entry (use devops_update_tool instead).

PARAMETERS:
- name: Tool name, non-empty (required)
- category: Category such as CI/CD (required)
- description: Free-text description (optional)
- is_open_source: Whether the tool is open source (default false)

RETURNS: The stored tool with its newly assigned id.`,
	},
	{
		Name:     "devops_update_tool",
		Method:   "UpdateTool",
		Title:    "Update DevOps Tool",
		Category: "write",
		Description: `Replace an existing DevOps tool's fields wholesale.

USE WHEN: User says "rename tool 1", "change Docker's category".

NOT FOR: Adding a new tool (use devops_create_tool instead).

PARAMETERS:
- id: Tool ID (required)
- name, category: New values (required)
- description: New description; omitted means none (optional)
- is_open_source: New flag; omitted means false (optional)

RETURNS: The updated tool record, or an error if no tool has that ID.`,
		Destructive: true,
		Idempotent:  true,
	},
	{
		Name:     "devops_delete_tool",
		Method:   "DeleteTool",
		Title:    "Delete DevOps Tool",
		Category: "write",
		Description: `Remove a DevOps tool from the catalog. IDs are never reused.

USE WHEN: User says "delete tool 2", "remove Jenkins from the catalog".

PARAMETERS:
- id: Tool ID (required)

RETURNS: A confirmation message, or an error if no tool has that ID.`,
		Destructive: true,
		Idempotent:  true,
	},
}
