package store

// Tool is a DevOps utility entry.
type Tool struct {
	Name         string  `json:"name" jsonschema:"Tool name"`
	Description  *string `json:"description" jsonschema:"Optional free-text description"`
	Category     string  `json:"category" jsonschema:"Category such as CI/CD or Orchestration"`
	IsOpenSource bool    `json:"is_open_source" jsonschema:"Whether the tool is open source (default false)"`
}

// Record is a stored Tool together with its assigned ID.
type Record struct {
	ID int `json:"id"`
	Tool
}

// StringPtr returns a pointer to s, for building optional descriptions.
func StringPtr(s string) *string {
	return &s
}

// seedTools are loaded into every new Store under IDs 1..3.
var seedTools = []Tool{
	{Name: "Jenkins", Description: StringPtr("Automation server"), Category: "CI/CD"},
	{Name: "Docker", Description: StringPtr("Containerization platform"), Category: "Containerization"},
	{Name: "Kubernetes", Description: StringPtr("Container orchestration"), Category: "Orchestration"},
}
