package gateway

import "github.com/wilhg/designgate/pkg/prompt"

// Operation names.
const (
	OpSearchDesignStandards   = "search_design_standards"
	OpGetArchitecturePatterns = "get_architecture_patterns"
	OpGetTechnologyStandards  = "get_technology_standards"
	OpGetSecurityGuidelines   = "get_security_guidelines"
)

// Operation describes one published operation and its single string argument.
type Operation struct {
	Name                string `json:"name"`
	Description         string `json:"description"`
	Argument            string `json:"argument"`
	ArgumentDescription string `json:"argument_description"`
	// Prompt names the query template in the prompt catalog.
	Prompt string `json:"-"`
}

var operations = []Operation{
	{
		Name:                OpSearchDesignStandards,
		Description:         "Search for design standards, best practices, and architectural guidelines from LeanIX.",
		Argument:            "topic",
		ArgumentDescription: "The topic to search for (e.g., 'event driven architecture', 'microservices', 'API security')",
		Prompt:              prompt.SearchDesignStandardsName,
	},
	{
		Name:                OpGetArchitecturePatterns,
		Description:         "Get architectural patterns and design guidelines for a specific architecture style.",
		Argument:            "architecture_type",
		ArgumentDescription: "Architecture type (e.g., 'microservices', 'event-driven', 'serverless')",
		Prompt:              prompt.GetArchitecturePatternsName,
	},
	{
		Name:                OpGetTechnologyStandards,
		Description:         "Get technology standards and guidelines for specific technologies or frameworks.",
		Argument:            "technology",
		ArgumentDescription: "Technology name (e.g., 'Kafka', 'React', 'Kubernetes')",
		Prompt:              prompt.GetTechnologyStandardsName,
	},
	{
		Name:                OpGetSecurityGuidelines,
		Description:         "Get security guidelines, best practices, and standards from LeanIX.",
		Argument:            "security_area",
		ArgumentDescription: "Security area (e.g., 'API security', 'authentication', 'data encryption')",
		Prompt:              prompt.GetSecurityGuidelinesName,
	},
}

// Operations lists the published operations in a fixed order.
func Operations() []Operation {
	return append([]Operation(nil), operations...)
}

// Lookup finds an operation by name.
func Lookup(name string) (Operation, bool) {
	for _, op := range operations {
		if op.Name == name {
			return op, true
		}
	}
	return Operation{}, false
}
