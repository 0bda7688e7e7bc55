package agent

import "strings"

// designKeywords are matched as substrings of the lower-cased tool name.
var designKeywords = []string{"search", "find", "get", "overview", "fact", "sheet"}

// FilterDesignTools keeps the tools relevant to design-standard lookups.
// When nothing matches the input is returned unchanged so the agent never
// ends up with zero tools.
func FilterDesignTools(tools ToolSet) ToolSet {
	kept := make(ToolSet, 0, len(tools))
	for _, t := range tools {
		if isDesignTool(DescribeTool(t).Name) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return tools
	}
	return kept
}

func isDesignTool(name string) bool {
	name = strings.ToLower(name)
	for _, k := range designKeywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}
