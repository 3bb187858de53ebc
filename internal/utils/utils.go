// Package utils contains general helper functions used across seshmux.
package utils

import "strings"

// Configuration file names.
const (
	// GlobalConfigDirectoryName is the directory under the user's home holding the global configuration.
	GlobalConfigDirectoryName = ".seshmux"
	GlobalConfigFileName      = "config.yaml"
	// LocalConfigFileName is read from the working directory and overrides the global file.
	LocalConfigFileName = ".seshmux.yaml"
)

// CompactRuleList trims whitespace and surrounding slashes from every rule, drops blanks,
// and keeps the first occurrence of each remaining rule.
func CompactRuleList(rules []string) []string {
	encounteredRules := make(map[string]struct{}, len(rules))
	compacted := make([]string, 0, len(rules))
	for _, rule := range rules {
		trimmedRule := strings.Trim(strings.TrimSpace(rule), "/")
		if trimmedRule == "" {
			continue
		}
		if _, exists := encounteredRules[trimmedRule]; exists {
			continue
		}
		encounteredRules[trimmedRule] = struct{}{}
		compacted = append(compacted, trimmedRule)
	}
	return compacted
}
