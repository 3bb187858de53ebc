package extras

// FilterExcludedBuckets removes every candidate that lies inside one of the excluded buckets.
// Matching is by whole components, so "target" never removes "targeted/file".
func FilterExcludedBuckets(candidates []string, excludedBuckets []string) []string {
	excludedPrefixes := make([][]string, 0, len(excludedBuckets))
	for _, excludedBucket := range excludedBuckets {
		rule, valid := ParseSkipRule(excludedBucket)
		if !valid {
			continue
		}
		excludedPrefixes = append(excludedPrefixes, rule)
	}

	filtered := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if !isExcluded(splitComponents(candidate), excludedPrefixes) {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}

func isExcluded(components []string, excludedPrefixes [][]string) bool {
	for _, excludedPrefix := range excludedPrefixes {
		if hasComponentPrefix(components, excludedPrefix) {
			return true
		}
	}
	return false
}
