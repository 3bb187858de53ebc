package extras

import (
	"sort"
	"strings"
)

// SkipRule is a sequence of directory components, such as ["vendor", "bundle"], that flags a bucket.
type SkipRule []string

// ParseSkipRule converts a "vendor/bundle" style pattern into a rule. Blank patterns yield false.
func ParseSkipRule(pattern string) (SkipRule, bool) {
	var components []string
	for _, component := range strings.Split(strings.TrimSpace(pattern), pathSeparator) {
		trimmedComponent := strings.TrimSpace(component)
		if trimmedComponent == "" || trimmedComponent == currentDirectory {
			continue
		}
		components = append(components, trimmedComponent)
	}
	if len(components) == 0 {
		return nil, false
	}
	return SkipRule(components), true
}

// ParseSkipRules parses patterns, dropping blanks and duplicates while preserving order.
func ParseSkipRules(patterns []string) []SkipRule {
	seenPatterns := make(map[string]struct{}, len(patterns))
	rules := make([]SkipRule, 0, len(patterns))
	for _, pattern := range patterns {
		rule, valid := ParseSkipRule(pattern)
		if !valid {
			continue
		}
		key := rule.String()
		if _, seen := seenPatterns[key]; seen {
			continue
		}
		seenPatterns[key] = struct{}{}
		rules = append(rules, rule)
	}
	return rules
}

// String returns the slash-joined pattern.
func (rule SkipRule) String() string {
	return joinComponents(rule)
}

// FlaggedBucket is a directory key flagged by a skip rule and the number of candidates inside it.
type FlaggedBucket struct {
	Bucket string `json:"bucket" xml:"bucket,attr"`
	Count  int    `json:"count" xml:"count,attr"`
}

// BucketPlan lists flagged buckets ordered by key.
type BucketPlan struct {
	Flagged []FlaggedBucket `json:"flagged" xml:"bucket"`
}

// IsEmpty reports whether no rule matched any candidate.
func (plan BucketPlan) IsEmpty() bool {
	return len(plan.Flagged) == 0
}

// Buckets returns the flagged bucket keys in plan order.
func (plan BucketPlan) Buckets() []string {
	buckets := make([]string, 0, len(plan.Flagged))
	for _, flaggedBucket := range plan.Flagged {
		buckets = append(buckets, flaggedBucket.Bucket)
	}
	return buckets
}

// ClassifyBuckets groups candidates under the directory prefix matched by the best rule.
// The best rule is the one matching earliest in the directory components; ties prefer the longer rule.
func ClassifyBuckets(candidates []string, rules []SkipRule) BucketPlan {
	bucketCounts := make(map[string]int)
	for _, candidate := range candidates {
		components := splitComponents(candidate)
		if len(components) < 2 {
			continue
		}
		directoryComponents := components[:len(components)-1]

		bestStart := -1
		bestLength := 0
		for _, rule := range rules {
			matchStart := earliestMatch(directoryComponents, rule)
			if matchStart < 0 {
				continue
			}
			if bestStart < 0 || matchStart < bestStart || (matchStart == bestStart && len(rule) > bestLength) {
				bestStart = matchStart
				bestLength = len(rule)
			}
		}
		if bestStart < 0 {
			continue
		}
		bucketCounts[joinComponents(directoryComponents[:bestStart+bestLength])]++
	}

	plan := BucketPlan{Flagged: make([]FlaggedBucket, 0, len(bucketCounts))}
	for bucket, count := range bucketCounts {
		plan.Flagged = append(plan.Flagged, FlaggedBucket{Bucket: bucket, Count: count})
	}
	sort.Slice(plan.Flagged, func(left, right int) bool {
		return plan.Flagged[left].Bucket < plan.Flagged[right].Bucket
	})
	return plan
}

func earliestMatch(directoryComponents []string, rule SkipRule) int {
	if len(rule) == 0 || len(rule) > len(directoryComponents) {
		return -1
	}
	for start := 0; start+len(rule) <= len(directoryComponents); start++ {
		if hasComponentPrefix(directoryComponents[start:], rule) {
			return start
		}
	}
	return -1
}
