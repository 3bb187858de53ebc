package extras

import "sort"

// SkipChoice is one flagged bucket presented to the operator.
type SkipChoice struct {
	Bucket string
	Count  int
	Skip   bool
	Locked bool
}

// SkipDecision holds the operator's per-bucket choices for one pipeline run.
type SkipDecision struct {
	choices []SkipChoice
	cursor  int
	persist bool
}

// NewSkipDecision creates one skipped choice per flagged bucket. A choice is locked when
// the trailing components of its bucket equal one of the configured rules.
func NewSkipDecision(plan BucketPlan, configuredRules []SkipRule) *SkipDecision {
	choices := make([]SkipChoice, 0, len(plan.Flagged))
	for _, flaggedBucket := range plan.Flagged {
		choices = append(choices, SkipChoice{
			Bucket: flaggedBucket.Bucket,
			Count:  flaggedBucket.Count,
			Skip:   true,
			Locked: matchesConfiguredRule(flaggedBucket.Bucket, configuredRules),
		})
	}
	return &SkipDecision{choices: choices}
}

func matchesConfiguredRule(bucket string, configuredRules []SkipRule) bool {
	bucketComponents := splitComponents(bucket)
	for _, rule := range configuredRules {
		if len(rule) == 0 || len(rule) > len(bucketComponents) {
			continue
		}
		if hasComponentPrefix(bucketComponents[len(bucketComponents)-len(rule):], rule) {
			return true
		}
	}
	return false
}

// Choices returns a copy of the current choices.
func (decision *SkipDecision) Choices() []SkipChoice {
	return append([]SkipChoice(nil), decision.choices...)
}

// Len returns the number of choices.
func (decision *SkipDecision) Len() int {
	return len(decision.choices)
}

// Cursor returns the index of the highlighted choice.
func (decision *SkipDecision) Cursor() int {
	return decision.cursor
}

// MoveUp moves the cursor to the previous choice.
func (decision *SkipDecision) MoveUp() {
	if decision.cursor > 0 {
		decision.cursor--
	}
}

// MoveDown moves the cursor to the next choice.
func (decision *SkipDecision) MoveDown() {
	if decision.cursor < len(decision.choices)-1 {
		decision.cursor++
	}
}

// Toggle flips the skip flag of the choice at index. Locked choices and out-of-range indexes are left untouched.
func (decision *SkipDecision) Toggle(index int) bool {
	if index < 0 || index >= len(decision.choices) || decision.choices[index].Locked {
		return false
	}
	decision.choices[index].Skip = !decision.choices[index].Skip
	return true
}

// ToggleCurrent flips the highlighted choice.
func (decision *SkipDecision) ToggleCurrent() bool {
	return decision.Toggle(decision.cursor)
}

// Persist reports whether the skipped buckets should be saved as configured rules.
func (decision *SkipDecision) Persist() bool {
	return decision.persist
}

// TogglePersist flips the persist flag.
func (decision *SkipDecision) TogglePersist() {
	decision.persist = !decision.persist
}

// SetPersist sets the persist flag.
func (decision *SkipDecision) SetPersist(persist bool) {
	decision.persist = persist
}

// SkipAll marks every choice as skipped.
func (decision *SkipDecision) SkipAll() {
	for index := range decision.choices {
		decision.choices[index].Skip = true
	}
}

// KeepAll clears the skip flag of every unlocked choice.
func (decision *SkipDecision) KeepAll() {
	for index := range decision.choices {
		if !decision.choices[index].Locked {
			decision.choices[index].Skip = false
		}
	}
}

// SkippedBuckets returns the buckets currently marked to skip, in plan order.
func (decision *SkipDecision) SkippedBuckets() []string {
	var skipped []string
	for _, choice := range decision.choices {
		if choice.Skip {
			skipped = append(skipped, choice.Bucket)
		}
	}
	return skipped
}

// PersistSet returns the sorted union of the configured rules and the skipped buckets.
func (decision *SkipDecision) PersistSet(configuredRules []SkipRule) []string {
	union := make(map[string]struct{}, len(configuredRules)+len(decision.choices))
	for _, rule := range configuredRules {
		union[rule.String()] = struct{}{}
	}
	for _, bucket := range decision.SkippedBuckets() {
		union[bucket] = struct{}{}
	}
	patterns := make([]string, 0, len(union))
	for pattern := range union {
		patterns = append(patterns, pattern)
	}
	sort.Strings(patterns)
	return patterns
}
