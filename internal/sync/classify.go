package sync

import "strings"

// RecordKind is the local entity kind a roster entry becomes.
type RecordKind string

const (
	KindCrew  RecordKind = "crew"
	KindStaff RecordKind = "staff"
)

// ClassifyRule maps a display-name substring to a record kind. Rules are an
// ordered table rather than inline vocabulary so the rule set is testable on
// its own.
type ClassifyRule struct {
	Tag  string
	Kind RecordKind
}

// defaultClassifyRules is the group-indicating vocabulary. A roster entry
// whose display name contains any of these (case-insensitive) is a crew.
var defaultClassifyRules = []ClassifyRule{
	{Tag: "crew", Kind: KindCrew},
	{Tag: "squad", Kind: KindCrew},
	{Tag: "team", Kind: KindCrew},
	{Tag: "group", Kind: KindCrew},
	{Tag: "unit", Kind: KindCrew},
}

// Classifier decides whether an untyped roster entry is a crew or an
// individual staff member.
type Classifier struct {
	rules []ClassifyRule
}

// NewClassifier creates a Classifier with the default rule table.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultClassifyRules}
}

// NewClassifierWithRules creates a Classifier with a custom rule table.
func NewClassifierWithRules(rules []ClassifyRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify applies the rule table to a display name. A person whose name
// happens to contain a vocabulary word is misclassified as a crew; that is a
// documented limitation of the heuristic, which only applies when the source
// supplies no explicit type (see ClassifyEntry).
func (c *Classifier) Classify(displayName string) RecordKind {
	lower := strings.ToLower(displayName)
	for _, rule := range c.rules {
		if strings.Contains(lower, rule.Tag) {
			return rule.Kind
		}
	}
	return KindStaff
}

// ClassifyEntry resolves a roster entry's kind. An explicit source-side type
// wins; the name heuristic is the fallback for untyped payloads.
func (c *Classifier) ClassifyEntry(sourceType, displayName string) RecordKind {
	switch strings.ToUpper(strings.TrimSpace(sourceType)) {
	case "CREW", "GROUP", "TEAM":
		return KindCrew
	case "STAFF", "PERSON":
		return KindStaff
	}
	return c.Classify(displayName)
}
