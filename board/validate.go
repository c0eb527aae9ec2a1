package board

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// BlockedKeywords are wholesale-related terms that may not appear in a
// question. Matching is case-insensitive.
var BlockedKeywords = []string{"도매", "대량", "wholesale", "bulk order", "bulk purchase"}

// fold trims and lower-cases s for case-insensitive comparison. Lower
// casing, not full case folding: "straße" and "STRASSE" stay distinct.
// A Caser keeps state, so each call gets its own.
func fold(s string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(s))
}

// ValidateQuestion checks a draft against the existing posts. categories,
// when non-empty, is the current taxonomy the category must belong to.
func ValidateQuestion(d Draft, existing []Post, categories []string) error {
	if strings.TrimSpace(d.From) == "" {
		return &ValidationError{Field: fieldFrom, Reason: ReasonRequired}
	}
	if strings.TrimSpace(d.Question) == "" {
		return &ValidationError{Field: fieldQuestion, Reason: ReasonRequired}
	}
	if len(categories) > 0 && !containsFold(categories, d.Category) {
		return &ValidationError{Field: fieldCategory, Reason: ReasonCategory}
	}
	if IsDuplicate(d.Question, existing) {
		return &ValidationError{Field: fieldQuestion, Reason: ReasonDuplicate}
	}
	if ContainsBlockedKeyword(d.Question) {
		return &ValidationError{Field: fieldQuestion, Reason: ReasonBlocked}
	}
	return nil
}

// IsDuplicate reports whether question matches an existing question after
// trimming and lower-casing.
func IsDuplicate(question string, existing []Post) bool {
	q := fold(question)
	for _, p := range existing {
		if fold(p.Question) == q {
			return true
		}
	}
	return false
}

// ContainsBlockedKeyword reports whether text contains any BlockedKeywords
// entry as a case-insensitive substring.
func ContainsBlockedKeyword(text string) bool {
	t := fold(text)
	for _, kw := range BlockedKeywords {
		if strings.Contains(t, fold(kw)) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	f := fold(s)
	for _, v := range list {
		if fold(v) == f {
			return true
		}
	}
	return false
}
