// Package sync implements the external-system reconciliation engine:
// identity matching, classification, field mapping, upsert reconciliation,
// and the batch pager that drives them.
package sync

import "strings"

// phoneMatchDigits is the number of trailing digits two phone numbers must
// share to be considered the same line. Source formats vary (punctuation,
// country codes, extensions), so comparison always happens on this suffix.
const phoneMatchDigits = 10

// NormalizePhone strips non-digit characters and keeps the last 10 digits.
// The operation is idempotent. Results shorter than 10 digits are returned
// as-is but are unmatchable (see MatchablePhone).
func NormalizePhone(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > phoneMatchDigits {
		return digits[len(digits)-phoneMatchDigits:]
	}
	return digits
}

// MatchablePhone reports whether a normalized phone number carries enough
// digits to identify a line. Short fragments must never produce a match.
func MatchablePhone(normalized string) bool {
	return len(normalized) == phoneMatchDigits
}
