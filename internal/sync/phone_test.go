package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"(312) 555-0199", "3125550199"},
		{"+1 312 555 0199", "3125550199"},
		{"1-312-555-0199", "3125550199"},
		{"312.555.0199", "3125550199"},
		{"3125550199", "3125550199"},
		{"555-0199", "5550199"},
		{"", ""},
		{"ext. 42", "42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.in), "input %q", tt.in)
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{
		"(312) 555-0199", "+1 312 555 0199", "555-0199", "", "+44 20 7946 0958 x12",
	}
	for _, in := range inputs {
		once := NormalizePhone(in)
		assert.Equal(t, once, NormalizePhone(once), "normalize must be idempotent for %q", in)
	}
}

func TestMatchablePhone(t *testing.T) {
	assert.True(t, MatchablePhone(NormalizePhone("(312) 555-0199")))
	assert.True(t, MatchablePhone(NormalizePhone("+1 312 555 0199")))
	assert.False(t, MatchablePhone(NormalizePhone("555-0199")), "short numbers are unmatchable")
	assert.False(t, MatchablePhone(NormalizePhone("")))
}
