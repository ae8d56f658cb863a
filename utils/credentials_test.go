package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivePassword(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  string
	}{
		{"simple state", "Odisha", "odisha@itka2020"},
		{"mixed case", "KERALA", "kerala@itka2020"},
		{"multi-word state collapses", "Tamil Nadu", "tamilnadu@itka2020"},
		{"surrounding whitespace", "  Odisha  ", "odisha@itka2020"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DerivePassword(tt.state))
		})
	}
}

func TestDerivePasswordIsDeterministic(t *testing.T) {
	assert.Equal(t, DerivePassword("Odisha"), DerivePassword("odisha"))
}

func TestNewPlayerCode(t *testing.T) {
	format := regexp.MustCompile(`^ITKA\d{10}$`)
	for i := 0; i < 100; i++ {
		code := NewPlayerCode()
		assert.Regexp(t, format, code)
	}
}

func TestCanonicalRegion(t *testing.T) {
	assert.Equal(t, "Odisha", CanonicalRegion("  odisha "))
	assert.Equal(t, "Tamil Nadu", CanonicalRegion("tamil   nadu"))
	assert.Equal(t, "", CanonicalRegion("   "))
}
