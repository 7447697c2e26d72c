package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"abc", "abc", 0},
		{"usernme", "username", 1},
		{"log_lvl", "log_level", 2},
		{"kitten", "sitting", 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestClosestMatch(t *testing.T) {
	known := []string{"auth.username", "auth.password", "logging.log_level"}

	assert.Equal(t, "auth.username", closestMatch("auth.usernme", known))
	assert.Equal(t, "", closestMatch("transfers.chunk_size", known))
}
