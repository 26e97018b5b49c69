package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNameFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pkg      string
		include  []string
		exclude  []string
		expected bool
	}{
		{name: "no patterns", pkg: "bash", expected: true},
		{name: "include match", pkg: "python3-requests", include: []string{"python3-*"}, expected: true},
		{name: "include no match", pkg: "perl-DBI", include: []string{"python3-*"}, expected: false},
		{name: "exclude match", pkg: "kernel-debuginfo", exclude: []string{"*-debuginfo"}, expected: false},
		{name: "exclude no match", pkg: "kernel", exclude: []string{"*-debuginfo"}, expected: true},
		{
			name:     "exclude takes precedence",
			pkg:      "python3-debuginfo",
			include:  []string{"python3-*"},
			exclude:  []string{"*-debuginfo"},
			expected: false,
		},
		{name: "star matches across slashes", pkg: "tools/linters/jq", include: []string{"tools/*"}, expected: true},
		{name: "single character wildcard", pkg: "db1", include: []string{"db?"}, expected: true},
		{name: "character class", pkg: "server4", include: []string{"server[1-3]"}, expected: false},
		{name: "any of several includes", pkg: "zsh", include: []string{"bash", "zsh"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter, err := NewNameFilter(tt.include, tt.exclude)
			require.NoError(t, err)

			got, reason := filter.ShouldInclude(tt.pkg)
			assert.Equal(t, tt.expected, got, reason)
			assert.NotEmpty(t, reason)
		})
	}
}

func TestNewNameFilter_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewNameFilter([]string{"[unclosed"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid include pattern")

	_, err = NewNameFilter(nil, []string{""})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid exclude pattern")
}
