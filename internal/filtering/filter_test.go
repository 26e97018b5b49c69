package filtering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/internal/config"
	"github.com/stacklok/toolhive-content-sync/internal/content"
)

func TestTypeFilter_ShouldInclude(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		pkgType  string
		include  []string
		exclude  []string
		expected bool
	}{
		{name: "no filters", pkgType: "rpm", expected: true},
		{name: "include match", pkgType: "rpm", include: []string{"rpm"}, expected: true},
		{name: "case insensitive", pkgType: "RPM", include: []string{"rpm"}, expected: true},
		{name: "include no match", pkgType: "deb", include: []string{"rpm"}, expected: false},
		{name: "exclude match", pkgType: "srpm", exclude: []string{"srpm"}, expected: false},
		{name: "exclude wins", pkgType: "rpm", include: []string{"rpm"}, exclude: []string{"rpm"}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, reason := NewTypeFilter(tt.include, tt.exclude).ShouldInclude(tt.pkgType)
			assert.Equal(t, tt.expected, got, reason)
		})
	}
}

func TestNewPackageFilter(t *testing.T) {
	t.Parallel()

	t.Run("no rules", func(t *testing.T) {
		t.Parallel()

		for _, cfg := range []*config.FilterConfig{nil, {}, {Names: &config.RuleConfig{}}} {
			filter, err := NewPackageFilter(cfg)
			require.NoError(t, err)
			assert.Nil(t, filter)

			ok, _ := filter.ShouldInclude(content.PackageIdentity{Name: "bash", Type: "rpm"})
			assert.True(t, ok)
		}
	})

	t.Run("names and types", func(t *testing.T) {
		t.Parallel()

		filter, err := NewPackageFilter(&config.FilterConfig{
			Names: &config.RuleConfig{Exclude: []string{"*-debuginfo"}},
			Types: &config.RuleConfig{Include: []string{"rpm"}},
		})
		require.NoError(t, err)
		require.NotNil(t, filter)

		tests := []struct {
			id       content.PackageIdentity
			expected bool
		}{
			{id: content.PackageIdentity{Name: "bash", Version: "5.2", Type: "rpm"}, expected: true},
			{id: content.PackageIdentity{Name: "bash-debuginfo", Version: "5.2", Type: "rpm"}, expected: false},
			{id: content.PackageIdentity{Name: "bash", Version: "5.2", Type: "deb"}, expected: false},
		}
		for _, tt := range tests {
			got, reason := filter.ShouldInclude(tt.id)
			assert.Equal(t, tt.expected, got, "%s: %s", tt.id, reason)
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()

		_, err := NewPackageFilter(&config.FilterConfig{Names: &config.RuleConfig{Include: []string{"[a-"}}})
		require.Error(t, err)
	})
}
