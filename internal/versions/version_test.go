package versions

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfo(t *testing.T) {
	t.Parallel()

	vcs := func() map[string]string {
		return map[string]string{
			"vcs.revision": "0123456789abcdef",
			"vcs.time":     "2025-03-01T10:00:00Z",
		}
	}

	tests := []struct {
		name      string
		version   string
		commit    string
		buildDate string
		want      Info
	}{
		{
			name:      "release build keeps ldflags values",
			version:   "v1.2.0",
			commit:    "cafebabe",
			buildDate: "2025-01-02T03:04:05Z",
			want: Info{
				Version:   "v1.2.0",
				Commit:    "cafebabe",
				BuildDate: "2025-01-02 03:04:05 UTC",
			},
		},
		{
			name:      "dev build reads vcs settings",
			version:   "dev",
			commit:    unknown,
			buildDate: unknown,
			want: Info{
				Version:   "build-01234567",
				Commit:    "0123456789abcdef",
				BuildDate: "2025-03-01 10:00:00 UTC",
			},
		},
		{
			name:      "unparseable date left as is",
			version:   "v0.1.0",
			commit:    "abc",
			buildDate: "yesterday",
			want: Info{
				Version:   "v0.1.0",
				Commit:    "abc",
				BuildDate: "yesterday",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := buildInfo(tt.version, tt.commit, tt.buildDate, vcs)
			assert.Equal(t, tt.want.Version, got.Version)
			assert.Equal(t, tt.want.Commit, got.Commit)
			assert.Equal(t, tt.want.BuildDate, got.BuildDate)
			assert.Equal(t, runtime.Version(), got.GoVersion)
			assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, got.Platform)
		})
	}
}
