package providers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

func newIndexServer(t *testing.T, status int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/repo/index.json", func(w http.ResponseWriter, _ *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write([]byte(`{"packages":[
			{"name":"app","version":"1","type":"generic","path":"files/app-1.bin","size":4},
			{"name":"app","version":"2","type":"generic","path":"files/app-2.bin"},
			{"name":"app","version":"3","type":"generic","path":"files/app-3.bin"},
			{"name":"app","version":"4","type":"generic","path":"files/app-4.bin"}
		]}`))
	})
	mux.HandleFunc("/repo/files/app-1.bin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("data"))
	})
	mux.HandleFunc("/repo/files/app-3.bin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/repo/files/app-4.bin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPProvider(t *testing.T) {
	t.Parallel()

	server := newIndexServer(t, http.StatusOK)
	p, err := NewHTTPProvider("mirror", server.URL+"/repo", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "http", p.Type())

	descs, err := Collect(t.Context(), p)
	require.NoError(t, err)
	require.Len(t, descs, 4)

	r, err := p.OpenContent(t.Context(), descs[0])
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "data", string(data))

	tests := []struct {
		name string
		desc content.PackageDescriptor
		want error
	}{
		{name: "404 is not found", desc: descs[1], want: ErrContentNotFound},
		{name: "503 is unavailable", desc: descs[2], want: ErrProviderUnavailable},
		{name: "403 is protocol", desc: descs[3], want: ErrProviderProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := p.OpenContent(t.Context(), tt.desc)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPProvider_ListingErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "server error", status: http.StatusInternalServerError, want: ErrProviderUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, want: ErrProviderUnavailable},
		{name: "unauthorized", status: http.StatusUnauthorized, want: ErrProviderProtocol},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := newIndexServer(t, tt.status)
			p, err := NewHTTPProvider("mirror", server.URL+"/repo/", "index.json", nil)
			require.NoError(t, err)

			descs, err := Collect(t.Context(), p)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, descs)
		})
	}
}

func TestNewHTTPProvider_InvalidEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewHTTPProvider("mirror", "ftp://example.com", "", nil)
	require.Error(t, err)

	_, err = NewHTTPProvider("mirror", "://bad", "", nil)
	require.Error(t, err)
}
