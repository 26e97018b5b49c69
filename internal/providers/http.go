package providers

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/httpclient"
)

// DefaultHTTPIndexPath is the index location used when none is configured
const DefaultHTTPIndexPath = "index.json"

type httpProvider struct {
	name      string
	base      *url.URL
	indexPath string
	client    httpclient.Client
}

// NewHTTPProvider serves packages listed at endpoint/indexPath. Relative
// content locations resolve against the endpoint.
func NewHTTPProvider(name, endpoint, indexPath string, client httpclient.Client) (Provider, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("endpoint %q must use http or https", endpoint)
	}
	// A trailing slash makes relative references resolve below the endpoint path
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	if indexPath == "" {
		indexPath = DefaultHTTPIndexPath
	}
	if client == nil {
		client = httpclient.NewDefaultClient()
	}

	return &httpProvider{name: name, base: base, indexPath: indexPath, client: client}, nil
}

func (p *httpProvider) Name() string {
	return p.name
}

func (*httpProvider) Type() string {
	return "http"
}

func (p *httpProvider) ListPackages(ctx context.Context) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		indexURL, err := p.resolve(p.indexPath)
		if err != nil {
			yield(content.PackageDescriptor{}, Protocol(p.name, err))
			return
		}

		data, err := p.client.Get(ctx, indexURL)
		if err != nil {
			yield(content.PackageDescriptor{}, p.classify(err))
			return
		}

		descs, err := ParseIndex(p.name, data)
		for desc, err := range yieldAll(descs, err) {
			if !yield(desc, err) {
				return
			}
		}
	}
}

func (p *httpProvider) OpenContent(ctx context.Context, desc content.PackageDescriptor) (io.ReadCloser, error) {
	contentURL, err := p.resolve(desc.Location)
	if err != nil {
		return nil, Protocol(p.name, fmt.Errorf("package %s: %w", desc.Key(), err))
	}

	body, _, err := p.client.Open(ctx, contentURL)
	if err != nil {
		return nil, p.classify(fmt.Errorf("package %s: %w", desc.Key(), err))
	}
	return body, nil
}

func (p *httpProvider) resolve(location string) (string, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	return p.base.ResolveReference(ref).String(), nil
}

// classify maps HTTP statuses: 404 is missing content, 408/429/5xx and
// transport errors are transient, any other status is a protocol error.
func (p *httpProvider) classify(err error) error {
	status := httpclient.StatusCode(err)
	switch {
	case status == http.StatusNotFound:
		return NotFound(p.name, err)
	case status == 0:
		return Unavailable(p.name, err)
	case (&httpclient.HTTPError{StatusCode: status}).Temporary():
		return Unavailable(p.name, err)
	default:
		return Protocol(p.name, err)
	}
}
