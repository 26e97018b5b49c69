package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"slices"
	"sync"

	"github.com/opencontainers/go-digest"

	"github.com/stacklok/toolhive-content-sync/internal/content"
)

type memoryPackage struct {
	desc content.PackageDescriptor
	data []byte
}

// MemoryProvider serves a programmable in-memory catalog. It backs the
// memory provider type and doubles as a test provider with failure
// injection and call counters.
type MemoryProvider struct {
	name string

	mu          sync.Mutex
	packages    []memoryPackage
	listErr     error
	listGate    <-chan struct{}
	contentErrs map[content.PackageIdentity][]error
	listCalls   int
	openCalls   map[content.PackageIdentity]int
}

var _ Provider = (*MemoryProvider)(nil)

// NewMemoryProvider creates an empty memory provider
func NewMemoryProvider(name string) *MemoryProvider {
	return &MemoryProvider{
		name:        name,
		contentErrs: make(map[content.PackageIdentity][]error),
		openCalls:   make(map[content.PackageIdentity]int),
	}
}

// Name implements Provider
func (m *MemoryProvider) Name() string {
	return m.name
}

// Type implements Provider
func (*MemoryProvider) Type() string {
	return "memory"
}

// AddPackage publishes data under id with its declared size and sha256 digest.
func (m *MemoryProvider) AddPackage(id content.PackageIdentity, data []byte) content.PackageDescriptor {
	desc := content.PackageDescriptor{
		PackageIdentity: id,
		Location:        id.Key(),
		DeclaredSize:    int64(len(data)),
		Checksum:        digest.FromBytes(data).String(),
	}
	m.Put(desc, data)
	return desc
}

// Put publishes a descriptor verbatim, replacing any package with the same identity.
func (m *MemoryProvider) Put(desc content.PackageDescriptor, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pkg := memoryPackage{desc: desc, data: slices.Clone(data)}
	for i := range m.packages {
		if m.packages[i].desc.PackageIdentity == desc.PackageIdentity {
			m.packages[i] = pkg
			return
		}
	}
	m.packages = append(m.packages, pkg)
}

// Remove unpublishes id
func (m *MemoryProvider) Remove(id content.PackageIdentity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.packages = slices.DeleteFunc(m.packages, func(p memoryPackage) bool {
		return p.desc.PackageIdentity == id
	})
}

// FailListing makes every listing fail with err until called with nil
func (m *MemoryProvider) FailListing(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// GateListing blocks listings until gate is closed or the context ends
func (m *MemoryProvider) GateListing(gate <-chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listGate = gate
}

// FailContent queues errors returned by successive opens of id; once the
// queue is drained opens succeed again.
func (m *MemoryProvider) FailContent(id content.PackageIdentity, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contentErrs[id] = append(m.contentErrs[id], errs...)
}

// ListCalls returns how many listings were started
func (m *MemoryProvider) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// OpenCalls returns how many times the content of id was opened
func (m *MemoryProvider) OpenCalls(id content.PackageIdentity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCalls[id]
}

// TotalOpenCalls returns how many content streams were opened
func (m *MemoryProvider) TotalOpenCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for _, n := range m.openCalls {
		total += n
	}
	return total
}

// ListPackages implements Provider
func (m *MemoryProvider) ListPackages(ctx context.Context) iter.Seq2[content.PackageDescriptor, error] {
	return func(yield func(content.PackageDescriptor, error) bool) {
		m.mu.Lock()
		m.listCalls++
		gate := m.listGate
		listErr := m.listErr
		snapshot := make([]content.PackageDescriptor, len(m.packages))
		for i, p := range m.packages {
			snapshot[i] = p.desc
		}
		m.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-ctx.Done():
				yield(content.PackageDescriptor{}, Unavailable(m.name, ctx.Err()))
				return
			}
		}

		if listErr != nil {
			yield(content.PackageDescriptor{}, listErr)
			return
		}

		for _, desc := range snapshot {
			if !yield(desc, nil) {
				return
			}
		}
	}
}

// OpenContent implements Provider
func (m *MemoryProvider) OpenContent(_ context.Context, desc content.PackageDescriptor) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := desc.PackageIdentity
	m.openCalls[id]++

	if queued := m.contentErrs[id]; len(queued) > 0 {
		m.contentErrs[id] = queued[1:]
		return nil, queued[0]
	}

	for _, p := range m.packages {
		if p.desc.PackageIdentity == id {
			return io.NopCloser(bytes.NewReader(p.data)), nil
		}
	}
	return nil, NotFound(m.name, fmt.Errorf("package %s", id.Key()))
}
