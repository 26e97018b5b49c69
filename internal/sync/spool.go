package sync

import (
	"bytes"
	_ "crypto/sha256" // registers the canonical digest algorithm
	_ "crypto/sha512" // registers sha384 and sha512 for declared checksums
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/stacklok/toolhive-content-sync/internal/providers"
)

// Spool holds fetched package content, in memory or in a temporary file.
type Spool struct {
	size   int64
	digest digest.Digest
	data   []byte
	path   string
}

// Size is the number of bytes spooled
func (s *Spool) Size() int64 {
	return s.size
}

// Digest is the canonical digest of the content
func (s *Spool) Digest() digest.Digest {
	return s.digest
}

// OnDisk reports whether the content spilled to a temporary file
func (s *Spool) OnDisk() bool {
	return s.path != ""
}

// Open returns a new reader over the content
func (s *Spool) Open() (io.ReadCloser, error) {
	if s.path == "" {
		return io.NopCloser(bytes.NewReader(s.data)), nil
	}
	return os.Open(s.path)
}

// Release frees the spool. It is safe to call more than once.
func (s *Spool) Release() error {
	s.data = nil
	if s.path == "" {
		return nil
	}
	path := s.path
	s.path = ""
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Spooler reads content streams into spools.
type Spooler struct {
	threshold int64
	maxSize   int64
	dir       string
}

// NewSpooler keeps up to threshold bytes in memory, spills larger content to
// temporary files in dir (the system default when empty) and rejects content
// larger than maxSize.
func NewSpooler(threshold, maxSize int64, dir string) *Spooler {
	return &Spooler{threshold: threshold, maxSize: maxSize, dir: dir}
}

// Spool reads r to the end and verifies the content against the declared
// size and checksum. Mismatches and oversized content are reported as
// providers.ErrContentMismatch; read failures are returned as they are.
func (s *Spooler) Spool(r io.Reader, declaredSize int64, checksum string) (*Spool, error) {
	var expected digest.Digest
	if checksum != "" {
		d, err := digest.Parse(checksum)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid checksum %q: %v", providers.ErrContentMismatch, checksum, err)
		}
		expected = d
	}
	if declaredSize > s.maxSize {
		return nil, fmt.Errorf("%w: declared size %d exceeds limit %d", providers.ErrContentMismatch, declaredSize, s.maxSize)
	}

	digester := digest.Canonical.Digester()
	sinks := []io.Writer{digester.Hash()}
	var verifier digest.Verifier
	if expected != "" && expected.Algorithm() != digest.Canonical {
		verifier = expected.Verifier()
		sinks = append(sinks, verifier)
	}
	src := io.TeeReader(io.LimitReader(r, s.maxSize+1), io.MultiWriter(sinks...))

	var buf bytes.Buffer
	n, err := io.CopyN(&buf, src, s.threshold+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	spool := &Spool{size: n}
	if n <= s.threshold {
		spool.data = buf.Bytes()
	} else {
		if err := s.spill(spool, &buf, src); err != nil {
			return nil, err
		}
	}

	if err := s.verify(spool, digester.Digest(), expected, verifier, declaredSize); err != nil {
		_ = spool.Release()
		return nil, err
	}
	return spool, nil
}

func (s *Spooler) spill(spool *Spool, head *bytes.Buffer, rest io.Reader) error {
	f, err := os.CreateTemp(s.dir, "thv-spool-*")
	if err != nil {
		return fmt.Errorf("failed to create spool file: %w", err)
	}
	spool.path = f.Name()

	n, err := io.Copy(f, io.MultiReader(head, rest))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = spool.Release()
		return err
	}
	spool.size = n
	return nil
}

func (s *Spooler) verify(
	spool *Spool, actual, expected digest.Digest, verifier digest.Verifier, declaredSize int64,
) error {
	spool.digest = actual

	if spool.size > s.maxSize {
		return fmt.Errorf("%w: content exceeds limit of %d bytes", providers.ErrContentMismatch, s.maxSize)
	}
	if declaredSize >= 0 && spool.size != declaredSize {
		return fmt.Errorf("%w: read %d bytes, declared %d", providers.ErrContentMismatch, spool.size, declaredSize)
	}
	switch {
	case expected == "":
	case verifier != nil:
		if !verifier.Verified() {
			return fmt.Errorf("%w: checksum mismatch, expected %s", providers.ErrContentMismatch, expected)
		}
	case actual != expected:
		return fmt.Errorf("%w: checksum mismatch, expected %s, got %s", providers.ErrContentMismatch, expected, actual)
	}
	return nil
}
