package git

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/go-git/go-billy/v5"
)

var (
	// ErrTooManyFiles is returned once a LimitedFs holds MaxFiles files
	ErrTooManyFiles = errors.New("repository exceeds file count limit")

	// ErrTooLarge is returned once writes to a LimitedFs exceed TotalFileSize
	ErrTooLarge = errors.New("repository exceeds size limit")
)

// LimitedFs caps the number of files created in, and bytes written to, the
// wrapped filesystem. Limits of zero or less are not enforced.
type LimitedFs struct {
	Fs            billy.Filesystem
	MaxFiles      int64
	TotalFileSize int64

	files atomic.Int64
	bytes atomic.Int64
}

var _ billy.Filesystem = (*LimitedFs)(nil)

// Create implements billy.Basic
func (l *LimitedFs) Create(filename string) (billy.File, error) {
	if err := l.addFile(); err != nil {
		return nil, err
	}
	f, err := l.Fs.Create(filename)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// Open implements billy.Basic
func (l *LimitedFs) Open(filename string) (billy.File, error) {
	return l.Fs.Open(filename)
}

// OpenFile implements billy.Basic
func (l *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if _, err := l.Fs.Stat(filename); errors.Is(err, os.ErrNotExist) {
			if err := l.addFile(); err != nil {
				return nil, err
			}
		}
	}
	f, err := l.Fs.OpenFile(filename, flag, perm)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// Stat implements billy.Basic
func (l *LimitedFs) Stat(filename string) (os.FileInfo, error) {
	return l.Fs.Stat(filename)
}

// Rename implements billy.Basic
func (l *LimitedFs) Rename(oldpath, newpath string) error {
	return l.Fs.Rename(oldpath, newpath)
}

// Remove implements billy.Basic
func (l *LimitedFs) Remove(filename string) error {
	return l.Fs.Remove(filename)
}

// Join implements billy.Basic
func (l *LimitedFs) Join(elem ...string) string {
	return l.Fs.Join(elem...)
}

// TempFile implements billy.TempFile
func (l *LimitedFs) TempFile(dir, prefix string) (billy.File, error) {
	if err := l.addFile(); err != nil {
		return nil, err
	}
	f, err := l.Fs.TempFile(dir, prefix)
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: f, fs: l}, nil
}

// ReadDir implements billy.Dir
func (l *LimitedFs) ReadDir(path string) ([]os.FileInfo, error) {
	return l.Fs.ReadDir(path)
}

// MkdirAll implements billy.Dir
func (l *LimitedFs) MkdirAll(filename string, perm os.FileMode) error {
	return l.Fs.MkdirAll(filename, perm)
}

// Lstat implements billy.Symlink
func (l *LimitedFs) Lstat(filename string) (os.FileInfo, error) {
	return l.Fs.Lstat(filename)
}

// Symlink implements billy.Symlink
func (l *LimitedFs) Symlink(target, link string) error {
	if err := l.addFile(); err != nil {
		return err
	}
	return l.Fs.Symlink(target, link)
}

// Readlink implements billy.Symlink
func (l *LimitedFs) Readlink(link string) (string, error) {
	return l.Fs.Readlink(link)
}

// Chroot implements billy.Chroot. The returned filesystem is not limited.
func (l *LimitedFs) Chroot(path string) (billy.Filesystem, error) {
	return l.Fs.Chroot(path)
}

// Root implements billy.Chroot
func (l *LimitedFs) Root() string {
	return l.Fs.Root()
}

// Capabilities reports the capabilities of the wrapped filesystem
func (l *LimitedFs) Capabilities() billy.Capability {
	return billy.Capabilities(l.Fs)
}

func (l *LimitedFs) addFile() error {
	if n := l.files.Add(1); l.MaxFiles > 0 && n > l.MaxFiles {
		return ErrTooManyFiles
	}
	return nil
}

func (l *LimitedFs) addBytes(n int) error {
	if total := l.bytes.Add(int64(n)); l.TotalFileSize > 0 && total > l.TotalFileSize {
		return ErrTooLarge
	}
	return nil
}

type limitedFile struct {
	billy.File
	fs *LimitedFs
}

func (f *limitedFile) Write(p []byte) (int, error) {
	if err := f.fs.addBytes(len(p)); err != nil {
		return 0, err
	}
	return f.File.Write(p)
}
