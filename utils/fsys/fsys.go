// Package fsys isolates the platform specific parts of working with files:
// read-only mappings, stat metadata and atomic replacement. Callers never
// branch on the operating system; the build-tagged files in this package do.
package fsys

import (
	"os"

	"github.com/pkg/errors"
)

var errNotRegular = errors.New("not a regular file")

// Mapping is a read-only view of a file's contents. The bytes are valid until
// Close is called.
type Mapping struct {
	data    []byte
	release func() error
}

// Bytes returns the mapped contents.
func (m *Mapping) Bytes() []byte {
	return m.data
}

// Len returns the number of mapped bytes.
func (m *Mapping) Len() int {
	return len(m.data)
}

// Close releases the mapping. It is safe to call more than once.
func (m *Mapping) Close() error {
	release := m.release
	m.data, m.release = nil, nil
	if release == nil {
		return nil
	}
	return release()
}

// ReplaceFile atomically renames src over dst. On every supported platform
// os.Rename replaces an existing destination (MoveFileEx with
// MOVEFILE_REPLACE_EXISTING on Windows), so readers observe either the old
// or the new file, never a mix.
func ReplaceFile(src, dst string) error {
	return errors.WithStack(os.Rename(src, dst))
}

// IsNotRegular reports whether err was returned because a path named
// something other than a regular file.
func IsNotRegular(err error) bool {
	return errors.Is(err, errNotRegular)
}
