package plumbing

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/brickster241/dircache/utils/fsys"
	"github.com/brickster241/dircache/utils/types"
)

// Handle is the readable contents of a working tree file. Bytes are valid
// until Close.
type Handle interface {
	Bytes() []byte
	Close() error
}

// WorkingTree is where staged files are read from. Paths are index names,
// relative and slash separated.
type WorkingTree interface {
	// OpenForRead fails with KindNotFound when path does not exist and
	// KindIO for anything else.
	OpenForRead(path string) (Handle, error)
	Stat(path string) (types.Metadata, error)
}

// OSWorkingTree is the working tree on the local file system, rooted at
// Root.
type OSWorkingTree struct {
	Root string
}

var _ WorkingTree = OSWorkingTree{}

func (w OSWorkingTree) fullPath(path string) string {
	return filepath.Join(w.Root, filepath.FromSlash(path))
}

// OpenForRead maps the file at path.
func (w OSWorkingTree) OpenForRead(path string) (Handle, error) {
	m, err := fsys.MapFile(w.fullPath(path))
	if err != nil {
		return nil, classifyFileError("open", path, err)
	}
	return m, nil
}

// Stat returns the metadata recorded for path in an index entry.
func (w OSWorkingTree) Stat(path string) (types.Metadata, error) {
	md, err := fsys.Stat(w.fullPath(path))
	if err != nil {
		return types.Metadata{}, classifyFileError("stat", path, err)
	}
	return md, nil
}

func classifyFileError(op, path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(KindNotFound, op, path, err)
	case fsys.IsNotRegular(err):
		return newError(KindIO, op, path, fmt.Errorf("only regular files can be staged"))
	}
	return newError(KindIO, op, path, err)
}
