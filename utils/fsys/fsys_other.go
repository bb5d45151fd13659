//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package fsys

import (
	"os"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/types"
)

// MapFile reads the regular file at path into memory. Platforms without a
// usable mmap get a private copy with the same lifetime rules.
func MapFile(path string) (*Mapping, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, &os.PathError{Op: "read", Path: path, Err: errNotRegular}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

// Stat returns the metadata recorded in index entries. Fields the platform
// cannot report (device, inode, owner) are zero and ctime mirrors mtime.
func Stat(path string) (types.Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.Metadata{}, err
	}

	mode := uint32(constants.RegularFileMode)
	if info.Mode()&0o111 != 0 {
		mode = constants.ExecutableFileMode
	}
	mtime := info.ModTime()
	return types.Metadata{
		Ctime:    uint32(mtime.Unix()),
		CtimeNs:  uint32(mtime.Nanosecond()),
		Mtime:    uint32(mtime.Unix()),
		MtimeNs:  uint32(mtime.Nanosecond()),
		Mode:     mode,
		FileSize: uint32(info.Size()),
	}, nil
}
