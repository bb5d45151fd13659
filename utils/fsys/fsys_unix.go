//go:build linux || darwin || freebsd || netbsd || openbsd

package fsys

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/brickster241/dircache/utils/types"
)

// MapFile maps the regular file at path read-only. The descriptor is closed
// before returning; the mapping stays valid until Close.
func MapFile(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var st unix.Stat_t
	if err := unix.Fstat(int(f.Fd()), &st); err != nil {
		return nil, &os.PathError{Op: "fstat", Path: path, Err: err}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFREG {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: errNotRegular}
	}

	// mmap rejects zero-length mappings
	if st.Size == 0 {
		return &Mapping{data: []byte{}}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(st.Size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, &os.PathError{Op: "mmap", Path: path, Err: err}
	}
	return &Mapping{
		data:    data,
		release: func() error { return unix.Munmap(data) },
	}, nil
}

// Stat returns the stat(2) metadata recorded in index entries.
func Stat(path string) (types.Metadata, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return types.Metadata{}, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return types.Metadata{
		Ctime:    uint32(st.Ctim.Sec),
		CtimeNs:  uint32(st.Ctim.Nsec),
		Mtime:    uint32(st.Mtim.Sec),
		MtimeNs:  uint32(st.Mtim.Nsec),
		Dev:      uint32(st.Dev),
		Ino:      uint32(st.Ino),
		Mode:     uint32(st.Mode),
		Uid:      uint32(st.Uid),
		Gid:      uint32(st.Gid),
		FileSize: uint32(st.Size),
	}, nil
}
