package types

// IndexEntry represents a single entry in the staging index (the cache).
type IndexEntry struct {
	Ctime    uint32   // seconds since epoch
	CtimeNs  uint32   // nanoseconds
	Mtime    uint32   // seconds since epoch
	MtimeNs  uint32   // nanoseconds
	Dev      uint32   // device
	Ino      uint32   // inode
	Mode     uint32   // raw st_mode, e.g. 0100644 for a regular file
	Uid      uint32   // user id
	Gid      uint32   // group id
	FileSize uint32   // size in bytes
	SHA1     [20]byte // hash of the compressed blob object
	Filename string   // slash separated path, length written explicitly on disk
}

// Metadata is the subset of stat(2) information recorded for a staged file.
type Metadata struct {
	Ctime    uint32
	CtimeNs  uint32
	Mtime    uint32
	MtimeNs  uint32
	Dev      uint32
	Ino      uint32
	Mode     uint32
	Uid      uint32
	Gid      uint32
	FileSize uint32
}

// MatchesStat reports whether the entry's recorded stat data still describes md.
func (e IndexEntry) MatchesStat(md Metadata) bool {
	return e.Ctime == md.Ctime && e.CtimeNs == md.CtimeNs &&
		e.Mtime == md.Mtime && e.MtimeNs == md.MtimeNs &&
		e.Dev == md.Dev && e.Ino == md.Ino &&
		e.Mode == md.Mode && e.Uid == md.Uid && e.Gid == md.Gid &&
		e.FileSize == md.FileSize
}
