package constants

const (
	RegularFileMode    = 0o100644
	ExecutableFileMode = 0o100755
	TreeMode           = 0o040000
	FileTypeMask       = 0o170000 // S_IFMT
	DefaultFilePerm    = 0o644    // rw-r--r--
	DefaultDirPerm     = 0o755    // rwxr-xr-x
	LockFilePerm       = 0o600    // rw-------

	RepoDir      = ".dircache"           // Default repository directory
	IndexFile    = "index"               // Live index, relative to RepoDir
	LockFile     = "index.lock"          // Exclusive lock / staging file for the index
	ObjectsDir   = "objects"             // Object database, relative to RepoDir
	ConfigFile   = "config"              // INI config, relative to RepoDir
	ObjectDirEnv = "SHA1_FILE_DIRECTORY" // Overrides the object database location

	IndexSignature  = 0x44495243 // "DIRC"
	IndexVersion    = 1
	IndexHeaderSize = 32 // signature(4) + version(4) + entries(4) + sha1(20)
	EntryFixedSize  = 62 // 10 x uint32 + sha1(20) + name length(2)
	MaxNameLength   = 0xFFFF

	DefaultCompression = 9 // zlib best compression, part of every object id
	DefaultObjectCache = 1024

	Config = `[core]
	objectcache = 1024
` // Default config content
)
