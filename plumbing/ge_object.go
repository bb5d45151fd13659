package plumbing

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zlib"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/fsys"
	"github.com/brickster241/dircache/utils/logging"
	"github.com/brickster241/dircache/utils/types"
)

// ObjectStore is immutable, content-addressed storage keyed by the SHA-1 of
// an object's compressed encoding. Objects are never modified after their
// first write.
type ObjectStore interface {
	// PathFor returns the location of the object named sha.
	PathFor(sha [20]byte) string
	// ExistsReadable reports whether the object is present and readable.
	ExistsReadable(sha [20]byte) bool
	// Write stores compressed under sha. Writing an existing hash is a no-op.
	Write(sha [20]byte, compressed []byte) error
}

// ObjectReader returns the type and content (without header) of an object.
type ObjectReader interface {
	Read(sha [20]byte) (types.ObjectType, []byte, error)
}

// FileStore keeps objects as individual zlib files under
// <dir>/<first two hex digits>/<remaining 38 hex digits>.
type FileStore struct {
	dir    string
	known  *lru.Cache[[20]byte, struct{}]
	logger *zap.Logger
}

var (
	_ ObjectStore  = (*FileStore)(nil)
	_ ObjectReader = (*FileStore)(nil)
)

// NewFileStore opens the object database rooted at dir. cacheSize bounds the
// number of objects remembered as present; presence never changes once
// observed, so positive answers are safe to cache.
func NewFileStore(dir string, cacheSize int, logger *zap.Logger) (*FileStore, error) {
	if cacheSize <= 0 {
		cacheSize = constants.DefaultObjectCache
	}
	known, err := lru.New[[20]byte, struct{}](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "object cache")
	}
	return &FileStore{dir: dir, known: known, logger: logging.OrNop(logger)}, nil
}

// Dir returns the root of the object database.
func (s *FileStore) Dir() string {
	return s.dir
}

// PathFor returns <dir>/aa/bbbb... for the hex form of sha.
func (s *FileStore) PathFor(sha [20]byte) string {
	hexSha := hex.EncodeToString(sha[:])
	return filepath.Join(s.dir, hexSha[:2], hexSha[2:])
}

// ExistsReadable reports whether the object file can be opened for reading.
func (s *FileStore) ExistsReadable(sha [20]byte) bool {
	if s.known.Contains(sha) {
		return true
	}
	f, err := os.Open(s.PathFor(sha))
	if err != nil {
		s.logger.Debug("object not readable", zap.String("object", hex.EncodeToString(sha[:])), zap.Error(err))
		return false
	}
	f.Close()
	s.known.Add(sha, struct{}{})
	return true
}

// Write stores an already compressed object. The bytes land in a uniquely
// named temp file first and are renamed into place, so a reader never sees a
// partially written object.
func (s *FileStore) Write(sha [20]byte, compressed []byte) error {
	if s.ExistsReadable(sha) {
		return nil
	}

	filePath := s.PathFor(sha)
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, constants.DefaultDirPerm); err != nil {
		return newError(KindStore, "write object", filePath, err)
	}

	tmp := filepath.Join(dir, "tmp_obj_"+uuid.NewString())
	if err := os.WriteFile(tmp, compressed, constants.DefaultFilePerm); err != nil {
		os.Remove(tmp)
		return newError(KindStore, "write object", filePath, err)
	}
	if err := fsys.ReplaceFile(tmp, filePath); err != nil {
		os.Remove(tmp)
		return newError(KindStore, "write object", filePath, err)
	}

	s.known.Add(sha, struct{}{})
	s.logger.Debug("wrote object",
		zap.String("object", hex.EncodeToString(sha[:])),
		zap.String("size", humanize.Bytes(uint64(len(compressed)))))
	return nil
}

// Read inflates an object and splits its "<type> <size>\0" header from the
// content. The header size must match the content length.
func (s *FileStore) Read(sha [20]byte) (types.ObjectType, []byte, error) {
	filePath := s.PathFor(sha)
	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, newError(KindMissingObject, "read object", hex.EncodeToString(sha[:]), err)
		}
		return "", nil, newError(KindStore, "read object", filePath, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, newError(KindStore, "read object", filePath, err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return "", nil, newError(KindStore, "read object", filePath, err)
	}
	objType, content, err := parseObject(data)
	if err != nil {
		return "", nil, newError(KindStore, "read object", filePath, err)
	}
	return objType, content, nil
}

func parseObject(data []byte) (types.ObjectType, []byte, error) {
	nullIdx := bytes.IndexByte(data, 0)
	if nullIdx == -1 {
		return "", nil, fmt.Errorf("corrupt object: missing header terminator")
	}

	header, content := data[:nullIdx], data[nullIdx+1:]
	typ, sizeStr, ok := bytes.Cut(header, []byte{' '})
	if !ok {
		return "", nil, fmt.Errorf("invalid object header %q", header)
	}
	if !types.ObjectType(typ).Valid() {
		return "", nil, fmt.Errorf("unknown object type %q", typ)
	}
	size, err := strconv.Atoi(string(sizeStr))
	if err != nil {
		return "", nil, fmt.Errorf("invalid object size %q", sizeStr)
	}
	if size != len(content) {
		return "", nil, fmt.Errorf("object size %d does not match header %d", len(content), size)
	}
	return types.ObjectType(typ), content, nil
}

// objectHeader returns "<type> <size>\0".
func objectHeader(objType types.ObjectType, size int) []byte {
	hdr := make([]byte, 0, len(objType)+22)
	hdr = append(hdr, objType...)
	hdr = append(hdr, ' ')
	hdr = strconv.AppendInt(hdr, int64(size), 10)
	return append(hdr, 0)
}

// deflate compresses the concatenation of parts. The level is fixed: an
// object's id is the hash of these bytes, so equal content must always
// compress the same way.
func deflate(parts ...[]byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, constants.DefaultCompression)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, p := range parts {
		if _, err := w.Write(p); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

// EncodeObject builds the canonical "<type> <size>\0<content>" encoding,
// compresses it and returns the SHA-1 of the compressed bytes together with
// those bytes.
func EncodeObject(objType types.ObjectType, content []byte) ([20]byte, []byte, error) {
	// Header + content, Z-lib compressed as one stream
	compressed, err := deflate(objectHeader(objType, len(content)), content)
	if err != nil {
		return [20]byte{}, nil, newError(KindStore, "encode "+string(objType), "", err)
	}
	return sha1.Sum(compressed), compressed, nil
}

// HashObject computes the object id WITHOUT writing anything.
func HashObject(objType types.ObjectType, content []byte) ([20]byte, error) {
	sha, _, err := EncodeObject(objType, content)
	return sha, err
}

// WriteObject encodes content and stores it. If the object already exists it
// is NOT rewritten.
func WriteObject(store ObjectStore, objType types.ObjectType, content []byte) ([20]byte, error) {
	sha, compressed, err := EncodeObject(objType, content)
	if err != nil {
		return [20]byte{}, err
	}
	if err := store.Write(sha, compressed); err != nil {
		return [20]byte{}, asStoreError(err, sha)
	}
	return sha, nil
}

// asStoreError keeps classified errors and files anything else as a store
// failure, so custom ObjectStore implementations need not know the taxonomy.
func asStoreError(err error, sha [20]byte) error {
	if KindOf(err) != 0 {
		return err
	}
	return newError(KindStore, "write object", hex.EncodeToString(sha[:]), err)
}

// ParseHash decodes a 40 digit hex object id.
func ParseHash(shaHex string) ([20]byte, error) {
	var sha [20]byte
	if len(shaHex) != 40 {
		return sha, fmt.Errorf("invalid object id %q: want 40 hex digits", shaHex)
	}
	if _, err := hex.Decode(sha[:], []byte(shaHex)); err != nil {
		return sha, fmt.Errorf("invalid object id %q: %v", shaHex, err)
	}
	return sha, nil
}
