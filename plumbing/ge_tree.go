package plumbing

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/logging"
	"github.com/brickster241/dircache/utils/types"
)

// treeHeaderRoom is reserved at the front of the tree buffer for the
// "tree <len>\0" header, which is only known once the body is complete.
const treeHeaderRoom = 32

// TreeBuilder snapshots an index into a single flat tree object.
type TreeBuilder struct {
	Store  ObjectStore
	Logger *zap.Logger
}

// BuildTree writes the tree for idx without logging.
func BuildTree(idx *Index, store ObjectStore) ([20]byte, error) {
	return (&TreeBuilder{Store: store}).Build(idx)
}

// Build verifies that every staged object is present, then serializes the
// entries in index order as "<octal mode> <name>\0<sha>" records, stores
// the compressed tree and returns its hash. Nothing is written unless every
// entry checks out.
func (b *TreeBuilder) Build(idx *Index) ([20]byte, error) {
	logger := logging.OrNop(b.Logger)

	if idx.Len() == 0 {
		return [20]byte{}, newError(KindEmptyIndex, "snapshot", "", fmt.Errorf("nothing staged"))
	}

	// Every staged object must be readable before anything is written
	for i := range idx.entries {
		ie := &idx.entries[i]
		if !b.Store.ExistsReadable(ie.SHA1) {
			return [20]byte{}, newError(KindMissingObject, "snapshot", ie.Filename,
				fmt.Errorf("object %s is not readable", hex.EncodeToString(ie.SHA1[:])))
		}
	}

	// Body starts after the reserved header room
	buffer := make([]byte, treeHeaderRoom, idx.Len()*40+400)
	for i := range idx.entries {
		ie := &idx.entries[i]
		buffer = strconv.AppendUint(buffer, uint64(ie.Mode), 8)
		buffer = append(buffer, ' ')
		buffer = append(buffer, ie.Filename...)
		buffer = append(buffer, 0)
		buffer = append(buffer, ie.SHA1[:]...)
	}

	// Header goes right before the body, inside the reserved room
	hdr := objectHeader(types.TreeObject, len(buffer)-treeHeaderRoom)
	start := treeHeaderRoom - len(hdr)
	copy(buffer[start:], hdr)
	object := buffer[start:]

	// Z-lib compress, hash and write the tree
	compressed, err := deflate(object)
	if err != nil {
		return [20]byte{}, newError(KindStore, "encode tree", "", err)
	}
	sha := sha1.Sum(compressed)
	if err := b.Store.Write(sha, compressed); err != nil {
		return [20]byte{}, asStoreError(err, sha)
	}

	logger.Debug("wrote tree", zap.String("tree", hex.EncodeToString(sha[:])), zap.Int("entries", idx.Len()))
	return sha, nil
}

// ReadTree reads a tree object and decodes its entries in stored order.
func ReadTree(reader ObjectReader, sha [20]byte) ([]types.TreeEntry, error) {
	objType, content, err := reader.Read(sha)
	if err != nil {
		return nil, err
	}
	if objType != types.TreeObject {
		return nil, fmt.Errorf("object %s is a %s, not a tree", hex.EncodeToString(sha[:]), objType)
	}
	return ParseTree(content)
}

// ParseTree decodes the body of a tree object.
func ParseTree(content []byte) ([]types.TreeEntry, error) {
	entries := []types.TreeEntry{}
	i := 0

	for i < len(content) {
		// Find NUL separating "<mode> <name>" and SHA
		nullIdx := bytes.IndexByte(content[i:], 0)
		if nullIdx == -1 {
			return nil, fmt.Errorf("corrupt tree object")
		}

		modeStr, name, ok := bytes.Cut(content[i:i+nullIdx], []byte{' '})
		if !ok {
			return nil, fmt.Errorf("invalid tree entry header")
		}

		// RAW SHA (next 20 bytes)
		shaStart := i + nullIdx + 1
		shaEnd := shaStart + 20
		if shaEnd > len(content) {
			return nil, fmt.Errorf("truncated tree object")
		}

		mode, err := ParseModeStr(string(modeStr))
		if err != nil {
			return nil, err
		}

		entryType := types.BlobObject
		if mode&constants.FileTypeMask == constants.TreeMode {
			entryType = types.TreeObject
		}

		entry := types.TreeEntry{Name: string(name), Mode: mode, Type: entryType}
		copy(entry.SHA[:], content[shaStart:shaEnd])
		entries = append(entries, entry)

		i = shaEnd
	}

	return entries, nil
}

// ParseModeStr parses an octal mode as written in tree entries.
func ParseModeStr(modeStr string) (uint32, error) {
	mode, err := strconv.ParseUint(modeStr, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid mode %q", modeStr)
	}
	return uint32(mode), nil
}
