package plumbing

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"io/fs"
	"slices"

	"github.com/pkg/errors"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/fsys"
	"github.com/brickster241/dircache/utils/types"
)

// FindResult is the outcome of a binary search over the index: either the
// slot holding an exact match, or the slot a new name must be inserted at to
// keep the entries sorted.
type FindResult struct {
	Pos   int
	Found bool
}

// Index is the in-memory staging area. Entries are always sorted by
// byte-wise name order and names are unique.
type Index struct {
	entries []types.IndexEntry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Len returns the number of staged entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Entry returns a copy of the entry at slot i.
func (idx *Index) Entry(i int) types.IndexEntry {
	return idx.entries[i]
}

// Entries returns a copy of all entries in index order.
func (idx *Index) Entries() []types.IndexEntry {
	return slices.Clone(idx.entries)
}

// Lookup returns the entry staged under name.
func (idx *Index) Lookup(name string) (types.IndexEntry, bool) {
	res := idx.Position(name)
	if !res.Found {
		return types.IndexEntry{}, false
	}
	return idx.entries[res.Pos], true
}

// compareNames orders names by their common prefix, byte for byte; when
// one is a prefix of the other the shorter sorts first.
func compareNames(name1, name2 string) int {
	n := min(len(name1), len(name2))
	for i := 0; i < n; i++ {
		if name1[i] != name2[i] {
			if name1[i] < name2[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(name1) < len(name2):
		return -1
	case len(name1) > len(name2):
		return 1
	}
	return 0
}

// Position binary searches for name.
func (idx *Index) Position(name string) FindResult {
	first, last := 0, len(idx.entries)
	for last > first {
		next := int(uint(first+last) >> 1)
		cmp := compareNames(name, idx.entries[next].Filename)
		if cmp == 0 {
			return FindResult{Pos: next, Found: true}
		}
		if cmp < 0 {
			last = next
			continue
		}
		first = next + 1
	}
	return FindResult{Pos: first}
}

// allocNr is the growth policy for the entry array.
func allocNr(n int) int {
	return (n + 16) * 3 / 2
}

// InsertOrReplace stages e. An entry with the same name is overwritten in
// its slot; otherwise e is inserted at the position that keeps the index
// sorted.
func (idx *Index) InsertOrReplace(e types.IndexEntry) {
	res := idx.Position(e.Filename)
	if res.Found {
		idx.entries[res.Pos] = e
		return
	}

	// Grow if full, then shift the tail right by one
	n := len(idx.entries)
	if n == cap(idx.entries) {
		grown := make([]types.IndexEntry, n, allocNr(n))
		copy(grown, idx.entries)
		idx.entries = grown
	}
	idx.entries = idx.entries[:n+1]
	copy(idx.entries[res.Pos+1:], idx.entries[res.Pos:n])
	idx.entries[res.Pos] = e
}

// Remove drops the entry staged under name. Removing a name that is not
// staged is a no-op; the result reports whether anything was removed.
func (idx *Index) Remove(name string) bool {
	res := idx.Position(name)
	if !res.Found {
		return false
	}
	n := len(idx.entries)
	copy(idx.entries[res.Pos:], idx.entries[res.Pos+1:])
	idx.entries[n-1] = types.IndexEntry{}
	idx.entries = idx.entries[:n-1]
	return true
}

// entrySize is the on-disk size of an entry: the fixed block, the name and
// 1 to 8 NUL bytes of padding to an 8 byte boundary.
func entrySize(nameLen int) int {
	return (constants.EntryFixedSize + nameLen + 8) &^ 7
}

// MarshalBinary serializes the index file: the 32 byte header followed by
// every entry in order. The header hash covers the header up to the hash
// field and all entry bytes.
func (idx *Index) MarshalBinary() ([]byte, error) {
	// Size the buffer up front, refusing names the format cannot hold
	size := constants.IndexHeaderSize
	for i := range idx.entries {
		if len(idx.entries[i].Filename) > constants.MaxNameLength {
			return nil, newError(KindInvalidPath, "encode index", truncateForDisplay(idx.entries[i].Filename),
				fmt.Errorf("name does not fit the index"))
		}
		size += entrySize(len(idx.entries[i].Filename))
	}

	buffer := make([]byte, 0, size)

	// Header: signature, version, entry count, hash placeholder
	buffer = binary.BigEndian.AppendUint32(buffer, constants.IndexSignature)
	buffer = binary.BigEndian.AppendUint32(buffer, constants.IndexVersion)
	buffer = binary.BigEndian.AppendUint32(buffer, uint32(len(idx.entries)))
	buffer = append(buffer, make([]byte, 20)...)

	for i := range idx.entries {
		buffer = appendEntry(buffer, &idx.entries[i])
	}

	// Fill in the hash placeholder
	sum := indexChecksum(buffer)
	copy(buffer[12:constants.IndexHeaderSize], sum[:])
	return buffer, nil
}

func appendEntry(buffer []byte, entry *types.IndexEntry) []byte {
	entryStart := len(buffer)

	// 40 bytes of metadata
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Ctime)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.CtimeNs)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Mtime)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.MtimeNs)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Dev)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Ino)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Mode)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Uid)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.Gid)
	buffer = binary.BigEndian.AppendUint32(buffer, entry.FileSize)

	buffer = append(buffer, entry.SHA1[:]...)
	buffer = binary.BigEndian.AppendUint16(buffer, uint16(len(entry.Filename)))
	buffer = append(buffer, entry.Filename...)

	// NUL pad to a multiple of 8
	padLen := entrySize(len(entry.Filename)) - (len(buffer) - entryStart)
	return append(buffer, make([]byte, padLen)...)
}

// indexChecksum hashes an encoded index, skipping the hash field itself.
func indexChecksum(data []byte) [20]byte {
	h := sha1.New()
	h.Write(data[:12])
	h.Write(data[constants.IndexHeaderSize:])
	var sum [20]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

func corrupt(format string, args ...any) error {
	return newError(KindCorruptIndex, "load index", "", fmt.Errorf(format, args...))
}

// ParseIndex decodes an index file. Anything that does not check out
// (signature, version, hash, truncated or trailing bytes, names out of
// order) is reported as a corrupt index.
func ParseIndex(data []byte) (*Index, error) {
	// Check header and checksum before trusting any entry
	if len(data) < constants.IndexHeaderSize {
		return nil, corrupt("index file is too short (%d bytes)", len(data))
	}
	if sig := binary.BigEndian.Uint32(data[0:4]); sig != constants.IndexSignature {
		return nil, corrupt("bad signature %#08x", sig)
	}
	if version := binary.BigEndian.Uint32(data[4:8]); version != constants.IndexVersion {
		return nil, corrupt("unsupported index version %d", version)
	}
	if sum := indexChecksum(data); string(sum[:]) != string(data[12:constants.IndexHeaderSize]) {
		return nil, corrupt("checksum mismatch")
	}

	// Read entries one by one
	entryCount := int(binary.BigEndian.Uint32(data[8:12]))
	entries := make([]types.IndexEntry, 0, min(entryCount, len(data)/constants.EntryFixedSize))
	offset := constants.IndexHeaderSize

	for i := 0; i < entryCount; i++ {
		if offset+constants.EntryFixedSize > len(data) {
			return nil, corrupt("entry %d truncated", i)
		}
		field := func(n int) uint32 {
			return binary.BigEndian.Uint32(data[offset+4*n:])
		}

		ie := types.IndexEntry{
			Ctime:    field(0),
			CtimeNs:  field(1),
			Mtime:    field(2),
			MtimeNs:  field(3),
			Dev:      field(4),
			Ino:      field(5),
			Mode:     field(6),
			Uid:      field(7),
			Gid:      field(8),
			FileSize: field(9),
		}
		copy(ie.SHA1[:], data[offset+40:offset+60])
		nameLen := int(binary.BigEndian.Uint16(data[offset+60:]))

		size := entrySize(nameLen)
		if offset+size > len(data) {
			return nil, corrupt("entry %d name truncated", i)
		}
		nameStart := offset + constants.EntryFixedSize
		ie.Filename = string(data[nameStart : nameStart+nameLen])

		// Names must be strictly increasing
		if n := len(entries); n > 0 && compareNames(entries[n-1].Filename, ie.Filename) >= 0 {
			return nil, corrupt("entry %q out of order after %q", ie.Filename, entries[n-1].Filename)
		}
		entries = append(entries, ie)
		offset += size
	}

	// Nothing may follow the last entry
	if offset != len(data) {
		return nil, corrupt("%d trailing bytes after %d entries", len(data)-offset, entryCount)
	}
	return &Index{entries: entries}, nil
}

// LoadIndex reads the index file at path. A missing file is an empty index.
func LoadIndex(path string) (*Index, error) {
	m, err := fsys.MapFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewIndex(), nil // No index file yet
		}
		return nil, newError(KindIO, "load index", path, err)
	}
	defer m.Close()

	// Names are copied out of the mapping by ParseIndex.
	return ParseIndex(m.Bytes())
}
