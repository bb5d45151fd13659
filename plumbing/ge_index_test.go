package plumbing

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/types"
)

func testEntry(name string, seed byte) types.IndexEntry {
	e := types.IndexEntry{
		Ctime:    1700000000,
		CtimeNs:  uint32(seed),
		Mtime:    1700000001,
		MtimeNs:  uint32(seed) * 2,
		Dev:      42,
		Ino:      uint32(seed) + 1000,
		Mode:     constants.RegularFileMode,
		Uid:      1000,
		Gid:      1000,
		FileSize: uint32(len(name)),
		Filename: name,
	}
	for i := range e.SHA1 {
		e.SHA1[i] = seed + byte(i)
	}
	return e
}

func names(idx *Index) []string {
	out := make([]string, 0, idx.Len())
	for _, e := range idx.Entries() {
		out = append(out, e.Filename)
	}
	return out
}

// resum recomputes the header hash after a test tampers with the body.
func resum(data []byte) {
	sum := indexChecksum(data)
	copy(data[12:constants.IndexHeaderSize], sum[:])
}

func TestCompareNames(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "a", 0},
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "ab", -1},
		{"ab", "a", 1},
		{"a.c", "a/b", -1},
		{"a/b", "ab", -1},
		{"", "a", -1},
		{"\xff", "a", 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q vs %q", tt.a, tt.b), func(t *testing.T) {
			assert.Equal(t, tt.want, compareNames(tt.a, tt.b))
		})
	}
}

func TestInsertKeepsByteOrder(t *testing.T) {
	idx := NewIndex()
	for i, name := range []string{"b", "a/b", "ab", "a", "a.c", "B"} {
		idx.InsertOrReplace(testEntry(name, byte(i)))
	}

	want := []string{"B", "a", "a.c", "a/b", "ab", "b"}
	if diff := cmp.Diff(want, names(idx)); diff != "" {
		t.Errorf("index order (-want +got):\n%s", diff)
	}
}

func TestPosition(t *testing.T) {
	idx := NewIndex()
	for i, name := range []string{"a", "c", "e"} {
		idx.InsertOrReplace(testEntry(name, byte(i)))
	}

	tests := []struct {
		name string
		want FindResult
	}{
		{"a", FindResult{Pos: 0, Found: true}},
		{"c", FindResult{Pos: 1, Found: true}},
		{"e", FindResult{Pos: 2, Found: true}},
		{"0", FindResult{Pos: 0}},
		{"b", FindResult{Pos: 1}},
		{"d", FindResult{Pos: 2}},
		{"f", FindResult{Pos: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Position(tt.name))
		})
	}

	assert.Equal(t, FindResult{}, NewIndex().Position("anything"))
}

func TestInsertOrReplaceOverwritesInPlace(t *testing.T) {
	idx := NewIndex()
	idx.InsertOrReplace(testEntry("a", 1))
	idx.InsertOrReplace(testEntry("b", 2))
	idx.InsertOrReplace(testEntry("c", 3))

	replacement := testEntry("b", 9)
	idx.InsertOrReplace(replacement)

	require.Equal(t, 3, idx.Len())
	assert.Equal(t, replacement, idx.Entry(1))
	got, ok := idx.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, replacement.SHA1, got.SHA1)
}

func TestInsertGrowth(t *testing.T) {
	idx := NewIndex()
	for i := 499; i >= 0; i-- {
		idx.InsertOrReplace(testEntry(fmt.Sprintf("file%04d", i), byte(i)))
	}
	require.Equal(t, 500, idx.Len())
	for i := 0; i < idx.Len(); i++ {
		assert.Equal(t, fmt.Sprintf("file%04d", i), idx.Entry(i).Filename)
	}
	assert.Equal(t, 24, allocNr(0))
	assert.Equal(t, 48, allocNr(16))
}

func TestRemove(t *testing.T) {
	idx := NewIndex()
	for i, name := range []string{"a", "b", "c"} {
		idx.InsertOrReplace(testEntry(name, byte(i)))
	}

	assert.True(t, idx.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, names(idx))
	assert.True(t, idx.Remove("a"))
	assert.True(t, idx.Remove("c"))
	assert.Equal(t, 0, idx.Len())
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	idx := NewIndex()
	idx.InsertOrReplace(testEntry("a", 1))
	idx.InsertOrReplace(testEntry("c", 2))

	before, err := idx.MarshalBinary()
	require.NoError(t, err)

	assert.False(t, idx.Remove("b"))
	assert.False(t, idx.Remove("d"))

	after, err := idx.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEntriesIsACopy(t *testing.T) {
	idx := NewIndex()
	idx.InsertOrReplace(testEntry("a", 1))
	entries := idx.Entries()
	entries[0].Filename = "mutated"
	assert.Equal(t, "a", idx.Entry(0).Filename)
}

func TestEntrySize(t *testing.T) {
	tests := []struct {
		nameLen, want int
	}{
		{1, 64},
		{2, 72},
		{9, 72},
		{10, 80},
		{17, 80},
		{18, 88},
	}
	for _, tt := range tests {
		got := entrySize(tt.nameLen)
		assert.Equal(t, tt.want, got, "name length %d", tt.nameLen)
		assert.Zero(t, got%8)
		assert.Greater(t, got, constants.EntryFixedSize+tt.nameLen, "at least one NUL")
	}
}

func TestMarshalLayout(t *testing.T) {
	idx := NewIndex()
	e := testEntry("hello.txt", 7)
	idx.InsertOrReplace(e)

	data, err := idx.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, constants.IndexHeaderSize+72)

	assert.Equal(t, []byte("DIRC"), data[0:4])
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(data[8:12]))

	h := sha1.New()
	h.Write(data[:12])
	h.Write(data[32:])
	assert.Equal(t, h.Sum(nil), data[12:32])

	entry := data[32:]
	assert.Equal(t, e.Ctime, binary.BigEndian.Uint32(entry[0:]))
	assert.Equal(t, e.Ino, binary.BigEndian.Uint32(entry[20:]))
	assert.Equal(t, e.Mode, binary.BigEndian.Uint32(entry[24:]))
	assert.Equal(t, e.FileSize, binary.BigEndian.Uint32(entry[36:]))
	assert.Equal(t, e.SHA1[:], entry[40:60])
	assert.Equal(t, uint16(9), binary.BigEndian.Uint16(entry[60:]))
	assert.Equal(t, "hello.txt", string(entry[62:71]))
	assert.Equal(t, []byte{0}, entry[71:])
}

func TestMarshalEmpty(t *testing.T) {
	data, err := NewIndex().MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, constants.IndexHeaderSize)

	idx, err := ParseIndex(data)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}

func TestMarshalRejectsLongNames(t *testing.T) {
	long := make([]byte, constants.MaxNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	idx := &Index{entries: []types.IndexEntry{testEntry(string(long), 1)}}
	_, err := idx.MarshalBinary()
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestParseRoundTrip(t *testing.T) {
	idx := NewIndex()
	for i, name := range []string{"README", "src/main.c", "src/util/x.h", "z"} {
		idx.InsertOrReplace(testEntry(name, byte(i*17)))
	}

	data, err := idx.MarshalBinary()
	require.NoError(t, err)

	loaded, err := ParseIndex(data)
	require.NoError(t, err)
	if diff := cmp.Diff(idx.Entries(), loaded.Entries()); diff != "" {
		t.Errorf("entries after round trip (-want +got):\n%s", diff)
	}
}

func TestParseCorrupt(t *testing.T) {
	idx := NewIndex()
	idx.InsertOrReplace(testEntry("a", 1))
	idx.InsertOrReplace(testEntry("b", 2))
	good, err := idx.MarshalBinary()
	require.NoError(t, err)

	unsorted, err := (&Index{entries: []types.IndexEntry{testEntry("b", 2), testEntry("a", 1)}}).MarshalBinary()
	require.NoError(t, err)
	duplicate, err := (&Index{entries: []types.IndexEntry{testEntry("a", 1), testEntry("a", 2)}}).MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mangle func() []byte
	}{
		{"empty file", func() []byte { return nil }},
		{"short header", func() []byte { return good[:20] }},
		{"bad signature", func() []byte {
			d := append([]byte(nil), good...)
			copy(d, "CRID")
			return d
		}},
		{"bad version", func() []byte {
			d := append([]byte(nil), good...)
			binary.BigEndian.PutUint32(d[4:], 2)
			resum(d)
			return d
		}},
		{"checksum mismatch", func() []byte {
			d := append([]byte(nil), good...)
			d[len(d)-10] ^= 0xff
			return d
		}},
		{"count too large", func() []byte {
			d := append([]byte(nil), good...)
			binary.BigEndian.PutUint32(d[8:], 3)
			resum(d)
			return d
		}},
		{"name truncated", func() []byte {
			d := append([]byte(nil), good[:len(good)-4]...)
			resum(d)
			return d
		}},
		{"trailing bytes", func() []byte {
			d := append(append([]byte(nil), good...), make([]byte, 8)...)
			resum(d)
			return d
		}},
		{"out of order", func() []byte { return unsorted }},
		{"duplicate names", func() []byte { return duplicate }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIndex(tt.mangle())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCorruptIndex)
		})
	}
}

func TestLoadIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, constants.IndexFile)

	idx, err := LoadIndex(path)
	require.NoError(t, err, "missing index loads empty")
	assert.Equal(t, 0, idx.Len())

	idx.InsertOrReplace(testEntry("x/y", 3))
	data, err := idx.MarshalBinary()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, constants.DefaultFilePerm))

	loaded, err := LoadIndex(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries(), loaded.Entries())

	require.NoError(t, os.WriteFile(path, []byte("garbage"), constants.DefaultFilePerm))
	_, err = LoadIndex(path)
	assert.ErrorIs(t, err, ErrCorruptIndex)

	_, err = LoadIndex(dir)
	assert.ErrorIs(t, err, ErrIO)
}
