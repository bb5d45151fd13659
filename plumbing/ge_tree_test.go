package plumbing

import (
	"crypto/sha1"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brickster241/dircache/utils/constants"
	"github.com/brickster241/dircache/utils/types"
)

// indexWithObjects stages names with fake content, storing each blob.
func indexWithObjects(t *testing.T, store ObjectStore, names ...string) *Index {
	t.Helper()
	idx := NewIndex()
	for _, name := range names {
		sha, err := WriteObject(store, types.BlobObject, []byte("content of "+name))
		require.NoError(t, err)
		e := testEntry(name, 1)
		e.SHA1 = sha
		idx.InsertOrReplace(e)
	}
	return idx
}

func TestBuildTreeBytes(t *testing.T) {
	store := newMemStore()
	idx := indexWithObjects(t, store, "b/c", "a")
	a, _ := idx.Lookup("a")
	bc, _ := idx.Lookup("b/c")

	sha, err := BuildTree(idx, store)
	require.NoError(t, err)

	compressed, ok := store.objects[sha]
	require.True(t, ok, "tree stored under its hash")
	assert.Equal(t, sha1.Sum(compressed), sha)

	body := "100644 a\x00" + string(a.SHA1[:]) + "100644 b/c\x00" + string(bc.SHA1[:])
	want := "tree 60\x00" + body
	require.Len(t, body, 60)
	assert.Equal(t, want, string(inflate(t, compressed)))
}

func TestBuildTreeIsDeterministic(t *testing.T) {
	store := newMemStore()
	idx := indexWithObjects(t, store, "x", "y/z", "y.txt")

	first, err := BuildTree(idx, store)
	require.NoError(t, err)
	second, err := BuildTree(idx, store)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	idx.Remove("x")
	third, err := BuildTree(idx, store)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestBuildTreeKeepsModes(t *testing.T) {
	store := newMemStore()
	idx := indexWithObjects(t, store, "run.sh")
	e := idx.Entry(0)
	e.Mode = constants.ExecutableFileMode
	idx.InsertOrReplace(e)

	sha, err := BuildTree(idx, store)
	require.NoError(t, err)

	raw := inflate(t, store.objects[sha])
	entries, err := ParseTree(raw[len("tree 34\x00"):])
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, uint32(constants.ExecutableFileMode), entries[0].Mode)
}

func TestBuildTreeEmptyIndex(t *testing.T) {
	store := newMemStore()
	_, err := BuildTree(NewIndex(), store)
	assert.ErrorIs(t, err, ErrEmptyIndex)
	assert.Zero(t, store.writes)
}

func TestBuildTreeMissingObject(t *testing.T) {
	store := newMemStore()
	idx := indexWithObjects(t, store, "a", "c")
	idx.InsertOrReplace(testEntry("b", 99))
	writes := store.writes

	_, err := BuildTree(idx, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingObject)
	assert.Contains(t, err.Error(), " b:")
	assert.Equal(t, writes, store.writes, "no tree written")
}

func TestBuildTreeStoreFailure(t *testing.T) {
	store := newMemStore()
	idx := indexWithObjects(t, store, "a")
	store.failErr = assert.AnError

	_, err := BuildTree(idx, store)
	assert.ErrorIs(t, err, ErrStore)
}

func TestReadTree(t *testing.T) {
	store := newTestFileStore(t)
	idx := indexWithObjects(t, store, "docs/readme", "main.go")

	sha, err := BuildTree(idx, store)
	require.NoError(t, err)

	entries, err := ReadTree(store, sha)
	require.NoError(t, err)

	var want []types.TreeEntry
	for _, e := range idx.Entries() {
		want = append(want, types.TreeEntry{Mode: e.Mode, Name: e.Filename, SHA: e.SHA1, Type: types.BlobObject})
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("tree entries (-want +got):\n%s", diff)
	}

	// A blob is not a tree
	_, err = ReadTree(store, idx.Entry(0).SHA1)
	assert.Error(t, err)
}

func TestParseTreeErrors(t *testing.T) {
	sha := string(make([]byte, 20))
	tests := []struct {
		name string
		body string
	}{
		{"missing NUL", "100644 a"},
		{"missing space", "100644a\x00" + sha},
		{"truncated sha", "100644 a\x00" + sha[:10]},
		{"bad mode", "10x644 a\x00" + sha},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTree([]byte(tt.body))
			assert.Error(t, err)
		})
	}

	entries, err := ParseTree([]byte("40000 sub\x00" + sha))
	require.NoError(t, err)
	assert.Equal(t, types.TreeObject, entries[0].Type)
}
