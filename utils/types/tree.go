package types

// TreeEntry represents an entry in a tree object
type TreeEntry struct {
	Mode uint32     // 100644, 100755, 120000
	Name string     // full slash separated path, trees are flat
	SHA  [20]byte   // raw SHA-1 of the referenced object
	Type ObjectType // "blob" or "tree"
}

