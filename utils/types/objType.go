package types

type ObjectType string

const (
	BlobObject ObjectType = "blob"
	TreeObject ObjectType = "tree"
)

// Valid reports whether t is an object type this store produces.
func (t ObjectType) Valid() bool {
	return t == BlobObject || t == TreeObject
}
