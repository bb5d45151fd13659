package plumbing

import (
	"fmt"
	"strings"

	"github.com/brickster241/dircache/utils/constants"
)

// VerifyPath checks that path is a canonical, relative, slash separated name
// the index can hold. No segment may be empty or start with '.', which rules
// out ".", "..", hidden names such as the repository directory, doubled and
// trailing separators, and absolute paths.
func VerifyPath(path string) error {
	if path == "" {
		return newError(KindInvalidPath, "verify", path, fmt.Errorf("empty path"))
	}
	if len(path) > constants.MaxNameLength {
		return newError(KindInvalidPath, "verify", truncateForDisplay(path),
			fmt.Errorf("name is %d bytes, limit is %d", len(path), constants.MaxNameLength))
	}

	for _, segment := range strings.Split(path, "/") {
		switch {
		case segment == "":
			return newError(KindInvalidPath, "verify", path, fmt.Errorf("empty path segment"))
		case segment[0] == '.':
			return newError(KindInvalidPath, "verify", path, fmt.Errorf("segment %q starts with '.'", segment))
		}
	}
	return nil
}

func truncateForDisplay(path string) string {
	if len(path) <= 64 {
		return path
	}
	return path[:64] + "..."
}
