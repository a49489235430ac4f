package storage

import "strings"

// ValidatePath checks a client-supplied path. Folder paths carry a trailing
// slash, documents do not; both forms share the same segment rules: no empty
// segments, no "." or ".." segments, no NUL bytes. The empty path is the root
// folder and is valid only as a folder.
func ValidatePath(path string) error {
	if path == "" {
		return nil
	}
	if strings.ContainsRune(path, 0) {
		return ErrInvalidPath
	}

	trimmed := strings.TrimSuffix(path, "/")
	if trimmed == "" {
		// "/" or "//..." collapse to empty segments
		return ErrInvalidPath
	}
	for _, segment := range strings.Split(trimmed, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrInvalidPath
		}
	}
	return nil
}

// IsFolderPath reports whether the path addresses a folder.
func IsFolderPath(path string) bool {
	return path == "" || strings.HasSuffix(path, "/")
}

// parentPaths returns the ancestor chain of a document path, from the immediate
// parent up to the root (the empty path). parentPaths("a/b/c") = ["a/b", "a", ""].
func parentPaths(path string) []string {
	path = strings.TrimSuffix(path, "/")
	var parents []string
	for {
		idx := strings.LastIndexByte(path, '/')
		if idx < 0 {
			parents = append(parents, "")
			return parents
		}
		path = path[:idx]
		parents = append(parents, path)
	}
}

// baseName returns the last segment of a path.
func baseName(path string) string {
	path = strings.TrimSuffix(path, "/")
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
