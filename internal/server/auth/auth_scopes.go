package auth

import (
	"fmt"
	"strings"
)

// ScopeRoot grants access to every category, including the root folder.
const ScopeRoot = "*"

const (
	ModeRead      = "r"
	ModeReadWrite = "rw"
)

// Scope is one granted access claim, e.g. "contacts:rw" or "*:r". The name is
// a single category (top level folder) or ScopeRoot.
type Scope struct {
	Name string
	Mode string
}

func (s Scope) String() string {
	return s.Name + ":" + s.Mode
}

func (s Scope) CanWrite() bool {
	return s.Mode == ModeReadWrite
}

// ParseScope parses a "<name>:<mode>" scope string.
func ParseScope(raw string) (Scope, error) {
	name, mode, ok := strings.Cut(raw, ":")
	if !ok {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, raw)
	}
	if mode != ModeRead && mode != ModeReadWrite {
		return Scope{}, fmt.Errorf("%w: %q: mode must be %q or %q", ErrInvalidScope, raw, ModeRead, ModeReadWrite)
	}
	if name == "" || (name != ScopeRoot && strings.ContainsAny(name, "/:")) {
		return Scope{}, fmt.Errorf("%w: %q", ErrInvalidScope, raw)
	}
	return Scope{Name: name, Mode: mode}, nil
}

// ParseScopes parses a list of scope strings, rejecting the lot on the first
// bad one.
func ParseScopes(raw []string) ([]Scope, error) {
	scopes := make([]Scope, 0, len(raw))
	for _, r := range raw {
		scope, err := ParseScope(r)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}

// scopeCategory maps a storage path to the category a scope must name to
// cover it. Paths under public/ belong to the category of their second
// segment. The root folder and the bare public/ folder map to "", which only
// the root scope covers.
func scopeCategory(path string) string {
	path = strings.TrimPrefix(path, "/")
	first, rest, _ := strings.Cut(path, "/")
	if first == "public" {
		second, _, _ := strings.Cut(rest, "/")
		return second
	}
	return first
}

// Authorized reports whether any of the scopes covers path for the requested
// access. Write access requires an rw scope.
func Authorized(scopes []Scope, path string, write bool) bool {
	category := scopeCategory(path)
	for _, s := range scopes {
		if write && !s.CanWrite() {
			continue
		}
		if s.Name == ScopeRoot {
			return true
		}
		if category != "" && s.Name == category {
			return true
		}
	}
	return false
}

// IsPublicDocument reports whether path names a document under public/ that
// may be read without credentials. Folder listings under public/ stay private.
func IsPublicDocument(path string) bool {
	path = strings.TrimPrefix(path, "/")
	if !strings.HasPrefix(path, "public/") {
		return false
	}
	return !strings.HasSuffix(path, "/")
}
