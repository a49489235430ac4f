package storage

// Conditional qualifies a read, write or delete with RFC 7232 style precondition
// semantics against a key's current ETag. ETags are unquoted at this layer; the
// HTTP boundary owns quote normalization. The wildcard "*" is only meaningful for
// If-None-Match ("create only") and If-Match ("must exist").
type Conditional struct {
	IfMatch     string
	IfNoneMatch string
}

// IsZero reports whether no precondition was supplied.
func (c *Conditional) IsZero() bool {
	return c == nil || (c.IfMatch == "" && c.IfNoneMatch == "")
}

// Check evaluates the conditional against the current ETag of the target, where
// current == "" means the target does not exist. A nil receiver always passes.
func (c *Conditional) Check(current string) error {
	if c == nil {
		return nil
	}

	if c.IfNoneMatch != "" {
		if c.IfNoneMatch == "*" && current != "" {
			return ErrPreconditionFailed
		}
		if c.IfNoneMatch != "*" && c.IfNoneMatch == current {
			return ErrPreconditionFailed
		}
	}

	if c.IfMatch != "" {
		if current == "" {
			// an absent target fails any If-Match, wildcard included
			return ErrPreconditionFailed
		}
		if c.IfMatch != "*" && c.IfMatch != current {
			return ErrPreconditionFailed
		}
	}

	return nil
}
