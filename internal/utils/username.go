package utils

import (
	"errors"
	"regexp"
	"strings"
)

// Usernames double as S3 bucket labels, so the character set is the
// intersection of what remoteStorage allows and what bucket naming allows.
var usernameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

var (
	ErrUsernameEmpty   = errors.New("`username` is empty")
	ErrUsernameInvalid = errors.New("`username` is not valid")
)

func ValidateUsername(username string) error {
	if username == "" {
		return ErrUsernameEmpty
	}

	lower := strings.ToLower(username)
	if !usernameRegex.MatchString(lower) {
		return ErrUsernameInvalid
	}
	if strings.Contains(lower, "..") || strings.Contains(lower, ".-") || strings.Contains(lower, "-.") {
		return ErrUsernameInvalid
	}

	return nil
}
