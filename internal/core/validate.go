package core

import "regexp"

var (
	phonePattern      = regexp.MustCompile(`^0[0-9]{3}-[0-9]{7}$`)
	nationalIDPattern = regexp.MustCompile(`^[0-9]{5}-[0-9]{7}-[0-9]$`)
)

// IsValidPhone reports whether s looks like 0300-1234567.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsValidNationalID reports whether s looks like 12345-1234567-1.
func IsValidNationalID(s string) bool {
	return nationalIDPattern.MatchString(s)
}
