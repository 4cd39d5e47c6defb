// Package identity defines the badge identifier format and enrolled records.
package identity

import (
	"errors"
	"fmt"
	"strconv"
)

// DescriptorDim is the length of a face descriptor vector.
const DescriptorDim = 128

// CanonicalLength is the number of digits in a canonical identifier.
const CanonicalLength = 7

// typeDigit is the fixed third digit of every badge identifier.
const typeDigit = '4'

// ErrInvalidIdentifier is returned when a string is not a canonical identifier.
var ErrInvalidIdentifier = errors.New("invalid identifier")

// Valid reports whether s is a canonical identifier: exactly 7 digits
// in the form YY4#### (two-digit enrollment year, literal '4', four-digit
// unique sequence).
func Valid(s string) bool {
	if len(s) != CanonicalLength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s[2] == typeDigit
}

// Parse validates s and returns it as a canonical identifier.
func Parse(s string) (string, error) {
	if !Valid(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return s, nil
}

// Display formats a canonical identifier with separators (YY-4-####).
// Invalid input is returned unchanged.
func Display(s string) string {
	if !Valid(s) {
		return s
	}
	return s[:2] + "-" + s[2:3] + "-" + s[3:]
}

// EnrollmentYear returns the two-digit enrollment year of a canonical
// identifier (enrollment year mod 100).
func EnrollmentYear(s string) (int, error) {
	if !Valid(s) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return year, nil
}

// Sequence returns the trailing four-digit sequence, unique across all
// enrolled identities.
func Sequence(s string) (string, error) {
	if !Valid(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return s[3:], nil
}

// Record is one enrolled identity. Records are created by the external
// registration workflow and are read-only during verification.
type Record struct {
	Identifier  string
	Name        string
	Unit        string
	Cohort      string
	Contact     string
	Descriptors [][]float32 // reference face descriptors, each DescriptorDim long
}

// HasDescriptors reports whether the record carries at least one reference
// descriptor of the expected dimension.
func (r *Record) HasDescriptors() bool {
	for _, d := range r.Descriptors {
		if len(d) == DescriptorDim {
			return true
		}
	}
	return false
}
