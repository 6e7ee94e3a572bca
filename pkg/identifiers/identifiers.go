// pkg/identifiers/identifiers.go
package identifiers

import (
	"strings"
)

// Type represents the kind of a validated ISBN.
type Type string

const (
	TypeISBN10  Type = "isbn_10"
	TypeISBN13  Type = "isbn_13"
	TypeUnknown Type = ""
)

// DetectType returns the ISBN type of an already normalized value, or
// TypeUnknown when the checksum does not hold.
func DetectType(isbn string) Type {
	switch {
	case len(isbn) == 13 && ValidateISBN13(isbn):
		return TypeISBN13
	case len(isbn) == 10 && ValidateISBN10(isbn):
		return TypeISBN10
	default:
		return TypeUnknown
	}
}

// NormalizeISBN removes everything but the ASCII digits and the X check
// character, so "ISBN 978–0-306 40615·7" becomes "9780306406157".
func NormalizeISBN(value string) string {
	var result strings.Builder
	result.Grow(len(value))
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			result.WriteRune(r)
		case r == 'x' || r == 'X':
			result.WriteRune('X')
		}
	}
	return result.String()
}

// IsValidISBN validates a normalized ISBN-10 or ISBN-13.
func IsValidISBN(isbn string) bool {
	return DetectType(isbn) != TypeUnknown
}

// ValidateISBN10 validates an ISBN-10 checksum.
// ISBN-10 uses modulo 11 with weights 10,9,8,7,6,5,4,3,2,1.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}

	var sum int
	for i := 0; i < len(isbn); i++ {
		var digit int
		c := isbn[i]
		switch {
		case c == 'X' || c == 'x':
			if i != 9 {
				return false // X only valid as last digit
			}
			digit = 10
		case c >= '0' && c <= '9':
			digit = int(c - '0')
		default:
			return false
		}
		sum += digit * (10 - i)
	}
	return sum%11 == 0
}

// ValidateISBN13 validates an ISBN-13 checksum. Only the 978 and 979
// Bookland prefixes are accepted.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	if !strings.HasPrefix(isbn, "978") && !strings.HasPrefix(isbn, "979") {
		return false
	}

	var sum int
	for i := 0; i < len(isbn); i++ {
		c := isbn[i]
		if c < '0' || c > '9' {
			return false
		}
		digit := int(c - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}
	return sum%10 == 0
}
