// pkg/identifiers/identifiers_test.go
package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectType(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected Type
	}{
		{"isbn13", "9780316769488", TypeISBN13},
		{"isbn10", "0316769487", TypeISBN10},
		{"isbn10 with X", "080442957X", TypeISBN10},
		{"bad checksum", "9780316769489", TypeUnknown},
		{"wrong prefix", "1234567890128", TypeUnknown},
		{"random value", "random text", TypeUnknown},
		{"empty", "", TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectType(tt.value))
		})
	}
}

func TestValidateISBN10(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"0316769487", true},
		{"080442957X", true},
		{"0451524934", true},   // 1984 by George Orwell
		{"0306406152", true},   // canonical example
		{"0123456789", true},   // checksum holds, rejected by the blacklist instead
		{"0316769488", false},  // bad checksum
		{"03167694X7", false},  // X not in last position
		{"123456789", false},   // too short
		{"12345678901", false}, // too long
		{"03O6406152", false},  // letter O instead of zero
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateISBN10(tt.value))
		})
	}
}

func TestValidateISBN13(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"9780316769488", true},
		{"9780804429573", true},
		{"9780306406157", true},
		{"9780316769489", false},  // bad checksum
		{"1234567890128", false},  // checksum holds but not a Bookland prefix
		{"978031676948", false},   // too short
		{"97803167694888", false}, // too long
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateISBN13(tt.value))
		})
	}
}

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"978-0-316-76948-8", "9780316769488"},
		{"0-316-76948-7", "0316769487"},
		{"978 0 316 76948 8", "9780316769488"},
		{"ISBN: 9780316769488", "9780316769488"},
		{"080442957x", "080442957X"},
		{"978–0·306 40615 7", "9780306406157"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeISBN(tt.value))
		})
	}
}
