// Package metadata parses the calibre style "Key : value" metadata text into
// a record and renders new filenames from it.
package metadata

import (
	"fmt"
	"regexp"
	"strings"
)

const maxValueLength = 100

var (
	invalidKeyChars   = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	invalidValueChars = regexp.MustCompile("[\\\\/*?<>|\x01-\x1f\x7f\"$`]")
)

// Field is a single normalized key/value pair.
type Field struct {
	Key   string
	Value string
}

// Record keeps fields in the order they were first set. Setting an existing
// key replaces its value in place.
type Record struct {
	fields []Field
	index  map[string]int
}

func NewRecord() *Record {
	return &Record{index: map[string]int{}}
}

// ParseRecord builds a record from metadata text. EXT is set first from
// ext, then every line with a colon contributes a field named after the
// text before its first colon.
func ParseRecord(text, ext string) *Record {
	r := NewRecord()
	r.Set("EXT", ext)
	for _, line := range strings.Split(text, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		r.Set(name, value)
	}
	return r
}

// Set normalizes key and value and stores them. Keys that are empty after
// normalization are dropped.
func (r *Record) Set(key, value string) {
	key = NormalizeKey(key)
	if key == "" {
		return
	}
	value = NormalizeValue(value)
	if i, ok := r.index[key]; ok {
		r.fields[i].Value = value
		return
	}
	r.index[key] = len(r.fields)
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

func (r *Record) Get(key string) string {
	if i, ok := r.index[NormalizeKey(key)]; ok {
		return r.fields[i].Value
	}
	return ""
}

func (r *Record) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

// Map returns the fields keyed by name, for template execution.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value
	}
	return m
}

// NormalizeKey turns "Author(s)   " into "AUTHORS".
func NormalizeKey(key string) string {
	key = strings.TrimRight(key, " \t\r")
	key = strings.ReplaceAll(key, " ", "_")
	key = invalidKeyChars.ReplaceAllString(key, "")
	return strings.ToUpper(key)
}

// NormalizeValue replaces characters that are unsafe in filenames with an
// underscore, trims it and caps it to 100 characters.
func NormalizeValue(value string) string {
	value = strings.TrimRight(value, "\r\n")
	value = strings.TrimSpace(invalidValueChars.ReplaceAllString(value, "_"))
	if r := []rune(value); len(r) > maxValueLength {
		value = strings.TrimSpace(string(r[:maxValueLength]))
	}
	return value
}

// Lookup returns the trimmed value of the first line of text starting with
// key, or an empty string.
func Lookup(text, key string) string {
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, key) {
			continue
		}
		_, value, _ := strings.Cut(line, ":")
		return strings.TrimSpace(value)
	}
	return ""
}

// Line formats a field the way calibre prints it.
func Line(key, value string) string {
	return fmt.Sprintf("%-20s: %s", key, value)
}
