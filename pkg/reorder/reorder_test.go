package reorder

import (
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func numbered(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %d\n", i+1)
	}
	return lines
}

func TestLines(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e", "f"}

	tests := []struct {
		name     string
		first    int
		last     int
		expected []string
	}{
		{"front and back", 2, 2, []string{"a", "b", "f", "e", "c", "d"}},
		{"no back", 2, 0, []string{"a", "b", "c", "d", "e", "f"}},
		{"no front", 0, 3, []string{"f", "e", "d", "a", "b", "c"}},
		{"front covers everything", 10, 3, []string{"a", "b", "c", "d", "e", "f"}},
		{"overlapping ranges", 4, 4, []string{"a", "b", "c", "d", "f", "e"}},
		{"negative values", -1, -1, []string{"a", "b", "c", "d", "e", "f"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Lines(lines, tt.first, tt.last))
		})
	}
}

func TestLinesKeepsEveryLineOnce(t *testing.T) {
	for _, size := range []int{0, 1, 5, 60} {
		for _, first := range []int{0, 1, 3, 50, 400} {
			for _, last := range []int{0, 1, 2, 50} {
				name := fmt.Sprintf("size=%d first=%d last=%d", size, first, last)
				t.Run(name, func(t *testing.T) {
					in := numbered(size)
					out := Lines(in, first, last)

					sortedIn := append([]string{}, in...)
					sortedOut := append([]string{}, out...)
					sort.Strings(sortedIn)
					sort.Strings(sortedOut)
					assert.Equal(t, sortedIn, sortedOut)
				})
			}
		}
	}
}

func TestString(t *testing.T) {
	content := "copyright\nbody 1\nbody 2\nback cover"

	assert.Equal(t, content, String(content, Disabled()))
	assert.Equal(t,
		"copyright\nback cover\nbody 2\nbody 1\n",
		String(content, Options{Enabled: true, FirstLines: 1, LastLines: 3}),
	)
	assert.Equal(t, "", String("", Options{Enabled: true, FirstLines: 1, LastLines: 1}))
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a\n", "b"}, SplitLines("a\nb"))
	assert.Equal(t, []string{"a\n", "b\n"}, SplitLines("a\nb\n"))
}
