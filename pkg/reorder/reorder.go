// Package reorder moves the front and back matter of a document ahead of its
// body, so that the ISBN of the book itself is found before the ISBNs of
// the books it cites.
package reorder

import (
	"strings"
)

// Options controls the reordering. FirstLines lines are kept at the top in
// their original order, then the LastLines final lines follow in reverse
// order, then everything in between.
type Options struct {
	Enabled    bool
	FirstLines int
	LastLines  int
}

// Disabled returns options that leave content untouched.
func Disabled() Options {
	return Options{}
}

// String reorders content according to opts. Every line of the output is
// newline terminated so that reversed lines never merge together.
func String(content string, opts Options) string {
	if !opts.Enabled || content == "" {
		return content
	}

	lines := SplitLines(content)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n"
	}
	return strings.Join(Lines(lines, opts.FirstLines, opts.LastLines), "")
}

// Lines returns the first `first` lines, then the last `last` of the
// remaining lines reversed, then the rest. No line appears twice.
func Lines(lines []string, first, last int) []string {
	first = clamp(first, len(lines))
	remaining := lines[first:]
	last = clamp(last, len(remaining))
	middle := remaining[:len(remaining)-last]
	tail := remaining[len(remaining)-last:]

	out := make([]string, 0, len(lines))
	out = append(out, lines[:first]...)
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	out = append(out, middle...)
	return out
}

// SplitLines splits content after each newline, keeping the terminators.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
