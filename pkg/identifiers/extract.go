package identifiers

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// Status tags a candidate found in text.
type Status int

const (
	StatusValid Status = iota
	StatusInvalid
	StatusDuplicate
	StatusBlacklisted
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusDuplicate:
		return "duplicate"
	case StatusBlacklisted:
		return "blacklisted"
	default:
		return "unknown"
	}
}

// Candidate is a normalized ISBN-like match along with its verdict.
type Candidate struct {
	Value  string
	Status Status
}

// retryStripper removes the characters OCR tends to insert inside numbers.
var retryStripper = strings.NewReplacer("–", "", "—", "", "-", "", "·", "", ".", "", " ", "")

// Extractor finds valid, unique ISBNs in free text.
type Extractor struct {
	pattern *regexp.Regexp
	// whole is pattern anchored at both ends.
	whole     *regexp.Regexp
	blacklist *regexp.Regexp
}

// NewExtractor compiles the discovery and blacklist expressions. An empty
// blacklist disables blacklisting.
func NewExtractor(pattern, blacklist string) (*Extractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "invalid isbn regex")
	}
	e := &Extractor{pattern: re, whole: regexp.MustCompile(anchored(pattern))}
	if blacklist != "" {
		e.blacklist, err = regexp.Compile(blacklist)
		if err != nil {
			return nil, errors.Wrap(err, "invalid isbn blacklist regex")
		}
	}
	return e, nil
}

// DefaultExtractor returns an Extractor using the built-in expressions.
func DefaultExtractor() *Extractor {
	return &Extractor{
		pattern:   regexp.MustCompile(DefaultISBNRegex),
		whole:     regexp.MustCompile(anchored(DefaultISBNRegex)),
		blacklist: regexp.MustCompile(DefaultBlacklistRegex),
	}
}

// Find returns the valid ISBNs of text in the order they were first seen. If
// nothing is found, the text is searched a second and last time with dashes,
// dots and spaces removed.
func (e *Extractor) Find(ctx context.Context, text string) []string {
	log := logger.FromContext(ctx)

	isbns := validOnly(e.Scan(text))
	if len(isbns) > 0 {
		return isbns
	}

	stripped := retryStripper.Replace(text)
	if stripped != text {
		log.Debug("retrying isbn search without separators", logger.Data{"preview": preview(stripped)})
		isbns = validOnly(e.Scan(stripped))
	}
	if len(isbns) == 0 {
		log.Debug("no isbn found", logger.Data{"preview": preview(text)})
	}
	return isbns
}

// Scan makes a single pass over text and reports every match with its
// verdict. A candidate is a duplicate only if the same value was already
// accepted as valid.
func (e *Extractor) Scan(text string) []Candidate {
	var candidates []Candidate
	accepted := map[string]bool{}

	for _, raw := range e.matches(text) {
		value := NormalizeISBN(raw)
		c := Candidate{Value: value}
		switch {
		case accepted[value]:
			c.Status = StatusDuplicate
		case !IsValidISBN(value):
			c.Status = StatusInvalid
		case e.blacklist != nil && e.blacklist.MatchString(value):
			c.Status = StatusBlacklisted
		default:
			c.Status = StatusValid
			accepted[value] = true
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func anchored(pattern string) string {
	return `^(?:` + pattern + `)$`
}

// matches returns the raw substrings of text matched by the discovery
// pattern that are not directly preceded or followed by an ASCII digit. When
// the leftmost match runs into a digit, the longest shorter match from the
// same start that stops before one is used instead.
func (e *Extractor) matches(text string) []string {
	var out []string
	pos := 0
	for pos <= len(text) {
		loc := e.pattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if end > start && !digitBefore(text, start) && digitAt(text, end) {
			if shorter := e.shorterMatch(text, start, end); shorter > start {
				out = append(out, text[start:shorter])
				pos = shorter
				continue
			}
		}
		if end == start || digitBefore(text, start) || digitAt(text, end) {
			_, size := utf8.DecodeRuneInString(text[start:])
			if size == 0 {
				break
			}
			pos = start + size
			continue
		}
		out = append(out, text[start:end])
		pos = end
	}
	return out
}

// shorterMatch returns the largest end below end at which text[start:] is a
// whole match not followed by a digit, or -1.
func (e *Extractor) shorterMatch(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if !utf8.RuneStart(text[i]) || digitAt(text, i) {
			continue
		}
		if e.whole.MatchString(text[start:i]) {
			return i
		}
	}
	return -1
}

func digitBefore(text string, i int) bool {
	if i == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return r >= '0' && r <= '9'
}

func digitAt(text string, i int) bool {
	if i >= len(text) {
		return false
	}
	return text[i] >= '0' && text[i] <= '9'
}

func validOnly(candidates []Candidate) []string {
	var isbns []string
	for _, c := range candidates {
		if c.Status == StatusValid {
			isbns = append(isbns, c.Value)
		}
	}
	return isbns
}

func preview(text string) string {
	text = strings.ReplaceAll(text, "\n", "")
	if utf8.RuneCountInString(text) <= 100 {
		return text
	}
	return string([]rune(text)[:100])
}
