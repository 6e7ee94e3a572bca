package fileutils

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const maxDisplayLength = 150

var (
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	repeatedSpaces       = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a rendered filename safe to create on any common
// filesystem. The extension is preserved.
func SanitizeFilename(name string) string {
	name = invalidFilenameChars.ReplaceAllString(name, "")
	name = repeatedSpaces.ReplaceAllString(name, " ")
	name = strings.Trim(name, " ")

	ext := filepath.Ext(name)
	stem := strings.Trim(strings.TrimSuffix(name, ext), " .")
	if len(stem) > 200 {
		stem = strings.Trim(truncateBytes(stem, 200), " .")
	}
	if stem == "" {
		stem = "Unknown"
	}
	return stem + ext
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// DisplayPath shortens path to its last two components for log and report
// output, in NFC form so decomposed names from macOS print consistently.
func DisplayPath(path string) string {
	path = norm.NFC.String(filepath.Clean(path))
	dir, base := filepath.Split(path)
	parent := filepath.Base(dir)
	display := base
	if dir != "" && parent != string(filepath.Separator) && parent != "." {
		display = parent + string(filepath.Separator) + base
	} else if dir != "" {
		display = string(filepath.Separator) + base
	}

	if r := []rune(display); len(r) > maxDisplayLength {
		display = string(r[:maxDisplayLength])
	}
	return display
}
