package identifiers

import (
	"fmt"
	"strings"
)

// separatorRunes are the whitespace and dash look-alikes tolerated between
// the digits of an ISBN.
var separatorRunes = []rune{
	0x0009, 0x0020, 0x00A0, 0x1680, 0x2000, 0x2001, 0x2002, 0x2003, 0x2004,
	0x2005, 0x2006, 0x2007, 0x2008, 0x2009, 0x200A, 0x202F, 0x205F, 0x3000,
	0x180E, 0x200B, 0x200C, 0x200D, 0x2060, 0xFEFF, 0x002D, 0x005F, 0x007E,
	0x00AD, 0x00AF, 0x02C9, 0x02CD, 0x02D7, 0x02DC, 0x2010, 0x2011, 0x2012,
	0x203E, 0x2043, 0x207B, 0x208B, 0x2212, 0x223C, 0x23AF, 0x23E4, 0x2500,
	0x2796, 0x2E3A, 0x2E3B, 0x10191, 0x2013, 0x2014, 0x2015, 0x2053, 0x058A,
	0x05BE, 0x1428, 0x1B78, 0x3161, 0x30FC, 0xFE63, 0xFF0D, 0x10110, 0x1104B,
	0x11052, 0x110BE, 0x1D360,
}

// SeparatorClass is an optional character class matching one separator.
var SeparatorClass = func() string {
	var b strings.Builder
	b.WriteString("[")
	for _, r := range separatorRunes {
		fmt.Fprintf(&b, `\x{%04X}`, r)
	}
	b.WriteString("]?")
	return b.String()
}()

// DefaultISBNRegex matches an optional 978/979 prefix followed by ten
// characters that look like an ISBN-10. Matches must not touch other digits;
// that boundary is enforced by the Extractor, since RE2 has no lookaround.
var DefaultISBNRegex = fmt.Sprintf(
	"(%[1]s9%[1]s7%[1]s[789]%[1]s)?((%[1]s[0-9]%[1]s){9}[0-9xX])",
	SeparatorClass,
)

// DefaultBlacklistRegex rejects synthetic numbers such as 0123456789 or the
// same digit repeated ten times.
const DefaultBlacklistRegex = `^(0123456789|0{10}|1{10}|2{10}|3{10}|4{10}|5{10}|6{10}|7{10}|8{10}|9{10}|[xX]{10})$`

// DefaultDirectFilesRegex selects MIME types that are searched as plain text.
const DefaultDirectFilesRegex = `^text/(plain|xml|html)$`

// DefaultIgnoredFilesRegex selects MIME types that can never contain a
// searchable ISBN.
const DefaultIgnoredFilesRegex = `^(image/(gif|svg.+)|application/(x-shockwave-flash|CDFV2|vnd\.ms-opentype|x-font-ttf|x-dosexec|vnd\.microsoft\.portable-executable|vnd\.ms-excel|x-java-applet)|font/.+|audio/.+|video/.+)$`

// DefaultReturnSeparator joins multiple ISBNs when they are displayed or
// written to a metadata record.
const DefaultReturnSeparator = " - "
