package parser

import (
	"regexp"
	"strings"
	"unicode"
)

// letters is the character class that counts as word text in headers,
// template arguments, assignment keys and category links.
const letters = `\pL\p{Cyrillic}\p{Hebrew}\x{0301}\pM`

// space matches Unicode white space plus the byte order mark.
const space = `\s\x{0B}\x{00A0}\x{1680}\x{2000}-\x{200A}\x{2028}\x{2029}\x{202F}\x{205F}\x{3000}\x{FEFF}`

var (
	// Header patterns are unanchored; a level-4 line also satisfies the
	// weaker ones, so they are tried from level 4 down.
	headerPatterns = [...]*regexp.Regexp{
		regexp.MustCompile(`====[ ` + letters + `{}()]+====`),
		regexp.MustCompile(`===[ ` + letters + `{}()]+===`),
		regexp.MustCompile(`==[ ` + letters + `{}()]+==`),
		regexp.MustCompile(`=[ ` + letters + `{}()]+=`),
	}

	categoryPattern = regexp.MustCompile(`\[\[[ ` + letters + `]+:.+\]\]`)

	outsideAssignmentPattern = regexp.MustCompile(`^[ ` + letters + `-]+:`)
	assignmentPattern        = regexp.MustCompile(`^[ ` + letters + `]+=[` + letters + ` {}|\n]`)

	bulletSplit1 = regexp.MustCompile(`(?:^|[` + space + `])[*#][` + space + `]`)
	bulletSplit2 = regexp.MustCompile(`(?:^|[` + space + `])(?:[*#]{2}|#\*)[` + space + `]`)
	bulletSplit3 = regexp.MustCompile(`(?:^|[` + space + `])(?:[*#]{3}|#\*)[` + space + `]`)

	markerStripper = strings.NewReplacer("\n", "", "#", "", "*", "")
	bulletEscape   = strings.NewReplacer("**:", "***")
)

// headerLevel returns 1-4 for a header line and 0 for body text.
func headerLevel(line string) int {
	for i, re := range headerPatterns {
		if re.MatchString(line) {
			return len(headerPatterns) - i
		}
	}
	return 0
}

func headerTitle(line string) string {
	return strings.TrimSpace(strings.ReplaceAll(line, "=", ""))
}

// childSplit returns the bullet delimiter for list items nested at level.
func childSplit(level int) *regexp.Regexp {
	if level == 2 {
		return bulletSplit2
	}
	return bulletSplit3
}

func isLetter(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsMark(r) ||
		unicode.Is(unicode.Cyrillic, r) ||
		unicode.Is(unicode.Hebrew, r)
}

// isLeadingSeparator reports bytes skipped before a template opens.
func isLeadingSeparator(c byte) bool {
	return c == ' ' || c == ',' || c == '{'
}

func isLabelByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '(' || c == ')'
}

// stripBraces trims a captured template down to its interior.
func stripBraces(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "{{")
	return strings.TrimSuffix(s, "}}")
}
