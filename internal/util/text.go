package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reNonNumeric = regexp.MustCompile(`[^\d.]`)
	reNonDigit   = regexp.MustCompile(`[^\d]`)
	reNonAlnum   = regexp.MustCompile(`[^A-Za-z0-9]`)
	reTabs       = regexp.MustCompile(`\t+`)
)

// NormalizeColumn maps a raw header cell to its canonical snake_case name.
func NormalizeColumn(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// CollapseSpaces trims and squeezes interior whitespace to single spaces.
func CollapseSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// CleanText strips whitespace control characters and everything outside
// [A-Za-z0-9], then upper-cases. Used for mapping-sheet identity columns.
func CleanText(input string) string {
	s := strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(input)
	s = reNonAlnum.ReplaceAllString(s, "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// StripNonASCII removes tab runs and any byte outside the ASCII range,
// then trims surrounding whitespace.
func StripNonASCII(input string) string {
	s := reTabs.ReplaceAllString(input, "")
	out := strings.Builder{}
	for _, r := range s {
		if r < 128 {
			out.WriteRune(r)
		}
	}
	return strings.TrimSpace(out.String())
}

// ParseNumeric coerces free text to a float by dropping every character
// that is not a digit or dot. Unparseable input yields zero.
func ParseNumeric(input string) float64 {
	s := reNonNumeric.ReplaceAllString(input, "")
	if s == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// ParseDigits keeps digits only and parses them as a nullable integer.
func ParseDigits(input string) *int64 {
	s := reNonDigit.ReplaceAllString(input, "")
	if s == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &parsed
}
