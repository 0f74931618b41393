package util

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reWeightValue  = regexp.MustCompile(`(\d+\.?\d*)`)
	reCourierNoise = regexp.MustCompile(`(?i)\bsurface\w*\b|\b\d+\s?(kg|kgs|gm|gms)\b`)
)

// ParseWeight extracts the first numeric token from a free-text weight
// such as "1.2 kg" or "2.5 Kgs". Unparseable values yield zero.
func ParseWeight(input string) float64 {
	m := reWeightValue.FindString(input)
	if m == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// CleanCourier strips weight annotations and "surface" markers that
// couriers embed in their display names.
func CleanCourier(input string) string {
	return strings.TrimSpace(reCourierNoise.ReplaceAllString(input, ""))
}
