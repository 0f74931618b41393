// Package region maps free-text country names to continent names.
package region

import (
	"regexp"
	"strings"

	"github.com/biter777/countries"
)

// Unknown is the fallback region for unrecognized country names.
const Unknown = "Unknown"

var reNonAlpha = regexp.MustCompile(`[^A-Z ]`)

// CleanCountry reduces a raw country cell to the title-cased letters-only
// form the lookup expects.
func CleanCountry(input string) string {
	s := strings.ToUpper(input)
	s = reNonAlpha.ReplaceAllString(s, "")
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Resolve returns the continent for a cleaned country name, or Unknown.
func Resolve(countryName string) string {
	name := CleanCountry(countryName)
	if name == "" {
		return Unknown
	}
	country := countries.ByName(name)
	if country == countries.Unknown {
		return Unknown
	}
	region := country.Region()
	if region == countries.RegionUnknown {
		return Unknown
	}
	return region.String()
}
