// Package classify holds the product classification rule table and the
// exporter/importer name standardization passes. The rule table is the
// single source of truth for every classification call site: the customs
// file import, the ad hoc processor and the reclassification job.
package classify

import "regexp"

// Unclassified is the fallback label when no rule fires.
const Unclassified = "UNCLASSIFIED"

// Rule matches a product description when its include pattern matches and
// its exclude pattern does not. Rules are evaluated in declaration order;
// the first satisfied rule wins and later rules are never consulted.
type Rule struct {
	Label   string
	include *regexp.Regexp
	exclude *regexp.Regexp
}

func rule(label, include, exclude string) Rule {
	return Rule{
		Label:   label,
		include: regexp.MustCompile(`(?i)` + include),
		exclude: regexp.MustCompile(`(?i)` + exclude),
	}
}

var classificationRules = []Rule{
	rule("COCONUT",
		`\bcoconut\b`,
		`\b(slice|frozen|cut|dry|dried|powder|milk|chunk|juice|ice)\b`),
	rule("FRESH GARLIC",
		`\bgarlic\b`,
		`\b(slice|frozen|cut|dry|dried|powder|ice)\b`),
	rule("MIX FRUITS & VEG",
		`\b(mixed fruits|mixed vegetables|mix fruit|mix vegetables|mix vegitable|mixed vegetables)\b`,
		`\b(slice|frozen|cut|dry|dried|powder|milk|chunk|juice|ice)\b`),
	rule("DRUMSTICK",
		`\bdrumsticks?\b`,
		`\b(slice|frozen|cut|dry|dried|powder|milk|chunk|juice|ice)\b`),
	rule("DRAGON FRUITS",
		`\bdragon\b`,
		`\b(slice|frozen|cut|dry|dried|powder|milk|chunk|juice|ice)\b`),
	rule("MANGO",
		`\b(mango|alphanso)\b`,
		`\b(pulp|slice|frozen|cut mango|pickle|papad|cut|dry|dried|powder|raw|juice)\b`),
	rule("BABY CORN",
		`\b(baby|babycorn|baby corn)\b`,
		`\b(okra|potato|frozen|iqf|cut|brine|acetic|acid|onion|bananas?|wheat|babyvita|bitter)\b`),
	rule("POMEGRANATES",
		`\b(pome|anar|pomegranate)\b`,
		`\b(aril|pulp|arils|dhana|dana|frozen|iqf|cut|brine)\b`),
	rule("POMEGRANATES ARILS",
		`\b(aril|pomegranate arils|arils)\b`,
		`\b(vinegar|frozen|iqf|cut|brine|acetic|acid|dry|dried)\b`),
	rule("OKRA",
		`\b(okra|lady finger)\b`,
		`\b(frozen|iqf|cut|brine|acetic|acid|dry|dried)\b`),
	rule("CHILLI",
		`\b(chilli|chilly)\b`,
		`\b(frozen|iqf|cut|brine|acetic|acid|dry|dried)\b`),
	rule("GUAVA",
		`\b(guava|peru)\b`,
		`\b(pulp|iqf|cut|brine|acetic|acid|dry|dried)\b`),
	rule("CHICKOO",
		`\b(sapota|chickoo)\b`,
		`\b(pulp|slice|iqf|cut|brine|acetic|acid|dry|dried|frozen)\b`),
	rule("DUDHI",
		`\b(dudhi|bottle gourd|bottleguard)\b`,
		`\b(pulp|slice|iqf|cut|brine|acetic|acid|dry|dried|frozen)\b`),
	rule("ONION",
		`\b(red onion|shallot|small onion|onion)\b`,
		`\b(iqf|cut|brine|acetic|acid|dry|dried|frozen)\b`),
}

// Classify maps a free-text product description to a taxonomy label.
// A rule whose exclude pattern matches does not fire, but evaluation
// continues with the remaining rules.
func Classify(description string) string {
	for _, r := range classificationRules {
		if r.include.MatchString(description) && !r.exclude.MatchString(description) {
			return r.Label
		}
	}
	return Unclassified
}
