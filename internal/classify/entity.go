package classify

import (
	"regexp"
	"strings"

	"kbsync/internal/util"
)

// AliasRule rewrites a known company-name variant to its canonical
// spelling. Alias rules are not exclusive branches: each one is an
// unconditional replace-if-match, applied in sequence, so a later rule
// sees (and may overwrite) the result of an earlier one.
type AliasRule struct {
	pattern   *regexp.Regexp
	Canonical string
}

func alias(pattern, canonical string) AliasRule {
	return AliasRule{pattern: regexp.MustCompile(`(?i)` + pattern), Canonical: canonical}
}

// ExporterAliases standardizes Indian exporter names.
var ExporterAliases = []AliasRule{
	alias(`\bKAY\sBEE\b`, "KAY BEE EXPORTS"),
	alias(`\bMAGNUS\b`, "MAGNUS FARM"),
	alias(`\bFRESHTROP FRUITS\b`, "FRESHTROP FRUITS"),
	alias(`\bGREEN AGREVOLUTION\b`, "GREEN AGREVOLUTION"),
	alias(`\bBARAMATI\b`, "BARAMATI AGRO"),
	alias(`\bULINK AGRITECH\b`, "ULINK AGRITECH"),
	alias(`\bSAM AGRI FRESH\b`, "SAM AGRI FRESH"),
	alias(`\bSANTOSH EXPORTS\b`, "SANTOSH EXPORTS"),
	alias(`\bKASHI EXPORTS\b`, "KASHI EXPORTS"),
	alias(`\bKHUSHI INTERNATIONAL\b`, "KHUSHI INTERNATIONAL"),
	alias(`\bGO GREEN\b`, "GO GREEN EXPORT"),
	alias(`\bTHREE CIRCLES\b`, "THREE CIRCLES"),
	alias(`\bALL SEASON\b`, "ALL SEASON EXPORTS"),
	alias(`\bM\.?\s*K\.?\s*EXPORTS\b`, "M.K. EXPORTS"),
	alias(`\bESSAR IMPEX\b`, "ESSAR IMPEX"),
	alias(`\bESSAR EXPORTS\b`, "ESSAR EXPORTS"),
	alias(`\bSUPER FRESH FRUITS\b`, "SUPER FRESH FRUIT"),
	alias(`\bVASHINI EXPORTS\b`, "VASHINI EXPORTS"),
	alias(`\bSCION AGRICOS\b`, "SCION AGRICOS"),
	alias(`\bMANTRA INTERNATIONAL\b`, "MANTRA INTERNATIONAL"),
	alias(`\bSIA IMPEX\b`, "SIA IMPEX"),
}

// ImporterAliases standardizes foreign importer names.
var ImporterAliases = []AliasRule{
	alias(`\bWealmoor|Weal Moor\b`, "WEAL MOOR LTD"),
	alias(`\bFLAMINGO|FLAMINGO PRODUCE\b`, "FLAMINGO PRODUCE"),
	alias(`\bMINOR|MINOR, WEIR AND WILLIS LIMITED|MINOR WEIR & WILLIS LIMITED\b`, "MINOR WEIR & WILLIS LIMITED"),
	alias(`\bNATURE'S PRIDE\b`, "NATURE'S PRIDE"),
	alias(`\bYUKON\b`, "YUKON INTERNATION"),
	alias(`\bJALARAM PRODUCE\b`, "JALARAM PRODUCE"),
	alias(`\bRAJA FOODS & VEGETABLE\b`, "RAJA FOODS & VEGETABLES"),
	alias(`\bDPS\b`, "DPS"),
	alias(`\bBARAKAT\b`, "BARAKAT VEGETABLE"),
	alias(`\bBARFOOTS\b`, "BARFOOTS OF BOTELY"),
	alias(`\bCORFRESH|COREFRESH\b`, "COREFRESH LTD"),
	alias(`\bPROVENANCE PARTNERS\b`, "PROVENANCE PARTNERS"),
	alias(`\bS & F GLOBAL|S&F GLOBAL\b`, "S & F GLOBAL FRESH"),
	alias(`\bBERRYMOUNT VEGETABLES\b`, "BERRYMOUNT VEGETABLES"),
}

// ApplyAliases runs every rule in order against the running value.
func ApplyAliases(name string, rules []AliasRule) string {
	out := name
	for _, r := range rules {
		if r.pattern.MatchString(out) {
			out = r.Canonical
		}
	}
	return out
}

var (
	reNonEntity   = regexp.MustCompile(`[^A-Z0-9 ]+`)
	reLeadingTo   = regexp.MustCompile(`^(Z\s+)?TO\s+`)
	reSpacedNA    = regexp.MustCompile(`\bN\s*A\b`)
	reBareNA      = regexp.MustCompile(`\bNA\b`)
	reOrderTypo   = regexp.MustCompile(`\b(OREDER|ORDDER|OTDER|ORDFER|ORER|OEDER|ORDR|ORDE|OREDR|OREDRR)\b`)
	reToOrderFull = regexp.MustCompile(`^TO\s+(THE\s+)?ORDER$`)
	rePunctOnly   = regexp.MustCompile(`^[.\-/\\ ]*$`)
	reBlankEntity = regexp.MustCompile(`^[\s.,]*$`)
)

// CleanToTheOrder normalizes a free-text consignee name into its canonical
// "TO ORDER" family form, or returns the cleaned name unchanged when it is
// a real entity. Idempotent.
func CleanToTheOrder(name string) string {
	if strings.TrimSpace(name) == "" {
		return "TO ORDER"
	}

	s := strings.ToUpper(name)
	s = reNonEntity.ReplaceAllString(s, " ")
	s = util.CollapseSpaces(s)
	s = reLeadingTo.ReplaceAllString(s, "TO ")
	s = reSpacedNA.ReplaceAllString(s, "")
	s = reBareNA.ReplaceAllString(s, "")
	s = reOrderTypo.ReplaceAllString(s, "ORDER")
	s = util.CollapseSpaces(s)

	if reToOrderFull.MatchString(s) {
		return "TO ORDER"
	}

	if strings.HasPrefix(s, "TO THE ORDER OF") {
		entity := strings.TrimSpace(strings.TrimPrefix(s, "TO THE ORDER OF"))
		if entity == "" || rePunctOnly.MatchString(entity) {
			return "TO ORDER"
		}
		return "TO THE ORDER OF " + entity
	}

	if strings.HasPrefix(s, "TO ORDER OF") {
		entity := strings.TrimSpace(strings.TrimPrefix(s, "TO ORDER OF"))
		if entity == "" || rePunctOnly.MatchString(entity) {
			return "TO ORDER"
		}
		return "TO ORDER OF " + entity
	}

	if strings.HasPrefix(s, "TO THE ORDER") {
		return "TO THE ORDER"
	}
	if strings.HasPrefix(s, "TO ORDER") {
		return "TO ORDER"
	}

	return s
}

// CanonicalizeEntity is the full importer/exporter cleanup applied during
// file import: blank or punctuation-only names become "TO ORDER", stray
// quoting is trimmed, then the generic cleanup runs.
func CanonicalizeEntity(name string) string {
	if reBlankEntity.MatchString(name) {
		name = "TO ORDER"
	}
	name = strings.Trim(name, " \t\n\r\",.*&")
	return CleanToTheOrder(name)
}
