package catalog

import (
	"regexp"
	"strings"
)

// IdentifierScheme classifies free-form user input into the id space it
// belongs to. Detection is regex-first; anything unrecognized is a name.
type IdentifierScheme string

const (
	SchemeEncyclopedia  IdentifierScheme = "encyclopedia"   // fig-NNNNNN
	SchemeOpaqueID      IdentifierScheme = "opaque_id"      // BrickOwl numeric id
	SchemeCollectorCode IdentifierScheme = "collector_code" // sw0010, njo123a
	SchemeSetNumber     IdentifierScheme = "set_number"     // 75192, 10294-1
	SchemeName          IdentifierScheme = "name"
)

var (
	encyclopediaRe  = regexp.MustCompile(`^fig-\d{6}$`)
	opaqueIDRe      = regexp.MustCompile(`^\d+$`)
	collectorCodeRe = regexp.MustCompile(`^[a-z]{2,4}\d+[a-z]?$`)
	setNumberRe     = regexp.MustCompile(`^\d{3,7}(-\d)?$`)
)

// DetectIdentifier classifies input for the given kind. Set lookups only
// distinguish set numbers from names; the minifig id spaces are richer.
func DetectIdentifier(input string, kind ItemKind) IdentifierScheme {
	s := strings.ToLower(strings.TrimSpace(input))
	if kind == KindSet {
		if setNumberRe.MatchString(s) {
			return SchemeSetNumber
		}
		return SchemeName
	}
	switch {
	case encyclopediaRe.MatchString(s):
		return SchemeEncyclopedia
	case opaqueIDRe.MatchString(s):
		return SchemeOpaqueID
	case collectorCodeRe.MatchString(s):
		return SchemeCollectorCode
	default:
		return SchemeName
	}
}

// NormalizeIdentifier lower-cases and trims input for cache keys and
// row lookups.
func NormalizeIdentifier(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
