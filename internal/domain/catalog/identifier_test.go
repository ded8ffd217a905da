package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
)

func TestDetectIdentifier_MinifigSchemes(t *testing.T) {
	cases := map[string]catalog.IdentifierScheme{
		"fig-001234":       catalog.SchemeEncyclopedia,
		"123456":           catalog.SchemeOpaqueID,
		"sw0010":           catalog.SchemeCollectorCode,
		"njo123a":          catalog.SchemeCollectorCode,
		"hp150":            catalog.SchemeCollectorCode,
		"Darth Maul":       catalog.SchemeName,
		"fig-12":           catalog.SchemeName,
		"clone trooper v2": catalog.SchemeName,
	}

	for input, want := range cases {
		assert.Equal(t, want, catalog.DetectIdentifier(input, catalog.KindMinifig), "input %q", input)
	}
}

func TestDetectIdentifier_SetSchemes(t *testing.T) {
	// For sets every bare number is a set number, never an opaque id.
	assert.Equal(t, catalog.SchemeSetNumber, catalog.DetectIdentifier("75192", catalog.KindSet))
	assert.Equal(t, catalog.SchemeSetNumber, catalog.DetectIdentifier("10294-1", catalog.KindSet))
	assert.Equal(t, catalog.SchemeSetNumber, catalog.DetectIdentifier("497", catalog.KindSet))
	assert.Equal(t, catalog.SchemeName, catalog.DetectIdentifier("Millennium Falcon", catalog.KindSet))
	assert.Equal(t, catalog.SchemeName, catalog.DetectIdentifier("sw0010", catalog.KindSet))
}

func TestDetectIdentifier_TrimsAndLowercases(t *testing.T) {
	assert.Equal(t, catalog.SchemeCollectorCode, catalog.DetectIdentifier("  SW0010  ", catalog.KindMinifig))
	assert.Equal(t, catalog.SchemeEncyclopedia, catalog.DetectIdentifier("FIG-001234", catalog.KindMinifig))
}

func TestNormalizeIdentifier(t *testing.T) {
	assert.Equal(t, "sw0010", catalog.NormalizeIdentifier("  SW0010 "))
	assert.Equal(t, "darth maul", catalog.NormalizeIdentifier("Darth Maul"))
}
