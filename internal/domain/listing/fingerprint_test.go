package listing_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brickwatch/brickwatch/internal/domain/listing"
)

func TestFingerprint_Format(t *testing.T) {
	fp := listing.Fingerprint(listing.SourceEbay, "bricks4you", "LEGO sw0010 Darth Maul", 45.00)

	assert.Len(t, fp, 16)
	assert.Equal(t, strings.ToLower(fp), fp)
	for _, c := range fp {
		assert.Contains(t, "0123456789abcdef", string(c))
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := listing.Fingerprint(listing.SourceEbay, "bricks4you", "LEGO sw0010 Darth Maul", 45.00)
	b := listing.Fingerprint(listing.SourceEbay, "bricks4you", "LEGO sw0010 Darth Maul", 45.00)

	assert.Equal(t, a, b)
}

func TestFingerprint_PriceBucketCollapses(t *testing.T) {
	// Micro-adjustments inside the same €10 bucket keep the identity.
	base := listing.Fingerprint(listing.SourceEbay, "s1", "LEGO sw0010 Darth Maul", 42.00)

	assert.Equal(t, base, listing.Fingerprint(listing.SourceEbay, "s1", "LEGO sw0010 Darth Maul", 49.99))
	assert.NotEqual(t, base, listing.Fingerprint(listing.SourceEbay, "s1", "LEGO sw0010 Darth Maul", 50.00))
}

func TestFingerprint_TitleCaseAndPrefix(t *testing.T) {
	// Case-insensitive, and only the first 50 characters count.
	long := strings.Repeat("x", 50)

	assert.Equal(t,
		listing.Fingerprint(listing.SourceEbay, "s1", "LEGO Darth Maul", 45),
		listing.Fingerprint(listing.SourceEbay, "s1", "lego darth maul", 45))
	assert.Equal(t,
		listing.Fingerprint(listing.SourceEbay, "s1", long+" trailing noise", 45),
		listing.Fingerprint(listing.SourceEbay, "s1", long+" different tail", 45))
}

func TestFingerprint_DistinguishesSourceAndSeller(t *testing.T) {
	base := listing.Fingerprint(listing.SourceEbay, "s1", "LEGO sw0010 Darth Maul", 45)

	assert.NotEqual(t, base, listing.Fingerprint(listing.SourceBrickOwl, "s1", "LEGO sw0010 Darth Maul", 45))
	assert.NotEqual(t, base, listing.Fingerprint(listing.SourceEbay, "s2", "LEGO sw0010 Darth Maul", 45))
}

func TestFingerprint_EmptySellerNormalized(t *testing.T) {
	assert.Equal(t,
		listing.Fingerprint(listing.SourceEbay, "", "LEGO sw0010 Darth Maul", 45),
		listing.Fingerprint(listing.SourceEbay, "unknown", "LEGO sw0010 Darth Maul", 45))
}
