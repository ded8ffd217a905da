package listing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/brickwatch/brickwatch/pkg/utils"
)

const fingerprintTitlePrefix = 50

// Fingerprint produces the stable 16-hex-char identity of a listing.
// It depends only on (source, seller, title prefix, €10 price bucket),
// never on shipping or destination, so the same offer seen from two
// ship-to countries or with a micro-adjusted price collapses to one
// fingerprint. Format is frozen: first 16 hex chars of
// sha256("{source}|{seller_or_unknown}|{lower(title)[:50]}|{bucket}").
func Fingerprint(source Source, sellerID, title string, price float64) string {
	seller := sellerID
	if seller == "" {
		seller = "unknown"
	}
	t := strings.TrimSpace(strings.ToLower(title))
	if len(t) > fingerprintTitlePrefix {
		t = t[:fingerprintTitlePrefix]
	}
	payload := fmt.Sprintf("%s|%s|%s|%d", source, seller, t, utils.PriceBucket(price))
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}
