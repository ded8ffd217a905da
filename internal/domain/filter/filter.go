package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/brickwatch/brickwatch/internal/domain/catalog"
	"github.com/brickwatch/brickwatch/internal/domain/listing"
	"github.com/brickwatch/brickwatch/internal/domain/watch"
)

const (
	// Minifig price sanity bounds, EUR landed.
	minifigPriceFloor   = 0.50
	minifigPriceCeiling = 2000.0

	// A minifig-priced listing above this that looks like a boxed set is
	// a set posing as a minifig.
	setAsMinifigPrice = 150.0

	// Suspicious cheapness: reject listings more than 35% under the
	// batch reference (the second-cheapest total).
	cheapnessCutoff = 0.35

	// DefaultScoreThreshold is the minimum quality score to alert on.
	DefaultScoreThreshold = 40
)

// Decision is the reason-tagged, loggable outcome of the filter pipeline.
type Decision struct {
	Accepted bool
	Reason   string // reject reason tag, empty when accepted
	Score    int
	Steps    []string // executed step tags, for the replay surface
}

// BatchContext carries cross-listing state: the reference total for the
// suspicious-cheapness check. Zero means no reference available.
type BatchContext struct {
	ReferenceTotal float64
}

// ReferenceFrom computes the batch reference as the second-cheapest total,
// so a single mislisting cannot drag the reference down with it.
func ReferenceFrom(totals []float64) BatchContext {
	if len(totals) < 2 {
		return BatchContext{}
	}
	sorted := append([]float64(nil), totals...)
	sort.Float64s(sorted)
	return BatchContext{ReferenceTotal: sorted[1]}
}

// Filter is the deterministic accept/reject pipeline. Given the same
// (candidate, watch, batch) it always yields the same decision; it holds
// only compiled lexicons and never mutates state.
type Filter struct {
	scoreThreshold int
	brandRe        *regexp.Regexp
	negative       map[string][]string
}

// New compiles the lexicons into a ready filter.
func New() *Filter {
	return &Filter{
		scoreThreshold: DefaultScoreThreshold,
		brandRe:        regexp.MustCompile(`(?i)\b(` + strings.Join(brandTokens, "|") + `)\b`),
		negative:       negativeCategories,
	}
}

// WithScoreThreshold overrides the default quality-score cutoff.
func (f *Filter) WithScoreThreshold(threshold int) *Filter {
	f.scoreThreshold = threshold
	return f
}

// Evaluate runs the full pipeline for one candidate against one watch.
// Steps short-circuit on the first rejection.
func (f *Filter) Evaluate(l *listing.NormalizedListing, item *catalog.Item, w *watch.Watch, batch BatchContext) Decision {
	d := Decision{}
	title := strings.ToLower(l.Title)
	step := func(tag string) { d.Steps = append(d.Steps, tag) }
	reject := func(tag string) Decision {
		d.Accepted = false
		d.Reason = tag
		return d
	}

	// Watch-level constraints first: they are the cheapest checks and
	// their rejections are user policy, not listing quality.
	step("ship_from")
	if !w.AcceptsShipFrom(l.ShipFrom) {
		return reject("ship_from_blocked")
	}
	step("exclude_words")
	for _, word := range w.ExcludeWords {
		if word != "" && strings.Contains(title, strings.ToLower(word)) {
			return reject("exclude_word:" + strings.ToLower(word))
		}
	}
	step("seller")
	if w.MinSellerRating > 0 && l.SellerRating > 0 && l.SellerRating < w.MinSellerRating {
		return reject("seller_rating")
	}
	if w.MinSellerFeedback > 0 && l.SellerFeedback >= 0 && l.SellerFeedback < w.MinSellerFeedback {
		return reject("seller_feedback")
	}

	// 1. Brand token.
	step("brand")
	if !f.brandRe.MatchString(title) {
		return reject("brand_missing")
	}

	// 2. Item identity.
	step("identity")
	codeMatched, nameMatched := matchIdentity(title, item)
	if item.Ref.Kind == catalog.KindMinifig {
		// Names are not unique across variants; the collector code is
		// mandatory.
		if !codeMatched {
			return reject("code_not_in_title")
		}
	} else if !codeMatched && !nameMatched {
		return reject("set_not_identified")
	}

	if item.Ref.Kind == catalog.KindMinifig {
		// 3. Part-number rejection.
		step("part_number")
		if containsElementNumber(title) {
			return reject("part_number")
		}

		// 4. Positional body-part rule.
		step("body_part")
		if tag, rejected := bodyPartReject(title); rejected {
			return reject("body_part:" + tag)
		}
	}

	// 5. Negative-keyword lexicon.
	step("negative_keywords")
	for category, words := range f.negative {
		if category == "full_set" && item.Ref.Kind == catalog.KindSet {
			// A set watch obviously matches set vocabulary.
			continue
		}
		for _, word := range words {
			if strings.Contains(title, word) {
				return reject("negative_keyword:" + category)
			}
		}
	}

	// 6. Set posing as a minifig.
	if item.Ref.Kind == catalog.KindMinifig {
		step("set_as_minifig")
		if l.Total > setAsMinifigPrice && looksLikeSet(title, item.Ref.ID) {
			return reject("set_as_minifig")
		}
	}

	// 7. Price sanity.
	step("price_sanity")
	if item.Ref.Kind == catalog.KindMinifig {
		if l.Total < minifigPriceFloor || l.Total > minifigPriceCeiling {
			return reject("price_out_of_bounds")
		}
	}
	if w.MinPrice > 0 && l.Total < w.MinPrice {
		return reject("below_min_price")
	}

	// 8. Condition.
	step("condition")
	if !w.AcceptsCondition(effectiveCondition(l.Condition, title)) {
		return reject("condition_mismatch")
	}

	// 9. Suspicious cheapness (sets, cross-listing).
	if item.Ref.Kind == catalog.KindSet && batch.ReferenceTotal > 0 {
		step("suspicious_cheap")
		if l.Total < batch.ReferenceTotal*(1-cheapnessCutoff) {
			return reject("suspicious_cheap")
		}
	}

	// 10. Quality score.
	step("score")
	d.Score = qualityScore(title, item, codeMatched, nameMatched, l.Total, batch)
	if d.Score < f.scoreThreshold {
		return reject(fmt.Sprintf("low_score:%d", d.Score))
	}

	d.Accepted = true
	return d
}

// matchIdentity checks the title for the item's catalog number or code and
// for a token-wise name match.
func matchIdentity(title string, item *catalog.Item) (codeMatched, nameMatched bool) {
	if item.Ref.Kind == catalog.KindMinifig {
		codeMatched = collectorCodeRe(item.Ref.ID).MatchString(title)
	} else {
		codeMatched = setNumberInTitle(title, item.Ref.ID)
	}
	nameMatched = nameTokensMatch(title, item.Name)
	return codeMatched, nameMatched
}

// collectorCodeRe builds the tolerant matcher for a collector code:
// optional space/hyphen/hash between prefix and digits, optional leading
// zeros (sw0010 and sw010 both appear in human-written titles).
func collectorCodeRe(code string) *regexp.Regexp {
	m := regexp.MustCompile(`^([a-z]{2,4})0*(\d+)([a-z]?)$`).FindStringSubmatch(strings.ToLower(code))
	if m == nil {
		return regexp.MustCompile(regexp.QuoteMeta(strings.ToLower(code)))
	}
	pattern := `\b` + m[1] + `[\s\-#]?0*` + m[2] + m[3] + `\b`
	return regexp.MustCompile(pattern)
}

// setNumberInTitle checks for the catalog number with hyphen/suffix
// tolerance ("75192", "75192-1").
func setNumberInTitle(title, number string) bool {
	base := strings.TrimSuffix(number, "-1")
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(base) + `(?:-\d)?\b`)
	return re.MatchString(title)
}

// nameTokensMatch requires every significant name token in the title.
func nameTokensMatch(title, name string) bool {
	if name == "" {
		return false
	}
	tokens := strings.Fields(strings.ToLower(name))
	significant := 0
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		significant++
		if !strings.Contains(title, tok) {
			return false
		}
	}
	return significant > 0
}

func containsElementNumber(title string) bool {
	if elementNumberRe.MatchString(title) {
		return true
	}
	for _, el := range knownElements {
		if strings.Contains(title, el) {
			return true
		}
	}
	return false
}

// bodyPartReject applies the positional rule: a body-part word before any
// minifigure indicator rejects; an indicator first clears the title; a
// body-part word with no indicator anywhere rejects.
func bodyPartReject(title string) (partTag string, rejected bool) {
	partIdx, partTag := firstBodyPart(title)
	if partIdx < 0 {
		return "", false
	}
	indicatorIdx := firstIndicator(title)
	if indicatorIdx < 0 || partIdx < indicatorIdx {
		return partTag, true
	}
	return "", false
}

func firstBodyPart(title string) (int, string) {
	best, tag := -1, ""
	for word, part := range bodyPartWords {
		if idx := indexOfWord(title, word); idx >= 0 && (best < 0 || idx < best) {
			best, tag = idx, part
		}
	}
	return best, tag
}

func firstIndicator(title string) int {
	best := -1
	for _, word := range minifigIndicators {
		if idx := strings.Index(title, word); idx >= 0 && (best < 0 || idx < best) {
			best = idx
		}
	}
	return best
}

// indexOfWord finds word as a whole token, so "arm" does not fire inside
// "armee" or "farm".
func indexOfWord(s, word string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	loc := re.FindStringIndex(s)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// looksLikeSet detects a boxed-set title: a set-number pattern that is not
// part of the collector code, plus a set word.
func looksLikeSet(title, collectorCode string) bool {
	nums := setNumberInTitleRe.FindAllString(title, -1)
	if len(nums) == 0 {
		return false
	}
	codeDigits := strings.TrimLeft(strings.ToLower(collectorCode), "abcdefghijklmnopqrstuvwxyz")
	foreignNumber := false
	for _, n := range nums {
		if strings.TrimLeft(n, "0") != strings.TrimLeft(codeDigits, "0") {
			foreignNumber = true
			break
		}
	}
	if !foreignNumber {
		return false
	}
	for _, w := range setWords {
		if indexOfWord(title, w) >= 0 {
			return true
		}
	}
	return false
}

// effectiveCondition refines the marketplace condition with title keywords
// when the field is unknown.
func effectiveCondition(c listing.Condition, title string) listing.Condition {
	if c != listing.ConditionUnknown {
		return c
	}
	for _, w := range usedConditionWords {
		if strings.Contains(title, w) {
			return listing.ConditionUsed
		}
	}
	for _, w := range newConditionWords {
		if strings.Contains(title, w) {
			return listing.ConditionNew
		}
	}
	return listing.ConditionUnknown
}

// qualityScore starts at 70 on a code match (60 on name-only), then adds
// +10 for a minifigure indicator word, +10 for a name token match, and +5
// for a typical price band.
func qualityScore(title string, item *catalog.Item, codeMatched, nameMatched bool, total float64, batch BatchContext) int {
	score := 60
	if codeMatched {
		score = 70
	}
	if item.Ref.Kind == catalog.KindMinifig && firstIndicator(title) >= 0 {
		score += 10
	}
	if nameMatched {
		score += 10
	}
	if typicalPrice(item.Ref.Kind, total, batch) {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func typicalPrice(kind catalog.ItemKind, total float64, batch BatchContext) bool {
	if batch.ReferenceTotal > 0 {
		return total >= batch.ReferenceTotal*0.5 && total <= batch.ReferenceTotal*1.5
	}
	if kind == catalog.KindMinifig {
		return total >= 2 && total <= 300
	}
	return false
}
