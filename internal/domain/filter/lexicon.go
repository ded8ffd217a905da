package filter

import "regexp"

// Lexicons are curated data, compiled once by NewFilter. Changing a list
// produces a reviewable diff; the tests read these tables as fixtures.

// brandTokens are the accepted multi-lingual spellings of the brand.
var brandTokens = []string{
	"lego",
	"légo",
}

// minifigIndicators mark that a title is about a complete figure. The
// positional rule in the filter compares their position against body-part
// words.
var minifigIndicators = []string{
	"minifig", "minifigure", "minifigures", "minifigur", "minifiguren",
	"minifigura", "mini fig", "mini figure", "mini-fig",
	"figure", "figur", "figurine", "figura", "figuur",
	"complete", "komplett", "completo", "complet", "compleet",
}

// bodyPartWords is the multilingual body-part lexicon, tagged by part.
// A body-part word before any minifigure indicator rejects the candidate.
var bodyPartWords = map[string]string{
	"legs": "legs", "leg": "legs", "beine": "legs", "bein": "legs",
	"piernas": "legs", "jambes": "legs", "benen": "legs", "beinen": "legs",
	"torso": "torso", "oberkörper": "torso", "torse": "torso",
	"head": "head", "kopf": "head", "cabeza": "head", "tête": "head", "hoofd": "head",
	"hair": "hair", "haar": "hair", "haare": "hair", "pelo": "hair", "cheveux": "hair",
	"helmet": "helmet", "helm": "helmet", "casque": "helmet", "casco": "helmet",
	"arm": "arm", "arms": "arm", "arme": "arm", "brazo": "arm", "bras": "arm",
	"hand": "hand", "hands": "hand", "hände": "hand", "mano": "hand",
	"cape": "accessory", "umhang": "accessory", "capa": "accessory",
	"visor": "accessory", "visier": "accessory",
}

// negativeCategories reject outright, one lexicon per category.
var negativeCategories = map[string][]string{
	"parts_only": {
		"parts only", "spare parts", "ersatzteile", "einzelteile",
		"nur teile", "pieces detachees", "piezas sueltas", "only parts",
		"teile konvolut",
	},
	"non_figure": {
		"keychain", "key chain", "keyring", "schlüsselanhänger",
		"porte-clés", "llavero", "magnet", "magnets", "pen ", "kugelschreiber",
		"watch", "uhr ", "armbanduhr", "sticker", "aufkleber", "poster",
		"plush", "plüsch", "mug", "tasse", "t-shirt", "costume", "kostüm",
	},
	"full_set": {
		"full set", "complete set", "komplettes set", "ganzes set",
		"set completo", "boîte complète", "nur ovp", "box only", "empty box",
		"leerkarton", "nur karton",
	},
	"custom_knockoff": {
		"custom", "moc ", "compatible", "kompatibel", "no lego",
		"not lego", "kein lego", "like lego", "third party", "pad printed",
		"fake", "replica", "réplique", "bootleg", "china",
	},
	"bulk_lot": {
		"bulk", "job lot", "joblot", "lot of ", "konvolut", "sammlung",
		"collection lot", "mixed lot", "1 kg", "2 kg", "per kilo", "kilo ",
	},
	"instructions_only": {
		"instructions only", "instruction only", "manual only",
		"nur anleitung", "nur bauanleitung", "notice seule",
		"solo instrucciones", "anleitung ohne",
	},
	"display_case": {
		"display case", "vitrine", "acrylic case", "showcase",
		"schaukasten", "présentoir", "expositor",
	},
}

// usedConditionWords detect a used item from the title when the
// marketplace condition field is missing or unreliable.
var usedConditionWords = []string{
	"used", "gebraucht", "usado", "occasion", "usagé", "gebruikt",
	"pre-owned", "preowned", "second hand", "2nd hand", "bespielt",
}

// newConditionWords detect an explicitly new item.
var newConditionWords = []string{
	"new", "neu ", "neuf", "nuevo", "nieuw", "sealed", "versiegelt",
	"misb", "nisb", "bnib", "ovp", "unopened", "ungeöffnet",
}

// Canonical element numbers that mean a title sells a part, not a figure.
// 970c… are leg assemblies, 973 torsos, 3626 heads; the patterns catch the
// printed-part suffix scheme (pb/pr/px).
var (
	elementNumberRe = regexp.MustCompile(`\b\d{4,6}(?:c\d{2})?p[brx]\d+[a-z]?\b`)
	knownElements   = []string{
		"970c00", "970c55", "973pb", "3626b", "3626c", "3626cpb",
		"3838", "3962", "4349", "30370", "2446", "3833", "6120",
	}
)

// setNumberInTitleRe finds a plausible set number inside a title
// (4-5 digits, optional "-1" suffix).
var setNumberInTitleRe = regexp.MustCompile(`\b\d{4,5}(?:-\d)?\b`)

// setWords mark a title as being about a boxed set.
var setWords = []string{
	"set", "box", "ovp", "boîte", "caja", "doos", "bausatz",
}
