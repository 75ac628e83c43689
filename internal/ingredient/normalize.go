package ingredient

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// nameAliases collapses common plural/variant forms to one canonical form.
var nameAliases = map[string]string{
	"potatisar":   "potatis",
	"tomater":     "tomat",
	"lökar":       "lök",
	"gul lök":     "lök",
	"morötter":    "morot",
	"äpplen":      "äpple",
	"paprikor":    "paprika",
	"champinjoner": "champinjon",
	"vitlöksklyftor": "vitlök",
	"vitlöksklyfta":  "vitlök",
	"chicken":     "kyckling",
	"kycklingfilé": "kyckling",
	"kycklingfiléer": "kyckling",
	"ägg st":      "ägg",
}

// nonIngredientTokens are sentinel values that generation sometimes leaves
// behind in place of a real ingredient name.
var nonIngredientTokens = map[string]bool{
	"null":    true,
	"nil":     true,
	"n/a":     true,
	"na":      true,
	"-":       true,
	"okänd":   true,
	"unknown": true,
	"none":    true,
}

// unitSynonyms maps spelled-out and variant unit forms to the fixed unit
// vocabulary (mass: g, kg; volume: ml, cl, dl, l; count: st; cooking units:
// msk, tsk, krm, klyfta, skiva, förp, pkt).
var unitSynonyms = map[string]string{
	"g":            "g",
	"gr":           "g",
	"gram":         "g",
	"grams":        "g",
	"kg":           "kg",
	"kilo":         "kg",
	"kilogram":     "kg",
	"ml":           "ml",
	"milliliter":   "ml",
	"cl":           "cl",
	"centiliter":   "cl",
	"dl":           "dl",
	"deciliter":    "dl",
	"l":            "l",
	"liter":        "l",
	"litre":        "l",
	"st":           "st",
	"styck":        "st",
	"stycken":      "st",
	"pc":           "st",
	"pcs":          "st",
	"msk":          "msk",
	"matsked":      "msk",
	"matskedar":    "msk",
	"tbsp":         "msk",
	"tsk":          "tsk",
	"tesked":       "tsk",
	"teskedar":     "tsk",
	"tsp":          "tsk",
	"krm":          "krm",
	"kryddmått":    "krm",
	"klyfta":       "klyfta",
	"klyftor":      "klyfta",
	"skiva":        "skiva",
	"skivor":       "skiva",
	"förp":         "förp",
	"förpackning":  "förp",
	"förpackningar": "förp",
	"pkt":          "pkt",
	"paket":        "pkt",
}

// NormalizeName canonicalizes an ingredient name so that variant spellings of
// the same ingredient merge to one shopping-list entry. Pure function; an
// empty result means the input was not a usable name.
func NormalizeName(raw string) string {
	s := norm.NFC.String(raw)
	s = strings.ToLower(strings.TrimSpace(s))

	// Collapse punctuation and whitespace runs into single spaces.
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace && b.Len() > 0 {
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	s = strings.TrimSpace(b.String())

	if alias, ok := nameAliases[s]; ok {
		return alias
	}
	return s
}

// IsNonIngredient reports whether a canonical name is generation noise rather
// than a real ingredient.
func IsNonIngredient(canonical string) bool {
	return canonical == "" || nonIngredientTokens[canonical]
}

// NormalizeUnit canonicalizes a measurement unit. Empty or absent input yields
// the empty string; unknown non-empty units pass through lowercased unchanged —
// they are still units, just unrecognized ones.
func NormalizeUnit(raw string) string {
	s := strings.ToLower(strings.TrimSpace(norm.NFC.String(raw)))
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return ""
	}
	if canonical, ok := unitSynonyms[s]; ok {
		return canonical
	}
	return s
}
