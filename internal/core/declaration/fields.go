package declaration

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

const number = `\d[\d,]*(?:\.\d+)?`

var (
	reQtyKnown   = regexp.MustCompile(`(?i)(` + number + `)\s*\(\s*(BO|GT|EA|PCS|SET|CT|BX|PK|PR|DZ|RO|BG|CS|DR|CN|PA|PL|UN)\s*\)`)
	reQtyGeneric = regexp.MustCompile(`(?i)(` + number + `)\s*\(\s*([A-Z]{2,3})\s*\)`)

	reWeightUnit    = regexp.MustCompile(`(?i)(` + number + `)\s*\(\s*KG\s*\)`)
	reWeightLabeled = regexp.MustCompile(`(?i)순\s*중\s*량\s*:?\s*(` + number + `)\s*(?:KG)?`)

	rePricePrefixed = regexp.MustCompile(`(?i)(?:\b(USD|EUR|JPY|KRW|CNY|GBP)|(US\$|\$|€|¥|₩|￦))\s?(` + number + `)`)
	rePriceSuffixed = regexp.MustCompile(`(?i)(` + number + `)\s?(USD|EUR|JPY|KRW|CNY|GBP)\b`)
	rePriceLabeled  = regexp.MustCompile(`(?i)(?:신고\s*가격|결제\s*금액|\bFOB)\s*(?:\(\s*FOB\s*\))?\s*:?\s*(?:(USD|EUR|JPY|KRW|CNY|GBP)\s*)?(` + number + `)`)
)

// units that look like quantities but belong to other fields
var nonQuantityUnits = map[string]struct{}{
	"KG": {}, "KGS": {}, "USD": {}, "EUR": {}, "JPY": {}, "KRW": {}, "CNY": {}, "GBP": {}, "NO": {},
	"FOB": {}, "CIF": {}, "CFR": {}, "EXW": {},
}

var currencySymbols = map[string]string{
	"US$": "USD",
	"$":   "USD",
	"€":   "EUR",
	"¥":   "JPY",
	"₩":   "KRW",
	"￦":   "KRW",
}

// firstMatch runs rules in order and keeps the first hit.
func firstMatch[T any](content string, rules ...func(string) (T, bool)) Value[T] {
	for _, r := range rules {
		if v, ok := r(content); ok {
			return Resolved(v)
		}
	}
	return Unresolved[T]()
}

// FieldExtractor resolves per-item fields. It never fails: a field with no matching rule is unresolved.
type FieldExtractor struct {
	markers  []string
	modelCap int
}

func NewFieldExtractor(markers []string, modelCap int) *FieldExtractor {
	if modelCap <= 0 {
		modelCap = constants.DefaultModelCap
	}
	return &FieldExtractor{markers: markers, modelCap: modelCap}
}

// Extract resolves the fields found inside the item's own content.
// Quantity may still be replaced by positional alignment afterwards.
func (f *FieldExtractor) Extract(it Item) ExtractedFields {
	return ExtractedFields{
		ModelSpec:     f.modelSpec(it),
		Quantity:      ExtractQuantity(it.Content),
		NetWeight:     firstMatch(it.Content, weightByUnit, weightByLabel),
		DeclaredPrice: firstMatch(it.Content, pricePrefixed, priceSuffixed, priceLabeled),
	}
}

func (f *FieldExtractor) modelSpec(it Item) Value[Text] {
	content := it.Content
	for _, m := range f.markers {
		if m == "" {
			continue
		}
		if i := strings.Index(content, m); i >= 0 {
			content = content[:i]
		}
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Unresolved[Text]()
	}
	return Resolved(Text(capRunes(strings.TrimSpace(it.Tag+" "+content), f.modelCap)))
}

func capRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// ExtractQuantity takes the first quantity token in content.
func ExtractQuantity(content string) Value[Quantity] {
	return firstMatch(content, quantityKnownUnit, quantityAnyUnit)
}

// QuantityTokens lists every quantity-like token in s, in encounter order.
func QuantityTokens(s string) []Quantity {
	var out []Quantity
	for _, m := range reQtyGeneric.FindAllStringSubmatch(s, -1) {
		unit := strings.ToUpper(m[2])
		if _, skip := nonQuantityUnits[unit]; skip {
			continue
		}
		out = append(out, Quantity{Amount: m[1], Unit: unit})
	}
	return out
}

func quantityKnownUnit(content string) (Quantity, bool) {
	m := reQtyKnown.FindStringSubmatch(content)
	if m == nil {
		return Quantity{}, false
	}
	return Quantity{Amount: m[1], Unit: strings.ToUpper(m[2])}, true
}

func quantityAnyUnit(content string) (Quantity, bool) {
	toks := QuantityTokens(content)
	if len(toks) == 0 {
		return Quantity{}, false
	}
	return toks[0], true
}

func weightByUnit(content string) (Weight, bool) {
	m := reWeightUnit.FindStringSubmatch(content)
	if m == nil {
		return Weight{}, false
	}
	return Weight{Amount: m[1]}, true
}

func weightByLabel(content string) (Weight, bool) {
	m := reWeightLabeled.FindStringSubmatch(content)
	if m == nil {
		return Weight{}, false
	}
	return Weight{Amount: m[1]}, true
}

func pricePrefixed(content string) (Price, bool) {
	m := rePricePrefixed.FindStringSubmatch(content)
	if m == nil {
		return Price{}, false
	}
	cur := strings.ToUpper(m[1])
	if cur == "" {
		cur = currencySymbols[strings.ToUpper(m[2])]
	}
	return Price{Currency: cur, Amount: m[3]}, true
}

func priceSuffixed(content string) (Price, bool) {
	m := rePriceSuffixed.FindStringSubmatch(content)
	if m == nil {
		return Price{}, false
	}
	return Price{Currency: strings.ToUpper(m[2]), Amount: m[1]}, true
}

func priceLabeled(content string) (Price, bool) {
	m := rePriceLabeled.FindStringSubmatch(content)
	if m == nil {
		return Price{}, false
	}
	return Price{Currency: strings.ToUpper(m[1]), Amount: m[2]}, true
}
