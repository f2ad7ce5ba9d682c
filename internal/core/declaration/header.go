package declaration

import (
	"regexp"
)

var (
	// 12345-67-890123A
	reDeclStrict = regexp.MustCompile(`\d{5}-\d{2}-\d{6}[A-Z]`)
	// OCR tends to pad the hyphens: 12345 - 67 - 890123 A
	reDeclLoose = regexp.MustCompile(`(\d{5})\s*-\s*(\d{2})\s*-\s*(\d{6})\s*([A-Z])`)
	reTradeCode = regexp.MustCompile(`(?i)(?:거래\s*구분|transaction\s*type)\s*:?\s*(\d{2})\b`)
)

// ExtractHeader reads document-scoped fields from the scanning view.
// A missing trade code yields defaultTradeCode with TradeCodeFound unset.
func ExtractHeader(text NormalizedText, defaultTradeCode string) DeclarationHeader {
	h := DeclarationHeader{
		DeclarationNumber: declarationNumber(text.Scan),
		TradeCode:         defaultTradeCode,
	}
	if m := reTradeCode.FindStringSubmatch(text.Scan); m != nil {
		h.TradeCode = m[1]
		h.TradeCodeFound = true
	}
	return h
}

func declarationNumber(scan string) Value[Text] {
	if m := reDeclStrict.FindString(scan); m != "" {
		return Resolved(Text(m))
	}
	if m := reDeclLoose.FindStringSubmatch(scan); m != nil {
		return Resolved(Text(m[1] + "-" + m[2] + "-" + m[3] + m[4]))
	}
	return Unresolved[Text]()
}
