package declaration

import (
	"strings"

	"golang.org/x/text/width"
)

// Normalize builds the scanning and line-preserving views of raw document text.
// Full-width glyphs (common in OCR output) are folded to their ASCII forms first;
// circled field numbers such as ㉛ are not width variants and pass through.
func Normalize(raw string) NormalizedText {
	if raw == "" {
		return NormalizedText{}
	}
	folded := width.Fold.String(raw)
	folded = strings.ReplaceAll(folded, "\r\n", "\n")
	folded = strings.ReplaceAll(folded, "\r", "\n")
	return NormalizedText{
		Scan:     collapseSpace(folded),
		Original: folded,
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
