package constants

import (
	"strings"
)

// Column names one exported field of an output record.
type Column string

const (
	ColDocumentName      Column = "document_name"
	ColDeclarationNumber Column = "declaration_number"
	ColTradeCode         Column = "trade_code"
	ColLineIndex         Column = "line_index"
	ColItemTag           Column = "item_tag"
	ColModelSpec         Column = "model_spec"
	ColQuantity          Column = "quantity"
	ColNetWeight         Column = "net_weight"
	ColDeclaredPrice     Column = "declared_price"
	ColIsFOC             Column = "is_foc"
)

// DefaultColumns is the export order used when none is configured.
var DefaultColumns = []Column{
	ColDocumentName,
	ColDeclarationNumber,
	ColTradeCode,
	ColLineIndex,
	ColModelSpec,
	ColQuantity,
	ColNetWeight,
	ColDeclaredPrice,
}

var allColumns = []Column{
	ColDocumentName,
	ColDeclarationNumber,
	ColTradeCode,
	ColLineIndex,
	ColItemTag,
	ColModelSpec,
	ColQuantity,
	ColNetWeight,
	ColDeclaredPrice,
	ColIsFOC,
}

// ColumnLabels are the sheet headers customs brokers expect.
var ColumnLabels = map[Column]string{
	ColDocumentName:      "파일명",
	ColDeclarationNumber: "수출신고번호",
	ColTradeCode:         "거래구분",
	ColLineIndex:         "란-번호",
	ColItemTag:           "품목번호",
	ColModelSpec:         "모델ㆍ규격",
	ColQuantity:          "수량(단위)",
	ColNetWeight:         "순중량",
	ColDeclaredPrice:     "신고가격(FOB)",
	ColIsFOC:             "무상여부",
}

// Label returns the header text for c, falling back to its key.
func (c Column) Label() string {
	if l, ok := ColumnLabels[c]; ok {
		return l
	}
	return string(c)
}

// CanonicalizeColumn maps a configured column name, header label or alias onto a Column.
func CanonicalizeColumn(input string) (Column, bool) {
	if input == "" {
		return "", false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Column{
		"file":        ColDocumentName,
		"filename":    ColDocumentName,
		"declaration": ColDeclarationNumber,
		"decl_no":     ColDeclarationNumber,
		"line":        ColLineIndex,
		"ran":         ColLineIndex,
		"tag":         ColItemTag,
		"model":       ColModelSpec,
		"spec":        ColModelSpec,
		"qty":         ColQuantity,
		"weight":      ColNetWeight,
		"price":       ColDeclaredPrice,
		"fob":         ColDeclaredPrice,
		"foc":         ColIsFOC,
	}

	if c, ok := synonyms[normalized]; ok {
		return c, true
	}

	for _, c := range allColumns {
		if normalized == string(c) || strings.TrimSpace(input) == c.Label() {
			return c, true
		}
	}

	return "", false
}
