package declaration

import (
	"fmt"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

// Value is the outcome of one extraction rule chain: either a resolved value or unresolved.
type Value[T any] struct {
	V        T
	Resolved bool
}

func Resolved[T any](v T) Value[T] { return Value[T]{V: v, Resolved: true} }

func Unresolved[T any]() Value[T] { return Value[T]{} }

func (v Value[T]) Get() (T, bool) { return v.V, v.Resolved }

// Render formats a resolved value, or returns placeholder.
func Render[T fmt.Stringer](v Value[T], placeholder string) string {
	if !v.Resolved {
		return placeholder
	}
	return v.V.String()
}

// Text is a plain captured string.
type Text string

func (t Text) String() string { return string(t) }

// Quantity is a count with its packaging unit, e.g. 13 (BO).
type Quantity struct {
	Amount string
	Unit   string
}

func (q Quantity) String() string { return fmt.Sprintf("%s (%s)", q.Amount, q.Unit) }

// Weight is a net weight in kilograms.
type Weight struct {
	Amount string
}

func (w Weight) String() string { return w.Amount + " (KG)" }

// Price is a declared amount with an optional ISO currency tag. No conversion is applied.
type Price struct {
	Currency string
	Amount   string
}

func (p Price) String() string {
	if p.Currency == "" {
		return p.Amount
	}
	return p.Currency + " " + p.Amount
}

// RawDocument is acquired text for one file in a batch.
type RawDocument struct {
	Name string
	Text string
}

// NormalizedText carries both views of a document.
// Scan has every whitespace run collapsed to one space; Original keeps line breaks.
type NormalizedText struct {
	Scan     string
	Original string
}

type DeclarationHeader struct {
	DeclarationNumber Value[Text]
	TradeCode         string
	TradeCodeFound    bool
}

// LineSegment is one declaration line (란). Sequence is the output order; LineIndex is descriptive.
type LineSegment struct {
	Sequence   int
	LineIndex  string
	IndexFound bool
	RawSpan    string
}

type Item struct {
	Tag     string
	Content string
}

type ExtractedFields struct {
	ModelSpec     Value[Text]
	Quantity      Value[Quantity]
	NetWeight     Value[Weight]
	DeclaredPrice Value[Price]
}

// OutputRecord is the flat exported row. Two records are the same record iff all fields are equal.
type OutputRecord struct {
	DocumentName      string
	DeclarationNumber string
	TradeCode         string
	LineIndex         string
	ItemTag           string
	ModelSpec         string
	Quantity          string
	NetWeight         string
	DeclaredPrice     string
	IsFOC             bool
}

// Field returns the rendered value for an export column.
func (r OutputRecord) Field(c constants.Column) string {
	switch c {
	case constants.ColDocumentName:
		return r.DocumentName
	case constants.ColDeclarationNumber:
		return r.DeclarationNumber
	case constants.ColTradeCode:
		return r.TradeCode
	case constants.ColLineIndex:
		return r.LineIndex
	case constants.ColItemTag:
		return r.ItemTag
	case constants.ColModelSpec:
		return r.ModelSpec
	case constants.ColQuantity:
		return r.Quantity
	case constants.ColNetWeight:
		return r.NetWeight
	case constants.ColDeclaredPrice:
		return r.DeclaredPrice
	case constants.ColIsFOC:
		if r.IsFOC {
			return "Y"
		}
		return "N"
	default:
		return ""
	}
}

// Row flattens r in column order.
func (r OutputRecord) Row(cols []constants.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = r.Field(c)
	}
	return out
}

// Warning is a non-fatal per-document finding.
type Warning struct {
	Document string
	Kind     constants.WarningKind
	Line     string
	Message  string
}

type DocumentStats struct {
	Segments int
	Items    int
	FOC      int
}

// DocumentResult is everything the parser produced for one document.
type DocumentResult struct {
	Document string
	Header   DeclarationHeader
	Records  []OutputRecord
	Warnings []Warning
	Stats    DocumentStats
}
