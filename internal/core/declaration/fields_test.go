package declaration_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
)

const unresolved = "<unresolved>"

func TestFieldExtractor_Quantity(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"PUMP 13 (BO)", "13 (BO)"},
		{"PUMP 7(bo)", "7 (BO)"},
		{"1,200 (EA) spare", "1,200 (EA)"},
		{"2 (XY) odd unit", "2 (XY)"},
		{"only weight 3 (KG)", unresolved},
		{"price (USD 100)", unresolved},
		{"", unresolved},
	}
	fx := declaration.NewFieldExtractor(nil, 0)
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got := fx.Extract(declaration.Item{Tag: "(NO.01)", Content: tt.content})
			assert.Equal(t, tt.want, declaration.Render(got.Quantity, unresolved))
		})
	}
}

func TestFieldExtractor_KnownUnitBeatsGeneric(t *testing.T) {
	got := declaration.ExtractQuantity("4 (XY) then 9 (EA)")

	assert.Equal(t, "9 (EA)", declaration.Render(got, unresolved))
}

func TestFieldExtractor_NetWeight(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"12.5 (KG)", "12.5 (KG)"},
		{"1,024.50(kg)", "1,024.50 (KG)"},
		{"순중량 : 30 KG", "30 (KG)"},
		{"13 (BO)", unresolved},
	}
	fx := declaration.NewFieldExtractor(nil, 0)
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got := fx.Extract(declaration.Item{Content: tt.content})
			assert.Equal(t, tt.want, declaration.Render(got.NetWeight, unresolved))
		})
	}
}

func TestFieldExtractor_DeclaredPrice(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"Widget FREE OF CHARGE (USD 100)", "USD 100"},
		{"usd 1,250.00", "USD 1,250.00"},
		{"$ 25.50", "USD 25.50"},
		{"€300", "EUR 300"},
		{"total 100 EUR", "EUR 100"},
		{"신고가격(FOB) 1,000", "1,000"},
		{"신고가격(FOB) USD 1,000", "USD 1,000"},
		{"결제금액 : KRW 50000", "KRW 50000"},
		{"no price here", unresolved},
	}
	fx := declaration.NewFieldExtractor(nil, 0)
	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			got := fx.Extract(declaration.Item{Content: tt.content})
			assert.Equal(t, tt.want, declaration.Render(got.DeclaredPrice, unresolved))
		})
	}
}

func TestFieldExtractor_ModelSpecStopsAtNextFieldMarker(t *testing.T) {
	fx := declaration.NewFieldExtractor([]string{"㉛"}, 150)

	got := fx.Extract(declaration.Item{Tag: "(NO.01)", Content: "PUMP MODEL X-1 ㉛ 성분 STEEL"})

	assert.Equal(t, "(NO.01) PUMP MODEL X-1", declaration.Render(got.ModelSpec, unresolved))
}

func TestFieldExtractor_ModelSpecIsCapped(t *testing.T) {
	fx := declaration.NewFieldExtractor(nil, 150)

	got := fx.Extract(declaration.Item{Tag: "(NO.01)", Content: strings.Repeat("부품", 200)})

	model, ok := got.ModelSpec.Get()
	assert.True(t, ok)
	assert.Equal(t, 150, utf8.RuneCountInString(model.String()))
}

func TestFieldExtractor_EmptyContentLeavesModelUnresolved(t *testing.T) {
	fx := declaration.NewFieldExtractor([]string{"㉛"}, 150)

	got := fx.Extract(declaration.Item{Tag: "(NO.01)", Content: "㉛ only other fields"})

	assert.False(t, got.ModelSpec.Resolved)
}

func TestFieldExtractor_IsTotal(t *testing.T) {
	inputs := []string{
		"",
		"((((((",
		"(NO.)(KG)($)",
		"USD",
		"$,,,,",
		"순중량",
		strings.Repeat("㉛", 500),
		"\x00\xff\xfe invalid utf8",
	}
	fx := declaration.NewFieldExtractor([]string{"㉛"}, 150)
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			fx.Extract(declaration.Item{Tag: "(NO.01)", Content: in})
		}, in)
	}
}
