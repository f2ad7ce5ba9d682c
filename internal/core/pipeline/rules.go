package pipeline

import (
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/foc"
)

// FromRules maps loaded rules onto the parser and classifier configs.
func FromRules(r common.Rules) (declaration.Config, foc.Config) {
	pc := declaration.Config{
		DefaultTradeCode: r.DefaultTradeCode,
		FieldMarkers:     r.FieldMarkers,
		ModelCap:         r.ModelCap,
		Placeholders: declaration.Placeholders{
			Declaration: r.Placeholders.Declaration,
			LineIndex:   r.Placeholders.LineIndex,
			Model:       r.Placeholders.Model,
			Quantity:    r.Placeholders.Quantity,
			NetWeight:   r.Placeholders.NetWeight,
			Price:       r.Placeholders.Price,
		},
	}
	fc := foc.Config{
		TargetTradeCode: r.TargetTradeCode,
		Keywords:        r.FOCKeywords,
		WholeWords:      r.FOCWholeWords,
		Exclusions:      r.Exclusions,
	}
	return pc, fc
}

// NewParserFromRules builds a parser wired to a classifier for r.
func NewParserFromRules(r common.Rules, deps Deps) *declaration.Parser {
	pc, fc := FromRules(r)
	return declaration.NewParser(pc, foc.NewClassifier(fc), deps.Logger)
}
