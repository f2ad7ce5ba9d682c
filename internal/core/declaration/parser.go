package declaration

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

// Classifier decides whether an item is free of charge.
type Classifier interface {
	IsFOC(content, tradeCode string) bool
}

// Placeholders are rendered for unresolved fields.
type Placeholders struct {
	Declaration string
	LineIndex   string
	Model       string
	Quantity    string
	NetWeight   string
	Price       string
}

type Config struct {
	DefaultTradeCode string
	FieldMarkers     []string
	ModelCap         int
	Placeholders     Placeholders
}

func DefaultConfig() Config {
	return Config{
		DefaultTradeCode: constants.DefaultTradeCode,
		FieldMarkers:     []string{"㉛"},
		ModelCap:         constants.DefaultModelCap,
		Placeholders: Placeholders{
			Declaration: constants.UnconfirmedDeclaration,
			LineIndex:   constants.UnconfirmedLineIndex,
			Model:       constants.UnresolvedModel,
			Quantity:    constants.UnresolvedQuantity,
			NetWeight:   constants.UnresolvedNetWeight,
			Price:       constants.UnresolvedPrice,
		},
	}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	if cfg.DefaultTradeCode == "" {
		cfg.DefaultTradeCode = def.DefaultTradeCode
	}
	if cfg.FieldMarkers == nil {
		cfg.FieldMarkers = def.FieldMarkers
	}
	if cfg.ModelCap <= 0 {
		cfg.ModelCap = def.ModelCap
	}
	ph, d := &cfg.Placeholders, def.Placeholders
	ph.Declaration = orDefault(ph.Declaration, d.Declaration)
	ph.LineIndex = orDefault(ph.LineIndex, d.LineIndex)
	ph.Model = orDefault(ph.Model, d.Model)
	ph.Quantity = orDefault(ph.Quantity, d.Quantity)
	ph.NetWeight = orDefault(ph.NetWeight, d.NetWeight)
	ph.Price = orDefault(ph.Price, d.Price)
	return cfg
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Parser turns one document's text into output records. It holds no per-document state
// and is safe for concurrent use as long as its Classifier is.
type Parser struct {
	cfg        Config
	fields     *FieldExtractor
	classifier Classifier
	logger     *slog.Logger
}

func NewParser(cfg Config, classifier Classifier, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = withDefaults(cfg)
	return &Parser{
		cfg:        cfg,
		fields:     NewFieldExtractor(cfg.FieldMarkers, cfg.ModelCap),
		classifier: classifier,
		logger:     logger,
	}
}

// Parse runs normalize, header, segments, items, fields and classification for one document.
// It never fails; problems are reported as warnings on the result.
func (p *Parser) Parse(doc RawDocument) DocumentResult {
	norm := Normalize(doc.Text)
	header := ExtractHeader(norm, p.cfg.DefaultTradeCode)
	res := DocumentResult{Document: doc.Name, Header: header}

	segs := SplitSegments(norm.Original)
	res.Stats.Segments = len(segs)
	if len(segs) == 0 {
		res.Warnings = append(res.Warnings, Warning{
			Document: doc.Name,
			Kind:     constants.WarnZeroYield,
			Message:  "no declaration line markers found",
		})
		p.logger.Warn("declaration.zero_yield", "document", doc.Name, "reason", "no_segments")
		return res
	}

	for _, seg := range segs {
		recs, warns := p.parseSegment(doc.Name, header, seg)
		res.Records = append(res.Records, recs...)
		res.Warnings = append(res.Warnings, warns...)
	}
	res.Stats.Items = len(res.Records)
	for _, r := range res.Records {
		if r.IsFOC {
			res.Stats.FOC++
		}
	}
	if len(res.Records) == 0 {
		res.Warnings = append(res.Warnings, Warning{
			Document: doc.Name,
			Kind:     constants.WarnZeroYield,
			Message:  fmt.Sprintf("%d line segments but no item tags", len(segs)),
		})
		p.logger.Warn("declaration.zero_yield", "document", doc.Name, "reason", "no_items", "segments", len(segs))
	}
	p.logger.Debug("declaration.parsed",
		"document", doc.Name,
		"segments", res.Stats.Segments,
		"items", res.Stats.Items,
		"foc", res.Stats.FOC,
	)
	return res
}

func (p *Parser) parseSegment(docName string, header DeclarationHeader, seg LineSegment) ([]OutputRecord, []Warning) {
	items := SplitItems(seg)
	if len(items) == 0 {
		return nil, nil
	}

	extracted := make([]ExtractedFields, len(items))
	inline := make([]Value[Quantity], len(items))
	for i, it := range items {
		extracted[i] = p.fields.Extract(it)
		inline[i] = extracted[i].Quantity
	}
	tokens := QuantityTokens(collapseSpace(seg.RawSpan))
	aligned := AlignQuantities(inline, tokens)

	lineIndex := seg.LineIndex
	if !seg.IndexFound {
		lineIndex = p.cfg.Placeholders.LineIndex
	}

	var warns []Warning
	if len(tokens) > 0 && !aligned[0].CountsMatch {
		warns = append(warns, Warning{
			Document: docName,
			Kind:     constants.WarnAlignmentMismatch,
			Line:     lineIndex,
			Message:  fmt.Sprintf("%d items but %d quantity tokens; quantities paired by position", len(items), len(tokens)),
		})
		p.logger.Warn("declaration.alignment_mismatch",
			"document", docName, "line", lineIndex, "items", len(items), "tokens", len(tokens))
	}

	// Only an explicit trade code can suppress classification.
	tradeForFOC := ""
	if header.TradeCodeFound {
		tradeForFOC = header.TradeCode
	}

	recs := make([]OutputRecord, len(items))
	for i, it := range items {
		f := extracted[i]
		f.Quantity = aligned[i].Quantity
		recs[i] = OutputRecord{
			DocumentName:      docName,
			DeclarationNumber: Render(header.DeclarationNumber, p.cfg.Placeholders.Declaration),
			TradeCode:         header.TradeCode,
			LineIndex:         lineIndex,
			ItemTag:           it.Tag,
			ModelSpec:         Render(f.ModelSpec, p.cfg.Placeholders.Model),
			Quantity:          Render(f.Quantity, p.cfg.Placeholders.Quantity),
			NetWeight:         Render(f.NetWeight, p.cfg.Placeholders.NetWeight),
			DeclaredPrice:     Render(f.DeclaredPrice, p.cfg.Placeholders.Price),
			IsFOC:             p.isFOC(it.Content, tradeForFOC),
		}
	}
	return recs, warns
}

func (p *Parser) isFOC(content, tradeCode string) bool {
	if p.classifier == nil {
		return false
	}
	return p.classifier.IsFOC(content, tradeCode)
}
