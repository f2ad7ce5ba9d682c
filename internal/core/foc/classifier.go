package foc

import (
	"regexp"
	"strings"
	"sync"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

type Config struct {
	// TargetTradeCode is the only trade code subject to FOC analysis. Empty codes count as a match.
	TargetTradeCode string
	// Keywords match anywhere in the content.
	Keywords []string
	// WholeWords must stand alone, so FOC does not fire inside FOCUS.
	WholeWords []string
	// Exclusions veto a keyword hit (reusable containers and re-imports).
	Exclusions []string
}

func DefaultConfig() Config {
	return Config{
		TargetTradeCode: constants.DefaultTradeCode,
		Keywords:        []string{"FREE OF CHARGE", "F.O.C", "NO CHARGE", "무상"},
		WholeWords:      []string{"FOC"},
		Exclusions:      []string{"CANISTER", "CARRY BOX", "DRUM", "캐니스터", "캐리박스", "드럼", "재수입", "반복사용"},
	}
}

// Classifier applies the free-of-charge policy. Keyword and exclusion sets are each
// scanned in one pass with an Aho-Corasick automaton.
type Classifier struct {
	target string

	// ahocorasick.Matcher keeps per-call state, so Match is serialized.
	mu         sync.Mutex
	keywords   *ahocorasick.Matcher
	exclusions *ahocorasick.Matcher

	patterns  []string
	wholeWord []*regexp.Regexp // indexed like patterns; nil for substring keywords
}

func NewClassifier(cfg Config) *Classifier {
	if cfg.TargetTradeCode == "" {
		cfg.TargetTradeCode = constants.DefaultTradeCode
	}
	c := &Classifier{target: cfg.TargetTradeCode}

	for _, kw := range cfg.Keywords {
		if kw = normalizeKeyword(kw); kw != "" {
			c.patterns = append(c.patterns, kw)
			c.wholeWord = append(c.wholeWord, nil)
		}
	}
	for _, kw := range cfg.WholeWords {
		if kw = normalizeKeyword(kw); kw != "" {
			c.patterns = append(c.patterns, kw)
			c.wholeWord = append(c.wholeWord, regexp.MustCompile(`(?:^|[^A-Z0-9])`+regexp.QuoteMeta(kw)+`(?:[^A-Z0-9]|$)`))
		}
	}
	if len(c.patterns) > 0 {
		c.keywords = ahocorasick.NewStringMatcher(c.patterns)
	}

	var excl []string
	for _, kw := range cfg.Exclusions {
		if kw = normalizeKeyword(kw); kw != "" {
			excl = append(excl, kw)
		}
	}
	if len(excl) > 0 {
		c.exclusions = ahocorasick.NewStringMatcher(excl)
	}
	return c
}

// IsFOC reports whether an item is free of charge: the trade code is absent or the
// target, some keyword is present, and no exclusion is present. Matching is case-insensitive.
func (c *Classifier) IsFOC(content, tradeCode string) bool {
	tradeCode = strings.TrimSpace(tradeCode)
	if tradeCode != "" && tradeCode != c.target {
		return false
	}
	text := normalizeText(content)
	if text == "" {
		return false
	}
	return c.hasKeyword(text) && !c.hasExclusion(text)
}

func (c *Classifier) hasKeyword(text string) bool {
	if c.keywords == nil {
		return false
	}
	c.mu.Lock()
	hits := c.keywords.Match([]byte(text))
	c.mu.Unlock()

	for _, i := range hits {
		if i >= len(c.patterns) {
			continue
		}
		if re := c.wholeWord[i]; re != nil && !re.MatchString(text) {
			continue
		}
		return true
	}
	return false
}

func (c *Classifier) hasExclusion(text string) bool {
	if c.exclusions == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.exclusions.Match([]byte(text))) > 0
}

func normalizeKeyword(kw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(kw), " "))
}

// normalizeText upper-cases and collapses whitespace so phrases broken across lines still match.
func normalizeText(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
