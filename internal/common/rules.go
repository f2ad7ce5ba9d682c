package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/foc-extractor/constants"
)

// Rules are the tunable extraction and classification policies.
type Rules struct {
	TargetTradeCode  string       `yaml:"target_trade_code"`
	DefaultTradeCode string       `yaml:"default_trade_code"`
	FOCKeywords      []string     `yaml:"foc_keywords"`
	FOCWholeWords    []string     `yaml:"foc_whole_words"`
	Exclusions       []string     `yaml:"exclusions"`
	FieldMarkers     []string     `yaml:"field_markers"`
	ModelCap         int          `yaml:"model_cap"`
	Placeholders     Placeholders `yaml:"placeholders"`
}

// Placeholders are written for fields that stayed unresolved.
type Placeholders struct {
	Declaration string `yaml:"declaration"`
	LineIndex   string `yaml:"line_index"`
	Model       string `yaml:"model"`
	Quantity    string `yaml:"quantity"`
	NetWeight   string `yaml:"net_weight"`
	Price       string `yaml:"price"`
}

func DefaultRules() Rules {
	return Rules{
		TargetTradeCode:  constants.DefaultTradeCode,
		DefaultTradeCode: constants.DefaultTradeCode,
		FOCKeywords:      []string{"FREE OF CHARGE", "F.O.C", "NO CHARGE", "무상"},
		FOCWholeWords:    []string{"FOC"},
		Exclusions:       []string{"CANISTER", "CARRY BOX", "DRUM", "캐니스터", "캐리박스", "드럼", "재수입", "반복사용"},
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

var stringList = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string", "minLength": 1},
}

// rulesSchema guards hand-edited rule files.
var rulesSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"target_trade_code":  map[string]any{"type": "string", "pattern": "^[0-9]{2}$"},
		"default_trade_code": map[string]any{"type": "string", "pattern": "^[0-9]{2}$"},
		"foc_keywords":       stringList,
		"foc_whole_words":    stringList,
		"exclusions":         stringList,
		"field_markers":      stringList,
		"model_cap":          map[string]any{"type": "integer", "minimum": 10, "maximum": 2000},
		"placeholders": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"declaration": map[string]any{"type": "string"},
				"line_index":  map[string]any{"type": "string"},
				"model":       map[string]any{"type": "string"},
				"quantity":    map[string]any{"type": "string"},
				"net_weight":  map[string]any{"type": "string"},
				"price":       map[string]any{"type": "string"},
			},
		},
	},
}

// LoadRules returns DefaultRules overlaid with the YAML file at path.
// An empty path yields the defaults unchanged.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return rules, NewAppError("RULES_ERROR", "read rules file", err)
	}
	return ParseRules(b)
}

// ParseRules validates raw YAML against the rules schema and overlays it on the defaults.
func ParseRules(b []byte) (Rules, error) {
	rules := DefaultRules()

	var doc map[string]any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return rules, NewAppError("RULES_ERROR", "parse rules yaml", err)
	}
	if doc == nil {
		return rules, nil
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return rules, NewAppError("RULES_ERROR", "convert rules to json", err)
	}
	if err := validateAgainstSchema(rulesSchema, asJSON); err != nil {
		return rules, NewAppError("RULES_ERROR", "invalid rules file", fmt.Errorf("%w: %v", ErrValidation, err))
	}
	if err := yaml.Unmarshal(b, &rules); err != nil {
		return rules, NewAppError("RULES_ERROR", "decode rules", err)
	}
	v := NewValidator().
		Field("target_trade_code", rules.TargetTradeCode, TradeCode).
		Field("default_trade_code", rules.DefaultTradeCode, Required, TradeCode)
	if err := v.Error(); err != nil {
		return DefaultRules(), NewAppError("RULES_ERROR", "invalid rules file", err)
	}
	return rules, nil
}

func validateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	return schema.Validate(v)
}
