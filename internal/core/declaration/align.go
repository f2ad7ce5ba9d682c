package declaration

// QuantitySource says where an item's quantity came from.
type QuantitySource string

const (
	SourceContent    QuantitySource = "content"
	SourcePositional QuantitySource = "positional"
	SourceNone       QuantitySource = "none"
)

type Alignment struct {
	Quantity    Value[Quantity]
	Source      QuantitySource
	CountsMatch bool
}

// AlignQuantities decides each item's quantity within one segment. tokens are
// all quantity-like tokens of the segment in encounter order.
//
// An item whose own content carries a quantity keeps it. When no item does, or
// only the last item does and the segment holds more than one token, the
// segment is read as having a quantity column disjoint from the item text:
// item i takes tokens[i] by position and items past the end of tokens stay
// unresolved. Otherwise only the items without an own quantity are filled, in
// order, from the tokens the other items did not use.
//
// The positional pairing breaks silently when a token is missing in the
// middle, so CountsMatch reports whether the tokens available for pairing
// matched the items that needed one.
func AlignQuantities(inline []Value[Quantity], tokens []Quantity) []Alignment {
	out := make([]Alignment, len(inline))
	resolved := 0
	for _, v := range inline {
		if v.Resolved {
			resolved++
		}
	}

	switch {
	case len(inline) == 0:
		return out
	case resolved == len(inline):
		for i, v := range inline {
			out[i] = Alignment{Quantity: v, Source: SourceContent, CountsMatch: true}
		}
		return out
	case resolved == 0, resolved == 1 && inline[len(inline)-1].Resolved && len(tokens) > 1:
		pairPositional(out, nil, tokens)
		return out
	}

	for i, v := range inline {
		if v.Resolved {
			out[i] = Alignment{Quantity: v, Source: SourceContent}
		}
	}
	pairPositional(out, inline, unusedTokens(inline, tokens))
	return out
}

// pairPositional fills the items not already resolved in inline with tokens in order.
func pairPositional(out []Alignment, inline []Value[Quantity], tokens []Quantity) {
	var open []int
	for i := range out {
		if inline == nil || !inline[i].Resolved {
			open = append(open, i)
		}
	}
	match := len(tokens) == len(open)
	for n, i := range open {
		a := Alignment{Quantity: Unresolved[Quantity](), Source: SourceNone}
		if n < len(tokens) {
			a.Quantity = Resolved(tokens[n])
			a.Source = SourcePositional
		}
		out[i] = a
	}
	for i := range out {
		out[i].CountsMatch = match
	}
}

// unusedTokens drops one occurrence of each resolved inline quantity from tokens.
func unusedTokens(inline []Value[Quantity], tokens []Quantity) []Quantity {
	used := make([]bool, len(tokens))
	for _, v := range inline {
		if !v.Resolved {
			continue
		}
		for j, tok := range tokens {
			if !used[j] && tok == v.V {
				used[j] = true
				break
			}
		}
	}
	var rest []Quantity
	for j, tok := range tokens {
		if !used[j] {
			rest = append(rest, tok)
		}
	}
	return rest
}
