package declaration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
)

func qty(amount, unit string) declaration.Quantity {
	return declaration.Quantity{Amount: amount, Unit: unit}
}

func TestAlignQuantities_InlineWhenEveryItemHasOne(t *testing.T) {
	inline := []declaration.Value[declaration.Quantity]{
		declaration.Resolved(qty("1", "EA")),
		declaration.Resolved(qty("2", "EA")),
	}

	got := declaration.AlignQuantities(inline, []declaration.Quantity{qty("1", "EA"), qty("2", "EA")})

	require.Len(t, got, 2)
	for _, a := range got {
		assert.Equal(t, declaration.SourceContent, a.Source)
		assert.True(t, a.CountsMatch)
	}
	assert.Equal(t, "2 (EA)", declaration.Render(got[1].Quantity, unresolved))
}

func TestAlignQuantities_PositionalWithMissingTrailingToken(t *testing.T) {
	inline := make([]declaration.Value[declaration.Quantity], 3)
	tokens := []declaration.Quantity{qty("13", "BO"), qty("7", "BO")}

	got := declaration.AlignQuantities(inline, tokens)

	require.Len(t, got, 3)
	assert.Equal(t, "13 (BO)", declaration.Render(got[0].Quantity, unresolved))
	assert.Equal(t, "7 (BO)", declaration.Render(got[1].Quantity, unresolved))
	assert.Equal(t, unresolved, declaration.Render(got[2].Quantity, unresolved))
	assert.Equal(t, declaration.SourcePositional, got[0].Source)
	assert.Equal(t, declaration.SourceNone, got[2].Source)
	assert.False(t, got[0].CountsMatch)
}

func TestAlignQuantities_NoItems(t *testing.T) {
	assert.Empty(t, declaration.AlignQuantities(nil, []declaration.Quantity{qty("1", "EA")}))
}

func TestAlignQuantities_OwnQuantityKeptInMixedSegment(t *testing.T) {
	inline := []declaration.Value[declaration.Quantity]{
		declaration.Unresolved[declaration.Quantity](),
		declaration.Resolved(qty("5", "EA")),
		declaration.Resolved(qty("7", "EA")),
	}
	tokens := []declaration.Quantity{qty("5", "EA"), qty("7", "EA")}

	got := declaration.AlignQuantities(inline, tokens)

	require.Len(t, got, 3)
	assert.Equal(t, unresolved, declaration.Render(got[0].Quantity, unresolved))
	assert.Equal(t, declaration.SourceNone, got[0].Source)
	assert.Equal(t, "5 (EA)", declaration.Render(got[1].Quantity, unresolved))
	assert.Equal(t, declaration.SourceContent, got[1].Source)
	assert.Equal(t, "7 (EA)", declaration.Render(got[2].Quantity, unresolved))
	assert.False(t, got[0].CountsMatch)
}

func TestAlignQuantities_LeftoverTokensFillItemsWithoutQuantity(t *testing.T) {
	inline := []declaration.Value[declaration.Quantity]{
		declaration.Resolved(qty("2", "SET")),
		declaration.Unresolved[declaration.Quantity](),
	}
	tokens := []declaration.Quantity{qty("3", "BO"), qty("2", "SET")}

	got := declaration.AlignQuantities(inline, tokens)

	assert.Equal(t, "2 (SET)", declaration.Render(got[0].Quantity, unresolved))
	assert.Equal(t, "3 (BO)", declaration.Render(got[1].Quantity, unresolved))
	assert.Equal(t, declaration.SourcePositional, got[1].Source)
	assert.True(t, got[1].CountsMatch)
}

func TestAlignQuantities_TrailingColumnInLastItem(t *testing.T) {
	inline := []declaration.Value[declaration.Quantity]{
		declaration.Unresolved[declaration.Quantity](),
		declaration.Unresolved[declaration.Quantity](),
		declaration.Resolved(qty("13", "BO")),
	}
	tokens := []declaration.Quantity{qty("13", "BO"), qty("7", "BO")}

	got := declaration.AlignQuantities(inline, tokens)

	assert.Equal(t, "13 (BO)", declaration.Render(got[0].Quantity, unresolved))
	assert.Equal(t, "7 (BO)", declaration.Render(got[1].Quantity, unresolved))
	assert.Equal(t, declaration.SourceNone, got[2].Source)
}
