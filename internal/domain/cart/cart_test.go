package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(key string, price int64, qty int) Line {
	return Line{
		Key:       key,
		ProductID: "p-" + key,
		VariantID: key,
		Name:      "item " + key,
		UnitPrice: decimal.NewFromInt(price),
		Quantity:  qty,
	}
}

func TestLedger_AddMergesByKey(t *testing.T) {
	var g Ledger
	g.Add(line("v1", 100, 1))
	g.Add(line("v2", 50, 1))
	g.Add(line("v1", 100, 2))

	lines := g.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "v1", lines[0].Key)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, 1, lines[1].Quantity)
}

func TestLedger_AddClampsQuantity(t *testing.T) {
	var g Ledger
	g.Add(line("v1", 100, 0))
	g.Add(line("v2", 100, -5))

	for _, l := range g.Lines() {
		assert.GreaterOrEqual(t, l.Quantity, 1)
	}
}

func TestLedger_SetQuantity(t *testing.T) {
	var g Ledger
	g.Add(line("v1", 100, 1))

	require.NoError(t, g.SetQuantity("v1", 5))
	assert.Equal(t, 5, g.Lines()[0].Quantity)

	// Below 1 clamps to 1, never removes.
	require.NoError(t, g.SetQuantity("v1", 0))
	assert.Equal(t, 1, g.Lines()[0].Quantity)
	require.NoError(t, g.SetQuantity("v1", -3))
	assert.Equal(t, 1, g.Lines()[0].Quantity)

	require.ErrorIs(t, g.SetQuantity("missing", 2), ErrLineNotFound)
}

func TestLedger_Remove(t *testing.T) {
	var g Ledger
	g.Add(line("v1", 100, 1))
	g.Add(line("v2", 200, 1))

	require.NoError(t, g.Remove("v1"))
	require.Len(t, g.Lines(), 1)
	assert.Equal(t, "v2", g.Lines()[0].Key)

	require.ErrorIs(t, g.Remove("v1"), ErrLineNotFound)
}

func TestLedger_MergeInvariant(t *testing.T) {
	// No two lines ever share an identity, for any add/remove/update mix.
	var g Ledger
	ops := []func(){
		func() { g.Add(line("a", 10, 1)) },
		func() { g.Add(line("b", 20, 2)) },
		func() { g.Add(line("a", 10, 1)) },
		func() { _ = g.SetQuantity("b", -1) },
		func() { _ = g.Remove("a") },
		func() { g.Add(line("a", 10, 3)) },
		func() { g.Add(line("b", 20, 1)) },
	}
	for _, op := range ops {
		op()
		seen := map[string]bool{}
		for _, l := range g.Lines() {
			assert.False(t, seen[l.Key], "duplicate key %s", l.Key)
			seen[l.Key] = true
			assert.GreaterOrEqual(t, l.Quantity, 1)
		}
	}
}

func TestLedger_LinesIsACopy(t *testing.T) {
	var g Ledger
	g.Add(line("v1", 100, 1))

	snapshot := g.Lines()
	snapshot[0].Quantity = 99

	assert.Equal(t, 1, g.Lines()[0].Quantity)
}

func TestLedger_Subtotal(t *testing.T) {
	var g Ledger
	g.Add(line("v1", 100000, 2))
	g.Add(line("v2", 50000, 1))

	assert.True(t, g.Subtotal().Equal(decimal.NewFromInt(250000)))
}

func TestLedger_Subtract(t *testing.T) {
	var g Ledger
	g.Add(line("a", 10, 2))
	g.Add(line("b", 20, 1))

	snapshot := g.Lines()

	// Additions after the snapshot survive the subtraction.
	g.Add(line("a", 10, 1))
	g.Add(line("c", 30, 1))
	g.Subtract(snapshot)

	lines := g.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].Key)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "c", lines[1].Key)

	// Subtracting the rest empties the ledger; unknown keys are ignored.
	g.Subtract(g.Lines())
	g.Subtract(snapshot)
	assert.True(t, g.Empty())
}

func TestLedger_Replace(t *testing.T) {
	var g Ledger
	g.Add(line("old", 10, 1))

	g.Replace([]Line{line("a", 10, 1), line("a", 10, 2), line("b", 5, 1)})

	lines := g.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)
}
