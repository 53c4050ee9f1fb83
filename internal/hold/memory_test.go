package hold

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hieplevanqts/salepa-checkout/internal/domain/cart"
)

func newTestStore() *MemoryStore {
	s := NewMemoryStore()
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("hold-%d", n) }
	base := time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
	s.now = func() time.Time { base = base.Add(time.Second); return base }
	return s
}

func bill(label string) Bill {
	return Bill{
		Label: label,
		Lines: []cart.Line{{
			Key: "v1", ProductID: "p1", VariantID: "v1",
			UnitPrice: decimal.NewFromInt(10000), Quantity: 1,
		}},
	}
}

func TestMemoryStore_HoldAndRecall(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, err := s.Hold(ctx, bill("Mr. Tuan"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.Recall(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Mr. Tuan", got.Label)
	require.Len(t, got.Lines, 1)

	// Recall consumes the entry.
	_, err = s.Recall(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_HoldEmptyCart(t *testing.T) {
	s := newTestStore()

	_, err := s.Hold(context.Background(), Bill{Label: "empty"})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestMemoryStore_UniqueIdentities(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	a, err := s.Hold(ctx, bill("a"))
	require.NoError(t, err)
	b, err := s.Hold(ctx, bill("b"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestMemoryStore_DeleteIsIdempotent(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	id, err := s.Hold(ctx, bill("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id), "second delete is a no-op")

	_, err = s.Recall(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_ListOldestFirst(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	_, err := s.Hold(ctx, bill("first"))
	require.NoError(t, err)
	_, err = s.Hold(ctx, bill("second"))
	require.NoError(t, err)

	bills, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 2)
	assert.Equal(t, "first", bills[0].Label)
	assert.Equal(t, "second", bills[1].Label)
}
