package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/testutil"
)

func TestItem_ReverseRestock(t *testing.T) {
	lotA := testLot(8, 0, testutil.DaysFromNow(3))
	lotB := testLot(5, 2, testutil.DaysFromNow(7))
	item := newTestItem(t, lotA, lotB)
	require.Equal(t, 11, item.Quantity)

	removed, err := item.ReverseRestock(1)
	require.NoError(t, err)

	assert.Equal(t, lotB.ID, removed.ID)
	require.Len(t, item.Lots, 1)
	assert.Equal(t, lotA.ID, item.Lots[0].ID)
	assert.Equal(t, 8, item.Quantity)
	requireInvariant(t, item)
}

func TestItem_ReverseRestock_DiscardsDamages(t *testing.T) {
	// Reversal is a hard delete of the batch: recorded damage goes with it.
	lot := testLot(10, 4, testutil.DaysFromNow(5))
	item := newTestItem(t, lot)
	require.Equal(t, 6, item.Quantity)

	_, err := item.ReverseRestock(0)
	require.NoError(t, err)

	assert.Empty(t, item.Lots)
	assert.Equal(t, 0, item.Quantity)
}

func TestItem_ReverseRestock_BadIndex(t *testing.T) {
	item := newTestItem(t, testLot(5, 0, testutil.DaysFromNow(5)))

	for _, index := range []int{-1, 1, 10} {
		_, err := item.ReverseRestock(index)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	}
	assert.Len(t, item.Lots, 1)
}

func TestItem_ReverseConsumption_AddsExactQuantity(t *testing.T) {
	// Reversing a consumption of q increases the total by exactly q,
	// regardless of what the lots looks like now.
	now := time.Now().UTC()
	item := newTestItem(t, testLot(10, 0, testutil.DaysFromNow(5)))

	_, _, err := item.Consume(4, testStaff, now)
	require.NoError(t, err)
	require.Equal(t, 6, item.Quantity)

	reversed, err := item.ReverseConsumption(0)
	require.NoError(t, err)

	assert.Equal(t, 4, reversed.Quantity)
	assert.Equal(t, 10, item.Quantity)
	assert.Empty(t, item.Consumptions)
}

func TestItem_ReverseConsumption_DoesNotRestoreLot(t *testing.T) {
	// The source lot is gone (fully drained); the recovered quantity comes
	// back as unassigned total with no corresponding lot.
	now := time.Now().UTC()
	lot := testLot(4, 0, testutil.DaysFromNow(5))
	item := newTestItem(t, lot)

	_, _, err := item.Consume(4, testStaff, now)
	require.NoError(t, err)
	require.Empty(t, item.Lots)
	require.Equal(t, 0, item.Quantity)

	_, err = item.ReverseConsumption(0)
	require.NoError(t, err)

	assert.Equal(t, 4, item.Quantity)
	assert.Empty(t, item.Lots, "reversal must not resurrect the lot")
}

func TestItem_ReverseConsumption_BadIndex(t *testing.T) {
	now := time.Now().UTC()
	item := newTestItem(t, testLot(10, 0, testutil.DaysFromNow(5)))
	_, _, err := item.Consume(2, testStaff, now)
	require.NoError(t, err)

	for _, index := range []int{-1, 1, 5} {
		_, err := item.ReverseConsumption(index)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNotFound))
	}
	assert.Len(t, item.Consumptions, 1)
	assert.Equal(t, 8, item.Quantity)
}
