package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/pkg/testutil"
)

func TestSweepItem(t *testing.T) {
	// One expired lot (available=4), one valid lot (available=6),
	// cached quantity 10 -> 6 with one lot remaining.
	expired := testLot(5, 1, testutil.DaysFromNow(-2))
	valid := testLot(6, 0, testutil.DaysFromNow(4))
	item := newTestItem(t, expired, valid)
	require.Equal(t, 10, item.Quantity)

	removed := domain.SweepItem(item, time.Now().UTC())

	require.Len(t, removed, 1)
	assert.Equal(t, expired.ID, removed[0].ID)
	require.Len(t, item.Lots, 1)
	assert.Equal(t, valid.ID, item.Lots[0].ID)
	assert.Equal(t, 6, item.Quantity)
	requireInvariant(t, item)
}

func TestSweepItem_NothingExpired(t *testing.T) {
	item := newTestItem(t,
		testLot(5, 0, testutil.DaysFromNow(0)), // today is not expired
		testLot(6, 0, testutil.DaysFromNow(4)),
	)

	removed := domain.SweepItem(item, time.Now().UTC())

	assert.Empty(t, removed)
	assert.Len(t, item.Lots, 2)
	assert.Equal(t, 11, item.Quantity)
}

func TestSweepItem_PreservesConsumptionHistory(t *testing.T) {
	// Sweeping must not cascade into the audit history.
	now := time.Now().UTC()
	item := newTestItem(t,
		testLot(5, 0, testutil.DaysFromNow(3)),
		testLot(4, 0, testutil.DaysFromNow(-1)),
	)
	_, _, err := item.Consume(2, testStaff, now)
	require.NoError(t, err)

	domain.SweepItem(item, now)

	assert.Len(t, item.Consumptions, 1)
}

func TestSweepItem_ClampsDriftedTotal(t *testing.T) {
	// A cached total that drifted below the expired lot's availability must
	// not go negative.
	item := newTestItem(t, testLot(8, 0, testutil.DaysFromNow(-3)))
	item.Quantity = 5

	domain.SweepItem(item, time.Now().UTC())

	assert.Equal(t, 0, item.Quantity)
	assert.Empty(t, item.Lots)
}

func TestSweep_ReportsOnlyChangedItems(t *testing.T) {
	now := time.Now().UTC()
	touched := newTestItem(t,
		testLot(4, 0, testutil.DaysFromNow(-1)),
		testLot(6, 0, testutil.DaysFromNow(4)),
	)
	untouched := newTestItem(t, testLot(9, 0, testutil.DaysFromNow(4)))

	results := domain.Sweep([]*domain.Item{touched, untouched}, now)

	require.Len(t, results, 1)
	assert.Equal(t, touched.ID, results[0].ItemID)
	require.Len(t, results[0].Removed, 1)
	assert.Equal(t, 6, touched.Quantity)
	assert.Equal(t, 9, untouched.Quantity)
}

func TestSweep_MultipleExpiredLots(t *testing.T) {
	now := time.Now().UTC()
	item := newTestItem(t,
		testLot(4, 1, testutil.DaysFromNow(-5)),
		testLot(2, 0, testutil.DaysFromNow(-1)),
		testLot(7, 0, testutil.DaysFromNow(6)),
	)
	require.Equal(t, 12, item.Quantity)

	results := domain.Sweep([]*domain.Item{item}, now)

	require.Len(t, results, 1)
	assert.Len(t, results[0].Removed, 2)
	assert.Equal(t, 7, item.Quantity)
	requireInvariant(t, item)
}
