package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forkpoint/forkpoint-backend/internal/ledger/domain"
	"github.com/forkpoint/forkpoint-backend/pkg/errors"
	"github.com/forkpoint/forkpoint-backend/pkg/testutil"
)

func TestItem_Consume_FIFO(t *testing.T) {
	// The earlier-expiring lot is always drained first, regardless of the
	// order lots were restocked in.
	now := time.Now().UTC()
	later := testLot(10, 0, testutil.DaysFromNow(10))
	earlier := testLot(6, 0, testutil.DaysFromNow(5))
	item := newTestItem(t, later, earlier)

	record, source, err := item.Consume(4, testStaff, now)
	require.NoError(t, err)

	assert.Equal(t, earlier.ID, source.ID)
	assert.Equal(t, domain.DateOnly(earlier.ExpirationDate), record.SourceLotExpiration)
	assert.Equal(t, 4, record.Quantity)
	assert.Equal(t, testStaff.Email, record.StaffEmail)
	assert.Equal(t, 12, item.Quantity)

	// The earlier lot lost the stock; the later one is untouched.
	require.NotNil(t, item.FindLot(earlier.ID))
	assert.Equal(t, 2, item.FindLot(earlier.ID).Quantity)
	assert.Equal(t, 10, item.FindLot(later.ID).Quantity)
	requireInvariant(t, item)
}

func TestItem_Consume_SingleLotLimit(t *testing.T) {
	// Lot A available=3, lot B available=10: requesting 5 fails even though
	// the two lots together hold enough. The allocator draws from exactly
	// one lot per call.
	now := time.Now().UTC()
	lotA := testLot(3, 0, testutil.DaysFromNow(5))
	lotB := testLot(10, 0, testutil.DaysFromNow(10))
	item := newTestItem(t, lotA, lotB)

	_, _, err := item.Consume(5, testStaff, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientLotStock))

	// Nothing changed.
	assert.Equal(t, 13, item.Quantity)
	assert.Len(t, item.Lots, 2)
	assert.Empty(t, item.Consumptions)
	requireInvariant(t, item)
}

func TestItem_Consume_DrainsLotExactly(t *testing.T) {
	// A fully consumed lot is removed from the sequence.
	now := time.Now().UTC()
	lot := testLot(4, 0, testutil.DaysFromNow(3))
	item := newTestItem(t, lot, testLot(9, 0, testutil.DaysFromNow(8)))

	_, _, err := item.Consume(4, testStaff, now)
	require.NoError(t, err)

	assert.Nil(t, item.FindLot(lot.ID))
	require.Len(t, item.Lots, 1)
	assert.Equal(t, 9, item.Quantity)
	requireInvariant(t, item)
}

func TestItem_Consume_SkipsDamagedPortion(t *testing.T) {
	// Availability, not raw quantity, bounds a lot's contribution.
	now := time.Now().UTC()
	item := newTestItem(t, testLot(10, 7, testutil.DaysFromNow(5)))

	_, _, err := item.Consume(3, testStaff, now)
	require.NoError(t, err)
	requireInvariant(t, item)

	// Requesting more than the damaged lot's availability fails on that lot
	// even with a healthy later lot behind it.
	item2 := newTestItem(t, testLot(10, 7, testutil.DaysFromNow(5)), testLot(5, 0, testutil.DaysFromNow(9)))
	_, _, err = item2.Consume(4, testStaff, now)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInsufficientLotStock))
}

func TestItem_Consume_Rejections(t *testing.T) {
	now := time.Now().UTC()

	t.Run("zero quantity", func(t *testing.T) {
		item := newTestItem(t, testLot(5, 0, testutil.DaysFromNow(5)))
		_, _, err := item.Consume(0, testStaff, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
	})

	t.Run("more than cached total", func(t *testing.T) {
		item := newTestItem(t, testLot(5, 0, testutil.DaysFromNow(5)))
		_, _, err := item.Consume(6, testStaff, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInsufficientStock))
	})

	t.Run("no unexpired lots", func(t *testing.T) {
		// An expired lot lingering before a sweep keeps the cached total
		// up, but the allocator must not touch it.
		item := newTestItem(t, testLot(5, 0, testutil.DaysFromNow(-2)))
		_, _, err := item.Consume(3, testStaff, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNoValidStock))
	})

	t.Run("lot expiring today is not a candidate", func(t *testing.T) {
		item := newTestItem(t, testLot(5, 0, testutil.DaysFromNow(0)))
		_, _, err := item.Consume(3, testStaff, now)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrNoValidStock))
	})
}

func TestItem_Consume_AppendsHistoryInOrder(t *testing.T) {
	now := time.Now().UTC()
	item := newTestItem(t, testLot(10, 0, testutil.DaysFromNow(5)))

	_, _, err := item.Consume(2, testStaff, now)
	require.NoError(t, err)
	_, _, err = item.Consume(3, testStaff, now.Add(time.Minute))
	require.NoError(t, err)

	require.Len(t, item.Consumptions, 2)
	assert.Equal(t, 2, item.Consumptions[0].Quantity)
	assert.Equal(t, 3, item.Consumptions[1].Quantity)
	assert.NotEqual(t, item.Consumptions[0].ID, item.Consumptions[1].ID)
	assert.Equal(t, 5, item.Quantity)
	requireInvariant(t, item)
}
