package cartsync

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/PizzaGo/internal/domain"
)

func cartOf(ids ...int) domain.Cart {
	items := make([]domain.CartItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, domain.CartItem{ID: id, Product: domain.Product{ID: id, Price: dec("100")}, Quantity: 1})
	}
	return domain.NewCart(items)
}

func TestStore_StartsIdleAndEmpty(t *testing.T) {
	s := NewStore(newTestLogger())
	snap := s.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.NotNil(t, snap.Cart.Items)
	assert.False(t, snap.IsEmpty(), "an idle cart is not yet known to be empty")
}

func TestStore_OlderFetchNeverOverwritesNewer(t *testing.T) {
	s := NewStore(newTestLogger())

	first := s.beginFetch()
	second := s.beginFetch()

	assert.True(t, s.applyFetch(second, cartOf(2)))
	assert.False(t, s.applyFetch(first, cartOf(1)))
	assert.False(t, s.failFetch(first, errors.New("late failure")))

	snap := s.Snapshot()
	assert.Equal(t, StateLoaded, snap.State)
	assert.NoError(t, snap.Err)
	assert.Equal(t, []int{2}, snap.Cart.ItemIDs())
}

func TestStore_ResetInvalidatesInFlightFetches(t *testing.T) {
	s := NewStore(newTestLogger())
	seq := s.beginFetch()

	s.Reset()
	assert.False(t, s.applyFetch(seq, cartOf(1)))

	snap := s.Snapshot()
	assert.Equal(t, StateLoaded, snap.State)
	assert.True(t, snap.IsEmpty())
	assert.True(t, snap.Cart.Total.IsZero())
}

func TestStore_FailFetchKeepsCart(t *testing.T) {
	s := NewStore(newTestLogger())
	require.True(t, s.applyFetch(s.beginFetch(), cartOf(1, 2)))

	boom := errors.New("boom")
	require.True(t, s.failFetch(s.beginFetch(), boom))

	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, []int{1, 2}, snap.Cart.ItemIDs())
}

func TestStore_RestoreReturnsToSettledState(t *testing.T) {
	s := NewStore(newTestLogger())
	require.True(t, s.applyFetch(s.beginFetch(), cartOf(1)))
	before := s.Snapshot()

	s.markLoading()
	assert.Equal(t, StateLoading, s.Snapshot().State)
	s.restore()

	assert.Equal(t, before, s.Snapshot())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := NewStore(newTestLogger())
	require.True(t, s.applyFetch(s.beginFetch(), cartOf(1)))

	snap := s.Snapshot()
	snap.Cart.Items[0].Quantity = 99

	assert.Equal(t, 1, s.Snapshot().Cart.Items[0].Quantity)
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore(newTestLogger())

	var states []State
	unsubscribe := s.Subscribe(func(snap Snapshot) {
		states = append(states, snap.State)
	})

	seq := s.beginFetch()
	s.applyFetch(seq, cartOf(1))
	unsubscribe()
	s.Reset()

	assert.Equal(t, []State{StateLoading, StateLoaded}, states)
}

func TestStore_ListenerMayReadStore(t *testing.T) {
	s := NewStore(newTestLogger())

	var seen int
	s.Subscribe(func(Snapshot) {
		seen = len(s.Snapshot().Cart.Items)
	})
	s.applyFetch(s.beginFetch(), cartOf(1, 2, 3))

	assert.Equal(t, 3, seen)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "error", StateError.String())
	assert.Equal(t, "unknown", State(42).String())
}
