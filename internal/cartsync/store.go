// Package cartsync keeps the client copy of the server-side cart in step with
// the storefront. Every mutation is followed by a full refetch; nothing is
// updated optimistically.
package cartsync

import (
	"log/slog"
	"sync"
	"time"

	"github.com/utafrali/PizzaGo/internal/domain"
)

// State is the lifecycle state of the cart view.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of the store contents.
type Snapshot struct {
	State     State
	Cart      domain.Cart
	Err       error
	UpdatedAt time.Time
}

// IsEmpty reports whether a loaded cart holds no items.
func (s Snapshot) IsEmpty() bool {
	return s.State == StateLoaded && s.Cart.IsEmpty()
}

// Listener receives every new snapshot.
type Listener func(Snapshot)

// Store holds the cart state shared by the controller and the views.
//
// Fetches are sequence-numbered: a fetch result is applied only when no
// later-issued fetch (or local reset) has been applied already, so an older
// response finishing late can never overwrite a newer cart.
type Store struct {
	mu        sync.Mutex
	snap      Snapshot
	settled   State
	issued    uint64
	applied   uint64
	listeners map[int]Listener
	nextID    int
	now       func() time.Time
	logger    *slog.Logger
}

// NewStore creates an idle store holding an empty cart.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		snap:      Snapshot{State: StateIdle, Cart: domain.EmptyCart()},
		settled:   StateIdle,
		listeners: make(map[int]Listener),
		now:       time.Now,
		logger:    logger,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Subscribe registers fn for every state change and returns a function that
// removes it. Listeners run outside the store lock.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// beginFetch moves the store into Loading and returns the sequence number
// the result must be applied with.
func (s *Store) beginFetch() uint64 {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.snap.State = StateLoading
	snap, listeners := s.publishLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
	return seq
}

// markLoading re-enters Loading for a mutation in flight.
func (s *Store) markLoading() {
	s.mu.Lock()
	s.snap.State = StateLoading
	snap, listeners := s.publishLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
}

// applyFetch stores a fetched cart. It reports false when the result is stale.
func (s *Store) applyFetch(seq uint64, cart domain.Cart) bool {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		s.logger.Debug("dropping stale cart response",
			slog.Uint64("seq", seq),
			slog.Uint64("applied", s.applied),
		)
		return false
	}
	s.applied = seq
	s.snap.Cart = cart.Clone()
	s.snap.Err = nil
	s.settleLocked(StateLoaded)
	snap, listeners := s.publishLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
	return true
}

// failFetch records a failed fetch. The previous cart is kept for display.
func (s *Store) failFetch(seq uint64, err error) bool {
	s.mu.Lock()
	if seq <= s.applied {
		s.mu.Unlock()
		s.logger.Debug("dropping stale cart failure",
			slog.Uint64("seq", seq),
			slog.Uint64("applied", s.applied),
		)
		return false
	}
	s.applied = seq
	s.snap.Err = err
	s.settleLocked(StateError)
	snap, listeners := s.publishLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
	return true
}

// restore leaves Loading without touching the cart, returning to the last
// settled state. Used when an operation is abandoned (auth required).
func (s *Store) restore() {
	s.mu.Lock()
	if s.snap.State != StateLoading {
		s.mu.Unlock()
		return
	}
	s.snap.State = s.settled
	snap, listeners := s.publishLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
}

// Reset replaces the cart with an empty one. Fetches issued before the reset
// are treated as stale.
func (s *Store) Reset() {
	s.mu.Lock()
	s.applied = s.issued
	s.snap.Cart = domain.EmptyCart()
	s.snap.Err = nil
	s.settleLocked(StateLoaded)
	snap, listeners := s.publishLocked()
	s.mu.Unlock()

	notifyAll(listeners, snap)
}

func (s *Store) settleLocked(state State) {
	s.snap.State = state
	s.settled = state
	s.snap.UpdatedAt = s.now()
}

func (s *Store) copyLocked() Snapshot {
	snap := s.snap
	snap.Cart = s.snap.Cart.Clone()
	return snap
}

func (s *Store) publishLocked() (Snapshot, []Listener) {
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return s.copyLocked(), listeners
}

func notifyAll(listeners []Listener, snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}
