package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"worshipsongs/internal/store"
)

var (
	// ErrBusy is returned when an operation starts while another is still in flight on the same state object.
	ErrBusy = errors.New("another operation is already in progress")
	// ErrStaleReference means a record the caller was holding has been deleted elsewhere.
	ErrStaleReference = errors.New("record no longer exists")
	// ErrInvalidOffset is returned for list positions outside the visible list.
	ErrInvalidOffset = errors.New("invalid list offset")
)

// State is the bookkeeping shared by the screen-level state objects: an in-flight guard,
// a one-shot user-facing error message, a change callback and a clock.
//
// State objects are meant to be driven from one goroutine at a time; the busy flag only
// rejects overlapping operations, it does not queue them.
type State struct {
	busy atomic.Bool

	mu       sync.Mutex
	message  string
	onChange func()
	clock    func() time.Time
}

// Begin marks an operation as in flight. It fails with ErrBusy if one already is.
func (s *State) Begin() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// End clears the in-flight mark set by Begin.
func (s *State) End() {
	s.busy.Store(false)
}

// Loading reports whether an operation is in flight.
func (s *State) Loading() bool {
	return s.busy.Load()
}

// Fail records a message for the caller to display.
func (s *State) Fail(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// ErrorMessage returns the last recorded failure message, if any.
func (s *State) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// ClearError drops the recorded failure message.
func (s *State) ClearError() {
	s.Fail("")
}

// SetOnChange registers fn to be called after every mutation of the state object.
func (s *State) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Changed invokes the registered change callback.
func (s *State) Changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// SetClock overrides the time source.
func (s *State) SetClock(clock func() time.Time) {
	s.mu.Lock()
	s.clock = clock
	s.mu.Unlock()
}

// Now returns the current time in UTC at database precision.
func (s *State) Now() time.Time {
	s.mu.Lock()
	clock := s.clock
	s.mu.Unlock()
	if clock != nil {
		return clock().UTC()
	}
	return Now()
}

// Now is the default clock: UTC at database precision.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Stale wraps not-found errors from the store with ErrStaleReference and leaves other errors untouched.
func Stale(err error) error {
	if errors.Is(err, store.ErrSongNotFound) ||
		errors.Is(err, store.ErrSetlistNotFound) ||
		errors.Is(err, store.ErrSetlistItemNotFound) {
		return fmt.Errorf("%w: %w", ErrStaleReference, err)
	}
	return err
}

// CheckOffsets verifies that every offset indexes a list of length n.
func CheckOffsets(offsets []int, n int) error {
	for _, offset := range offsets {
		if offset < 0 || offset >= n {
			return fmt.Errorf("%w: %d", ErrInvalidOffset, offset)
		}
	}
	return nil
}
