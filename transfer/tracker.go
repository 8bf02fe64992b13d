package transfer

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State is the shared record of one active transfer. The identifying fields
// are immutable after registration; progress and cancellation are updated
// atomically so the coordinator and external observers never contend on a
// lock.
type State struct {
	TransferID string
	UserID     int64
	ChannelID  int64
	Filename   string
	TotalSize  uint64
	TempPath   string

	bytesReceived atomic.Uint64
	cancelled     atomic.Bool
}

// BytesReceived reports the confirmed byte count, including any resumed
// prefix. The value only grows while the transfer is active.
func (s *State) BytesReceived() uint64 {
	return s.bytesReceived.Load()
}

// Cancelled reports whether cancellation has been requested.
func (s *State) Cancelled() bool {
	return s.cancelled.Load()
}

// Tracker is the registry of in-flight transfers, keyed by transfer id.
// All methods are safe for concurrent use.
type Tracker struct {
	transfers sync.Map // transfer id -> *State
}

// NewTracker creates an empty registry.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Insert registers a transfer. A second insert for an id that is still
// active is a protocol violation.
func (t *Tracker) Insert(state *State) error {
	if _, loaded := t.transfers.LoadOrStore(state.TransferID, state); loaded {
		return fmt.Errorf("%w: transfer %s already active", ErrProtocolViolation, state.TransferID)
	}
	return nil
}

// Get returns the state for an active transfer.
func (t *Tracker) Get(transferID string) (*State, bool) {
	v, ok := t.transfers.Load(transferID)
	if !ok {
		return nil, false
	}
	return v.(*State), true
}

// SetBytesReceived records the confirmed byte count for a transfer.
func (t *Tracker) SetBytesReceived(transferID string, n uint64) {
	if s, ok := t.Get(transferID); ok {
		s.bytesReceived.Store(n)
	}
}

// Cancel requests cancellation of an active transfer. It reports whether
// the transfer was found. The coordinator observes the flag on its next
// frame and unwinds cooperatively.
func (t *Tracker) Cancel(transferID string) bool {
	s, ok := t.Get(transferID)
	if !ok {
		return false
	}
	s.cancelled.Store(true)
	return true
}

// IsCancelled reports whether cancellation was requested for the transfer.
// Unknown ids report false.
func (t *Tracker) IsCancelled(transferID string) bool {
	s, ok := t.Get(transferID)
	return ok && s.Cancelled()
}

// Remove deregisters a transfer and returns its final state, or nil if it
// was not registered.
func (t *Tracker) Remove(transferID string) *State {
	v, ok := t.transfers.LoadAndDelete(transferID)
	if !ok {
		return nil
	}
	return v.(*State)
}

// Len reports the number of active transfers.
func (t *Tracker) Len() int {
	n := 0
	t.transfers.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
