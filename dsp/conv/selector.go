package conv

import (
	"fmt"
	"sync/atomic"
)

// selector holds the active impulse response id.
//
// It is the only engine state that may be touched from outside the
// processing goroutine: SelectImpulseResponse stores a single word and the
// engine loads it once per block, so a block runs entirely on either the old
// or the new id.
type selector struct {
	active atomic.Int32
	count  int
}

// SelectImpulseResponse makes id the active impulse response from the next
// processed block on. It is safe to call concurrently with processing.
// An id outside [0, NumImpulseResponses()) returns ErrOutOfRange and leaves
// the selection unchanged.
func (s *selector) SelectImpulseResponse(id int) error {
	if id < 0 || id >= s.count {
		return fmt.Errorf("%w: id %d, have %d impulse responses", ErrOutOfRange, id, s.count)
	}

	s.active.Store(int32(id))
	return nil
}

// ActiveImpulseResponse returns the currently selected impulse response id.
func (s *selector) ActiveImpulseResponse() int {
	return int(s.active.Load())
}

// NumImpulseResponses returns the number of selectable impulse responses.
func (s *selector) NumImpulseResponses() int {
	return s.count
}
