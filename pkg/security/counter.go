package security

import "sync"

// MaxSenderSequence is the sender sequence number ceiling (2^40-1).
// A sequence number at the ceiling is the last one usable; the next
// allocation fails with ErrSequenceExhausted.
const MaxSenderSequence = (uint64(1) << 40) - 1

// Replay window sizing.
const (
	// DefaultReplayWindowSize is the default sliding window width.
	DefaultReplayWindowSize = 32

	// MaxReplayWindowSize is the widest supported window (one bitmap word).
	MaxReplayWindowSize = 64
)

// SendSequence allocates outbound sequence numbers for one context.
// It is safe for concurrent use.
//
// Allocation is not transactional: a sequence number handed out for a
// protect operation that later fails is burned, never reissued. Reuse
// of a Partial IV under the same key is a nonce-reuse failure, so the
// counter only ever moves forward.
type SendSequence struct {
	value     uint64
	exhausted bool
	mu        sync.Mutex
}

// NewSendSequence creates a sequence allocator starting at 0.
func NewSendSequence() *SendSequence {
	return &SendSequence{}
}

// NewSendSequenceWithValue creates an allocator resuming at a
// specific value, for contexts restored from persisted counter state.
func NewSendSequenceWithValue(initial uint64) *SendSequence {
	return &SendSequence{value: initial}
}

// Next returns the next sequence number and advances the allocator.
// Fails with ErrSequenceExhausted once the ceiling has been consumed.
func (s *SendSequence) Next() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exhausted || s.value > MaxSenderSequence {
		s.exhausted = true
		return 0, ErrSequenceExhausted
	}

	current := s.value
	s.value++
	return current, nil
}

// Current returns the next value to be allocated without advancing.
func (s *SendSequence) Current() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// IsExhausted reports whether the allocator has hit its ceiling.
func (s *SendSequence) IsExhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exhausted
}

// ReplayWindow tracks received sequence numbers for one recipient
// context: a highest-accepted value plus a sliding bitmap of the
// window below it. It is safe for concurrent use.
type ReplayWindow struct {
	size        uint64
	maxSeq      uint64 // largest accepted sequence number
	bitmap      uint64 // window [maxSeq-size, maxSeq-1], bit 0 = maxSeq-1
	initialized bool
	mu          sync.Mutex
}

// NewReplayWindow creates a window of the given width. A width of 0
// selects DefaultReplayWindowSize; widths above MaxReplayWindowSize
// are clamped.
func NewReplayWindow(size int) *ReplayWindow {
	if size <= 0 {
		size = DefaultReplayWindowSize
	}
	if size > MaxReplayWindowSize {
		size = MaxReplayWindowSize
	}
	return &ReplayWindow{size: uint64(size)}
}

// Size returns the window width in sequence numbers.
func (w *ReplayWindow) Size() int {
	return int(w.size)
}

// Valid reports whether seq would be accepted, without recording it.
// The pipeline peeks before decrypting and commits with Accept only
// after the AEAD tag has verified.
func (w *ReplayWindow) Valid(seq uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	ok, _ := w.check(seq)
	return ok
}

// Accept records seq as received. Returns false if seq is a replay
// (at or below the window floor, or already marked).
func (w *ReplayWindow) Accept(seq uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	ok, offset := w.check(seq)
	if !ok {
		return false
	}

	if !w.initialized {
		w.maxSeq = seq
		w.bitmap = 0
		w.initialized = true
		return true
	}

	if seq > w.maxSeq {
		w.advance(seq)
		return true
	}

	w.bitmap |= uint64(1) << offset
	return true
}

// check classifies seq. It returns whether seq is acceptable and, for
// in-window values, the bitmap offset to mark. Must be called with the
// lock held.
func (w *ReplayWindow) check(seq uint64) (bool, uint64) {
	if !w.initialized {
		return true, 0
	}
	if seq > w.maxSeq {
		return true, 0
	}
	if seq == w.maxSeq {
		return false, 0
	}

	behind := w.maxSeq - seq
	if behind > w.size {
		// At or below the window floor.
		return false, 0
	}

	offset := behind - 1
	if w.bitmap&(uint64(1)<<offset) != 0 {
		return false, 0
	}
	return true, offset
}

// advance slides the window up to a new maximum.
func (w *ReplayWindow) advance(newMax uint64) {
	shift := newMax - w.maxSeq
	if shift > w.size {
		// Jumped past the whole window.
		w.bitmap = 0
	} else {
		// Shift and mark the old maximum. A shift equal to the bitmap
		// width clears it entirely before the old max bit is set.
		w.bitmap = (w.bitmap << shift) | (uint64(1) << (shift - 1))
	}
	w.maxSeq = newMax
}

// MaxSeq returns the highest accepted sequence number.
func (w *ReplayWindow) MaxSeq() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.maxSeq
}
