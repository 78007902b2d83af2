package tryupdate

import "sync/atomic"

// PackedCell is a single-word alternative to Cell for state that packs into
// 64 bits, such as a counter with a flag bit stolen from the bottom. The
// whole word is the state: there is no separate generation, so the
// compare-and-swap compares values, not identities. That is sound whenever
// the word itself carries enough information to distinguish states (a
// monotonic count, a lifecycle flag); it is not sound for words that encode
// reusable references.
type PackedCell struct {
	_    [7]uint64
	word atomic.Uint64
	_    [7]uint64
}

// Store unconditionally replaces the word. Intended for initialization,
// before the cell is shared.
func (c *PackedCell) Store(v uint64) { c.word.Store(v) }

// Load returns the current word.
func (c *PackedCell) Load() uint64 { return c.word.Load() }

// CompareAndSwap installs new iff the cell still holds old.
func (c *PackedCell) CompareAndSwap(old, new uint64) bool {
	return c.word.CompareAndSwap(old, new)
}

// TryUpdate is the packed-word analogue of the package-level TryUpdate. The
// same transition contract applies: pure, re-invoked on every lost race,
// side effects only after a Committed outcome.
func (c *PackedCell) TryUpdate(transition func(uint64) Decision[uint64], opts ...Option) Outcome[uint64] {
	cfg := applyOptions(opts)
	attempts := 0
	for {
		old := c.word.Load()
		dec := transition(old)
		if !dec.commit {
			return Outcome[uint64]{kind: Aborted}
		}
		if c.word.CompareAndSwap(old, dec.value) {
			return Outcome[uint64]{kind: Committed, value: dec.value}
		}
		attempts++
		if cfg.budget > 0 && attempts >= cfg.budget {
			return Outcome[uint64]{kind: ContentionExhausted}
		}
		if cfg.backoff {
			backoff(attempts)
		}
	}
}

// Flag64 packs a 63-bit value and a one-bit flag into a single word. The
// flag occupies the bottom bit so the value survives shifting.
type Flag64 uint64

// MakeFlag64 builds a packed word from a value and a flag. Values wider than
// 63 bits lose their top bit.
func MakeFlag64(value uint64, flag bool) Flag64 {
	f := Flag64(value << 1)
	if flag {
		f |= 1
	}
	return f
}

// Value returns the 63-bit value half.
func (f Flag64) Value() uint64 { return uint64(f) >> 1 }

// Flag returns the flag bit.
func (f Flag64) Flag() bool { return uint64(f)&1 == 1 }

// WithValue returns a copy with the value half replaced.
func (f Flag64) WithValue(value uint64) Flag64 {
	return Flag64(uint64(f)&1 | value<<1)
}

// WithFlag returns a copy with the flag bit replaced.
func (f Flag64) WithFlag(flag bool) Flag64 {
	if flag {
		return f | 1
	}
	return f &^ 1
}

// Flag32 is Flag64's half-width sibling: a 31-bit value plus a flag bit.
type Flag32 uint32

// MakeFlag32 builds a packed word from a value and a flag.
func MakeFlag32(value uint32, flag bool) Flag32 {
	f := Flag32(value << 1)
	if flag {
		f |= 1
	}
	return f
}

// Value returns the 31-bit value half.
func (f Flag32) Value() uint32 { return uint32(f) >> 1 }

// Flag returns the flag bit.
func (f Flag32) Flag() bool { return uint32(f)&1 == 1 }

// WithValue returns a copy with the value half replaced.
func (f Flag32) WithValue(value uint32) Flag32 {
	return Flag32(uint32(f)&1 | value<<1)
}

// WithFlag returns a copy with the flag bit replaced.
func (f Flag32) WithFlag(flag bool) Flag32 {
	if flag {
		return f | 1
	}
	return f &^ 1
}
