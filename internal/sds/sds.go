// Package sds implements a length-prefixed, binary-safe, growable byte
// buffer in the style of Redis's simple dynamic strings.
package sds

// growthCeiling is the point at which growth switches from doubling to
// a fixed linear increment, mirroring sds.c's allocation policy.
const growthCeiling = 1024 * 1024

// SDS is a mutable, binary-safe byte buffer. The zero value is an empty
// string ready to use.
type SDS struct {
	buf []byte
}

// New creates an SDS containing a copy of b.
func New(b []byte) *SDS {
	s := &SDS{buf: make([]byte, len(b))}
	copy(s.buf, b)
	return s
}

// NewLen creates an empty SDS pre-sized to hold at least n bytes.
func NewLen(n int) *SDS {
	return &SDS{buf: make([]byte, 0, n)}
}

// Len returns the number of bytes currently stored.
func (s *SDS) Len() int { return len(s.buf) }

// Avail returns the free capacity beyond the current length.
func (s *SDS) Avail() int { return cap(s.buf) - len(s.buf) }

// Bytes returns the underlying bytes. Callers must not retain a
// reference across a mutating call.
func (s *SDS) Bytes() []byte { return s.buf }

// String returns a copy of the contents as a string.
func (s *SDS) String() string { return string(s.buf) }

// grow ensures the buffer can hold at least addLen more bytes, applying
// the doubling-then-linear growth policy.
func (s *SDS) grow(addLen int) {
	need := len(s.buf) + addLen
	if need <= cap(s.buf) {
		return
	}
	newCap := cap(s.buf)
	if newCap == 0 {
		newCap = addLen
	}
	for newCap < need {
		if newCap < growthCeiling {
			newCap *= 2
		} else {
			newCap += growthCeiling
		}
	}
	nb := make([]byte, len(s.buf), newCap)
	copy(nb, s.buf)
	s.buf = nb
}

// Append appends b, growing the buffer as needed. Binary-safe.
func (s *SDS) Append(b []byte) {
	s.grow(len(b))
	s.buf = append(s.buf, b...)
}

// AppendString appends the bytes of str.
func (s *SDS) AppendString(str string) {
	s.Append([]byte(str))
}

// Truncate shrinks the logical length to n, which must be <= Len().
func (s *SDS) Truncate(n int) {
	if n < 0 || n > len(s.buf) {
		panic("sds: truncate out of range")
	}
	s.buf = s.buf[:n]
}

// RangeCopy returns a fresh copy of s[start:end].
func (s *SDS) RangeCopy(start, end int) []byte {
	if start < 0 {
		start = 0
	}
	if end > len(s.buf) {
		end = len(s.buf)
	}
	if start >= end {
		return []byte{}
	}
	out := make([]byte, end-start)
	copy(out, s.buf[start:end])
	return out
}

// Dup returns a deep copy of s.
func (s *SDS) Dup() *SDS {
	return New(s.buf)
}

// Equal reports whether s and other hold identical bytes.
func (s *SDS) Equal(other *SDS) bool {
	if other == nil {
		return false
	}
	return string(s.buf) == string(other.buf)
}

// SetRange overwrites bytes starting at offset with value, zero-padding
// the buffer if offset extends past the current length.
func (s *SDS) SetRange(offset int, value []byte) {
	need := offset + len(value)
	if need > len(s.buf) {
		s.grow(need - len(s.buf))
		padded := make([]byte, need)
		copy(padded, s.buf)
		s.buf = padded
	}
	copy(s.buf[offset:], value)
}
