// Package listpack implements the compact, variable-width-encoded
// contiguous sequence used by the ZIPLIST encodings of lists, hashes,
// and sorted sets (spec.md §4.B).
//
// Layout of the buffer:
//
//	[totalBytes:4][tailOffset:4][count:2] entry* [0xFF]
//
// Each entry is: [prevLenEncoding][contentEncoding+data].
// prevLenEncoding is 1 byte for previous entries shorter than 254
// bytes, or a 0xFE sentinel followed by 4 bytes otherwise.
package listpack

import (
	"encoding/binary"
	"math"
)

const (
	headerSize = 4 + 4 + 2
	endMarker  = 0xFF

	// countSaturated is the value the 16-bit count field saturates at;
	// beyond this the true count requires a full walk.
	countSaturated = 65535

	prevLenBig = 0xFE // sentinel marking a 5-byte (1+4) prev-length field
)

// Encoding tags for content, mirroring ziplist.c's integer/string tags.
const (
	encInt8  = 0xC0
	encInt16 = 0xC1
	encInt24 = 0xC2
	encInt32 = 0xC3
	encInt64 = 0xC4
	encImm0  = 0xD0 // immediate integers 0..12 occupy 0xD0..0xDC
	encImmMax = 12

	encStr6  = 0x00 // 6-bit length, top bits 00
	encStr14 = 0x40 // 14-bit length, top bits 01
	encStr32 = 0x80 // 32-bit length, top bits 10
)

// List is a listpack buffer.
type List struct {
	buf []byte
}

// New creates an empty listpack.
func New() *List {
	l := &List{buf: make([]byte, headerSize+1)}
	binary.LittleEndian.PutUint32(l.buf[0:4], uint32(len(l.buf)))
	binary.LittleEndian.PutUint32(l.buf[4:8], uint32(headerSize))
	binary.LittleEndian.PutUint16(l.buf[8:10], 0)
	l.buf[len(l.buf)-1] = endMarker
	return l
}

func (l *List) totalBytes() uint32 { return binary.LittleEndian.Uint32(l.buf[0:4]) }
func (l *List) setTotalBytes(v uint32) { binary.LittleEndian.PutUint32(l.buf[0:4], v) }
func (l *List) tailOffset() uint32 { return binary.LittleEndian.Uint32(l.buf[4:8]) }
func (l *List) setTailOffset(v uint32) { binary.LittleEndian.PutUint32(l.buf[4:8], v) }
func (l *List) rawCount() uint16 { return binary.LittleEndian.Uint16(l.buf[8:10]) }
func (l *List) setRawCount(v uint16) { binary.LittleEndian.PutUint16(l.buf[8:10], v) }

// Bytes exposes the raw buffer (for size accounting / persistence hooks).
func (l *List) Bytes() []byte { return l.buf }

// Count returns the number of elements, walking the buffer if the
// 16-bit counter has saturated.
func (l *List) Count() int {
	if l.rawCount() != countSaturated {
		return int(l.rawCount())
	}
	n := 0
	l.forEach(func([]byte, int64, bool) bool { n++; return true })
	return n
}

func (l *List) bumpCount(delta int) {
	c := l.rawCount()
	if c == countSaturated {
		return
	}
	nc := int(c) + delta
	if nc >= countSaturated {
		l.setRawCount(countSaturated)
	} else if nc < 0 {
		l.setRawCount(0)
	} else {
		l.setRawCount(uint16(nc))
	}
}

// entry describes a decoded element at a given buffer offset.
type entry struct {
	offset   int // offset of prev-len field
	prevLen  int // size in bytes of the prior entry (0 for the first)
	prevWide bool
	contentOff int // offset where the content-encoding byte begins
	entryLen int // total bytes consumed by this entry (prevlen+content)
	isInt    bool
	ival     int64
	sval     []byte
}

func encodePrevLen(n int) []byte {
	if n < prevLenBig {
		return []byte{byte(n)}
	}
	b := make([]byte, 5)
	b[0] = prevLenBig
	binary.LittleEndian.PutUint32(b[1:], uint32(n))
	return b
}

func prevLenWidth(n int) int {
	if n < prevLenBig {
		return 1
	}
	return 5
}

func decodePrevLen(buf []byte, off int) (prevLen, width int) {
	if buf[off] != prevLenBig {
		return int(buf[off]), 1
	}
	return int(binary.LittleEndian.Uint32(buf[off+1:])), 5
}

// encodeContent returns the bytes encoding value (tried as integer
// first, falling back to a string encoding) and whether it was stored
// as an integer.
func encodeContent(value []byte) ([]byte, bool, int64) {
	if iv, ok := tryParseInt(value); ok {
		return encodeInt(iv), true, iv
	}
	n := len(value)
	switch {
	case n < 64:
		head := []byte{encStr6 | byte(n)}
		return append(head, value...), false, 0
	case n < 4096:
		head := []byte{encStr14 | byte(n>>8), byte(n)}
		return append(head, value...), false, 0
	default:
		head := make([]byte, 5)
		head[0] = encStr32
		binary.BigEndian.PutUint32(head[1:], uint32(n))
		return append(head, value...), false, 0
	}
}

func encodeInt(v int64) []byte {
	switch {
	case v >= 0 && v <= encImmMax:
		return []byte{byte(encImm0 + v)}
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return []byte{encInt8, byte(int8(v))}
	case v >= math.MinInt16 && v <= math.MaxInt16:
		b := make([]byte, 3)
		b[0] = encInt16
		binary.LittleEndian.PutUint16(b[1:], uint16(int16(v)))
		return b
	case v >= -(1<<23) && v <= (1<<23)-1:
		b := make([]byte, 4)
		b[0] = encInt24
		b[1], b[2], b[3] = byte(v), byte(v>>8), byte(v>>16)
		return b
	case v >= math.MinInt32 && v <= math.MaxInt32:
		b := make([]byte, 5)
		b[0] = encInt32
		binary.LittleEndian.PutUint32(b[1:], uint32(int32(v)))
		return b
	default:
		b := make([]byte, 9)
		b[0] = encInt64
		binary.LittleEndian.PutUint64(b[1:], uint64(v))
		return b
	}
}

func decodeContent(buf []byte, off int) (contentLen int, isInt bool, ival int64, sval []byte) {
	tag := buf[off]
	switch {
	case tag >= encImm0 && tag <= encImm0+encImmMax:
		return 1, true, int64(tag - encImm0), nil
	case tag == encInt8:
		return 2, true, int64(int8(buf[off+1])), nil
	case tag == encInt16:
		return 3, true, int64(int16(binary.LittleEndian.Uint16(buf[off+1:]))), nil
	case tag == encInt24:
		raw := uint32(buf[off+1]) | uint32(buf[off+2])<<8 | uint32(buf[off+3])<<16
		if raw&(1<<23) != 0 {
			raw |= 0xFF000000
		}
		return 4, true, int64(int32(raw)), nil
	case tag == encInt32:
		return 5, true, int64(int32(binary.LittleEndian.Uint32(buf[off+1:]))), nil
	case tag == encInt64:
		return 9, true, int64(binary.LittleEndian.Uint64(buf[off+1:])), nil
	case tag&0xC0 == encStr6:
		n := int(tag & 0x3F)
		return 1 + n, false, 0, buf[off+1 : off+1+n]
	case tag&0xC0 == encStr14:
		n := int(tag&0x3F)<<8 | int(buf[off+1])
		return 2 + n, false, 0, buf[off+2 : off+2+n]
	default: // encStr32
		n := int(binary.BigEndian.Uint32(buf[off+1:]))
		return 5 + n, false, 0, buf[off+5 : off+5+n]
	}
}

func tryParseInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	neg := false
	i := 0
	if b[0] == '-' {
		neg = true
		i = 1
	}
	if i == len(b) {
		return 0, false
	}
	var v int64
	for ; i < len(b); i++ {
		if b[i] < '0' || b[i] > '9' {
			return 0, false
		}
		v = v*10 + int64(b[i]-'0')
	}
	if neg {
		v = -v
	}
	// Reject forms with leading zeros other than "0" itself, matching
	// the no-reencode-ambiguity rule used by ziplist.c.
	if len(b) > 1 && ((neg && b[1] == '0') || (!neg && b[0] == '0')) {
		return 0, false
	}
	return v, true
}

func itoa(v int64) []byte {
	neg := v < 0
	u := uint64(v)
	if neg {
		u = uint64(-v)
	}
	var tmp [20]byte
	i := len(tmp)
	if u == 0 {
		i--
		tmp[i] = '0'
	}
	for u > 0 {
		i--
		tmp[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		tmp[i] = '-'
	}
	return tmp[i:]
}

// decodeAt decodes the entry whose prev-length field starts at off.
func (l *List) decodeAt(off int) entry {
	prevLen, width := decodePrevLen(l.buf, off)
	contentOff := off + width
	contentLen, isInt, ival, sval := decodeContent(l.buf, contentOff)
	return entry{
		offset: off, prevLen: prevLen, prevWide: width == 5,
		contentOff: contentOff, entryLen: width + contentLen,
		isInt: isInt, ival: ival, sval: sval,
	}
}

// firstOffset / lastOffset locate the start of the first/last entry.
func (l *List) firstOffset() int { return headerSize }
func (l *List) endOffset() int   { return len(l.buf) - 1 }

func (l *List) isEmpty() bool { return l.firstOffset() == l.endOffset() }

// forEach walks forward calling fn(value, intval, isInt) for each
// element; fn returning false stops the walk.
func (l *List) forEach(fn func(value []byte, ival int64, isInt bool) bool) {
	off := l.firstOffset()
	for off < l.endOffset() {
		e := l.decodeAt(off)
		val := e.sval
		if e.isInt {
			val = itoa(e.ival)
		}
		if !fn(val, e.ival, e.isInt) {
			return
		}
		off += e.entryLen
	}
}

// Get returns the raw bytes of the value at a signed rank (negative
// indexes from the tail), and whether it exists.
func (l *List) Get(index int) ([]byte, bool) {
	n := l.Count()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false
	}
	if index <= n/2 {
		i := 0
		var result []byte
		found := false
		l.forEach(func(v []byte, _ int64, _ bool) bool {
			if i == index {
				result = append([]byte(nil), v...)
				found = true
				return false
			}
			i++
			return true
		})
		return result, found
	}
	// Walk backward from the tail for the second half.
	off := int(l.tailOffset())
	i := n - 1
	for {
		e := l.decodeAt(off)
		if i == index {
			if e.isInt {
				return itoa(e.ival), true
			}
			return append([]byte(nil), e.sval...), true
		}
		if off == l.firstOffset() {
			return nil, false
		}
		off -= e.prevLen
		i--
	}
}

// All materializes every element, forward order.
func (l *List) All() [][]byte {
	out := make([][]byte, 0, l.Count())
	l.forEach(func(v []byte, _ int64, _ bool) bool {
		out = append(out, append([]byte(nil), v...))
		return true
	})
	return out
}

// Push appends value at the head (toHead=true) or tail.
func (l *List) Push(value []byte, toHead bool) {
	if toHead {
		l.insertAt(l.firstOffset(), value)
	} else {
		l.insertAt(l.endOffset(), value)
	}
}

// insertAt splices a new entry encoding value at position pos (the
// offset of the entry currently there, or endOffset() to append).
func (l *List) insertAt(pos int, value []byte) {
	content, _, _ := encodeContent(value)

	appendedAtTail := pos == l.endOffset()
	oldTail := int(l.tailOffset())

	prevLen := 0
	if pos > l.firstOffset() {
		// prevLen is the size of the entry immediately before pos.
		prevOff := l.prevEntryOffset(pos)
		prevLen = pos - prevOff
	}
	prevField := encodePrevLen(prevLen)
	newEntry := append(append([]byte(nil), prevField...), content...)
	entryLen := len(newEntry)

	newBuf := make([]byte, 0, len(l.buf)+entryLen)
	newBuf = append(newBuf, l.buf[:pos]...)
	newBuf = append(newBuf, newEntry...)
	newBuf = append(newBuf, l.buf[pos:]...)
	l.buf = newBuf
	l.setTotalBytes(uint32(len(l.buf)))
	l.bumpCount(1)

	switch {
	case appendedAtTail:
		l.setTailOffset(uint32(pos))
	case pos <= oldTail:
		l.setTailOffset(uint32(oldTail + entryLen))
	}

	l.cascadeUpdate(pos + entryLen)
}

// prevEntryOffset walks from the head to find the offset of the entry
// immediately preceding pos. Used by insertAt, DeleteAt and
// cascadeUpdate; the forward scan from the head works for any position.
func (l *List) prevEntryOffset(pos int) int {
	off := l.firstOffset()
	prev := off
	for off < pos {
		e := l.decodeAt(off)
		prev = off
		off += e.entryLen
	}
	return prev
}

// cascadeUpdate walks forward from off, rewriting each prev-length field
// with the real size of the entry before it and widening the field to
// the 5-byte form where that size needs it.
// Per spec.md §4.B, widths only ever grow, never shrink.
func (l *List) cascadeUpdate(off int) {
	for off < l.endOffset() {
		e := l.decodeAt(off)
		want := 0
		if off > l.firstOffset() {
			want = off - l.prevEntryOffset(off)
		}
		if want == e.prevLen {
			return
		}
		// A 5-byte field keeps its width even when the new length is small.
		newField := encodePrevLen(want)
		if e.prevWide {
			newField = append([]byte{prevLenBig}, binary.LittleEndian.AppendUint32(nil, uint32(want))...)
		}
		old := l.buf[e.offset:e.contentOff]
		delta := len(newField) - len(old)
		if delta == 0 {
			copy(l.buf[e.offset:], newField)
			return
		}
		rest := append([]byte(nil), l.buf[e.contentOff:]...)
		l.buf = append(l.buf[:e.offset], append(newField, rest...)...)
		l.setTotalBytes(uint32(len(l.buf)))
		if int(l.tailOffset()) > e.offset {
			l.setTailOffset(l.tailOffset() + uint32(delta))
		}
		off = e.offset + len(newField) + (e.entryLen - (e.contentOff - e.offset))
	}
}

// DeleteAt removes the element at signed rank index.
func (l *List) DeleteAt(index int) bool {
	n := l.Count()
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return false
	}
	off := l.firstOffset()
	for i := 0; i < index; i++ {
		e := l.decodeAt(off)
		off += e.entryLen
	}
	e := l.decodeAt(off)
	end := off + e.entryLen

	newBuf := make([]byte, 0, len(l.buf)-e.entryLen)
	newBuf = append(newBuf, l.buf[:off]...)
	newBuf = append(newBuf, l.buf[end:]...)
	l.buf = newBuf
	l.setTotalBytes(uint32(len(l.buf)))
	l.bumpCount(-1)

	tail := int(l.tailOffset())
	switch {
	case tail == off:
		// deleted the tail entry: new tail is the entry now before off
		l.setTailOffset(uint32(l.prevEntryOffset(off)))
		if l.isEmpty() {
			l.setTailOffset(uint32(headerSize))
		}
	case tail >= end:
		l.setTailOffset(uint32(tail - e.entryLen))
	}
	l.cascadeUpdate(off)
	return true
}

// InsertBefore inserts value immediately before the element currently
// at signed rank index.
func (l *List) InsertBefore(index int, value []byte) bool {
	n := l.Count()
	if index < 0 {
		index += n
	}
	if index < 0 || index > n {
		return false
	}
	pos := l.endOffset()
	if index < n {
		off := l.firstOffset()
		for i := 0; i < index; i++ {
			e := l.decodeAt(off)
			off += e.entryLen
		}
		pos = off
	}
	l.insertAt(pos, value)
	return true
}

// Find locates the first element equal to target, starting at element
// index start, examining every skip-th element. Returns the index, or
// -1 if not found.
func (l *List) Find(start int, target []byte, skip int) int {
	if skip < 1 {
		skip = 1
	}
	idx := -1
	i := 0
	checked := 0
	l.forEach(func(v []byte, _ int64, _ bool) bool {
		defer func() { i++ }()
		if i < start {
			return true
		}
		if (i-start)%skip != 0 {
			return true
		}
		checked++
		if string(v) == string(target) {
			idx = i
			return false
		}
		return true
	})
	return idx
}

// ByteLen returns the listpack's total byte length, matching the
// stored total-bytes header field (invariant 8 of spec.md §8).
func (l *List) ByteLen() int { return int(l.totalBytes()) }
