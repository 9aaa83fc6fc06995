// Package dict implements the incremental-rehash hash table used
// throughout the engine (spec.md §4.D): key-space, expire set, hash
// and set HT encodings, and the zset member→score index all sit on top
// of this type.
package dict

import "hash/maphash"

const (
	initialSize      = 4
	forceResizeRatio = 5
)

type entry struct {
	key   string
	value any
	next  *entry
}

type table struct {
	buckets []*entry
	mask    uint64
	used    int
}

func newTable(size uint64) *table {
	sz := nextPow2(size)
	return &table{buckets: make([]*entry, sz), mask: sz - 1}
}

func nextPow2(n uint64) uint64 {
	if n < initialSize {
		n = initialSize
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Dict is an open-hashing, separate-chaining table with two internal
// tables and a stepwise rehash cursor.
type Dict struct {
	t0, t1       *table
	rehashIdx    int // -1 when not rehashing
	seed         maphash.Seed
	safeIterators int
}

// New creates an empty, non-rehashing dict.
func New() *Dict {
	return &Dict{
		t0:        newTable(initialSize),
		rehashIdx: -1,
		seed:      maphash.MakeSeed(),
	}
}

func (d *Dict) hash(key string) uint64 {
	var h maphash.Hash
	h.SetSeed(d.seed)
	h.WriteString(key)
	return h.Sum64()
}

// IsRehashing reports whether a rehash is in progress.
func (d *Dict) IsRehashing() bool { return d.rehashIdx != -1 }

// Len returns the total number of entries across both tables.
func (d *Dict) Len() int {
	n := d.t0.used
	if d.t1 != nil {
		n += d.t1.used
	}
	return n
}

// rehashStep migrates one non-empty bucket from t0 to t1.
func (d *Dict) rehashStep() {
	if !d.IsRehashing() {
		return
	}
	if d.safeIterators > 0 {
		return
	}
	for d.rehashIdx < len(d.t0.buckets) && d.t0.buckets[d.rehashIdx] == nil {
		d.rehashIdx++
	}
	if d.rehashIdx >= len(d.t0.buckets) {
		d.t0 = d.t1
		d.t1 = nil
		d.rehashIdx = -1
		return
	}
	e := d.t0.buckets[d.rehashIdx]
	d.t0.buckets[d.rehashIdx] = nil
	for e != nil {
		next := e.next
		h := d.hash(e.key)
		idx := h & d.t1.mask
		e.next = d.t1.buckets[idx]
		d.t1.buckets[idx] = e
		d.t0.used--
		d.t1.used++
		e = next
	}
	d.rehashIdx++
}

func (d *Dict) maybeExpand() {
	if d.IsRehashing() {
		return
	}
	if d.t0.used == 0 {
		return
	}
	loadOK := d.t0.used >= len(d.t0.buckets)
	forced := d.t0.used/len(d.t0.buckets) > forceResizeRatio
	if loadOK || forced {
		d.beginRehash(uint64(d.t0.used) * 2)
	}
}

func (d *Dict) beginRehash(size uint64) {
	d.t1 = newTable(size)
	d.rehashIdx = 0
}

// Set inserts or overwrites key with value. Always performs one
// rehash step first if a rehash is active.
func (d *Dict) Set(key string, value any) {
	d.rehashStep()
	if e := d.find(key); e != nil {
		e.value = value
		return
	}
	d.maybeExpand()
	tgt := d.t0
	if d.IsRehashing() {
		tgt = d.t1
	}
	h := d.hash(key)
	idx := h & tgt.mask
	tgt.buckets[idx] = &entry{key: key, value: value, next: tgt.buckets[idx]}
	tgt.used++
}

// find locates the entry for key across both tables without mutating.
func (d *Dict) find(key string) *entry {
	h := d.hash(key)
	for e := d.t0.buckets[h&d.t0.mask]; e != nil; e = e.next {
		if e.key == key {
			return e
		}
	}
	if d.t1 != nil {
		for e := d.t1.buckets[h&d.t1.mask]; e != nil; e = e.next {
			if e.key == key {
				return e
			}
		}
	}
	return nil
}

// Get returns the value for key and whether it exists.
func (d *Dict) Get(key string) (any, bool) {
	d.rehashStep()
	e := d.find(key)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Has reports membership without returning the value.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Delete removes key, returning true if it was present.
func (d *Dict) Delete(key string) bool {
	d.rehashStep()
	h := d.hash(key)
	if deleteFrom(d.t0, h&d.t0.mask, key) {
		return true
	}
	if d.t1 != nil {
		return deleteFrom(d.t1, h&d.t1.mask, key)
	}
	return false
}

func deleteFrom(t *table, idx uint64, key string) bool {
	var prev *entry
	e := t.buckets[idx]
	for e != nil {
		if e.key == key {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.used--
			return true
		}
		prev = e
		e = e.next
	}
	return false
}

// Clear empties the dict back to its initial state.
func (d *Dict) Clear() {
	d.t0 = newTable(initialSize)
	d.t1 = nil
	d.rehashIdx = -1
}

// ResizeIfNeeded triggers an expand check; exposed for the server cron
// which also tries to shrink under-loaded tables (spec.md §4.O).
func (d *Dict) ResizeIfNeeded() {
	d.maybeExpand()
	if d.IsRehashing() || d.t0.used == 0 {
		return
	}
	if len(d.t0.buckets) > initialSize && d.t0.used*10 < len(d.t0.buckets) {
		d.beginRehash(uint64(d.t0.used))
	}
}

// RehashMillis performs incremental rehash steps for up to the given
// millisecond budget (approximated as a fixed step count per call,
// since a single dict step is O(1) amortized); used by the server cron
// to bound main-thread rehash work per spec.md §4.O.
func (d *Dict) RehashMillis(steps int) {
	for i := 0; i < steps && d.IsRehashing(); i++ {
		d.rehashStep()
	}
}

// ForEach calls fn for every (key, value) pair as a *safe* iteration:
// rehashing is paused for the duration so every key is seen exactly
// once even if fn mutates values in place.
func (d *Dict) ForEach(fn func(key string, value any) bool) {
	d.safeIterators++
	defer func() { d.safeIterators-- }()
	if !iterateTable(d.t0, fn) {
		return
	}
	if d.t1 != nil {
		iterateTable(d.t1, fn)
	}
}

func iterateTable(t *table, fn func(string, any) bool) bool {
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			if !fn(e.key, e.value) {
				return false
			}
		}
	}
	return true
}

// Keys returns every key (unsafe snapshot semantics: materializes all
// keys up front, does not track concurrent structural mutation).
func (d *Dict) Keys() []string {
	out := make([]string, 0, d.Len())
	d.ForEach(func(k string, _ any) bool {
		out = append(out, k)
		return true
	})
	return out
}

// RandomKey returns a uniformly-ish chosen key (biased by bucket
// layout, as in the original dict's dictGetRandomKey) using idx as the
// caller-supplied entropy source, or ok=false on an empty dict.
func (d *Dict) RandomKey(idx uint64) (string, bool) {
	if d.Len() == 0 {
		return "", false
	}
	t := d.t0
	if d.IsRehashing() && d.t1 != nil && idx%2 == 1 {
		t = d.t1
	}
	if t.used == 0 {
		t = d.t0
	}
	start := idx % uint64(len(t.buckets))
	for i := uint64(0); i < uint64(len(t.buckets)); i++ {
		b := t.buckets[(start+i)&t.mask]
		if b != nil {
			n := 0
			for e := b; e != nil; e = e.next {
				n++
			}
			pick := int(idx>>32) % n
			e := b
			for j := 0; j < pick; j++ {
				e = e.next
			}
			return e.key, true
		}
	}
	return "", false
}

// Fingerprint returns a structural summary used by unsafe iterators to
// detect forbidden concurrent mutation (spec.md §4.D, §9).
func (d *Dict) Fingerprint() uint64 {
	mix := func(h uint64, v uint64) uint64 {
		h ^= v
		h *= 0x9E3779B97F4A7C15
		h ^= h >> 29
		return h
	}
	fp := uint64(1469598103934665603)
	fp = mix(fp, uint64(len(d.t0.buckets)))
	fp = mix(fp, uint64(d.t0.used))
	if d.t1 != nil {
		fp = mix(fp, uint64(len(d.t1.buckets)))
		fp = mix(fp, uint64(d.t1.used))
	}
	fp = mix(fp, uint64(d.rehashIdx+1))
	return fp
}

// Scan implements the cursor-based incremental full-table scan
// (spec.md §4.D): reverse-binary increment so buckets re-homed by a
// resize are still revisited. Calls fn for every entry in the buckets
// visited this call and returns the next cursor (0 means done).
func (d *Dict) Scan(cursor uint64, fn func(key string, value any)) uint64 {
	t := d.t0
	if d.IsRehashing() {
		// Scan the smaller table's bucket, then every bucket of the larger
		// table that the same low cursor bits expand to.
		small, large := d.t0, d.t1
		if len(small.buckets) > len(large.buckets) {
			small, large = large, small
		}
		t = small
		m0, m1 := small.mask, large.mask
		scanBucket(small, cursor&m0, fn)
		for v := cursor; ; {
			scanBucket(large, v&m1, fn)
			if v = (((v | m0) + 1) &^ m0) | (v & m0); v&(m0^m1) == 0 {
				break
			}
		}
	} else {
		scanBucket(t, cursor&t.mask, fn)
	}

	m := t.mask
	v := cursor | ^m
	v = reverseBits(v)
	v++
	v = reverseBits(v)
	return v
}

func scanBucket(t *table, idx uint64, fn func(string, any)) {
	for e := t.buckets[idx]; e != nil; e = e.next {
		fn(e.key, e.value)
	}
}

func reverseBits(v uint64) uint64 {
	var r uint64
	for i := 0; i < 64; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}
