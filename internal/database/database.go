// Package database implements the keyspace/expire-set pair indexed by
// a small integer id (spec.md §4.H), lazy expiration, random-key
// sampling, and the 16-slot eviction-candidate pool (spec.md §4.M).
package database

import (
	"math/rand"
	"sort"
	"time"

	"gofast/internal/dict"
	"gofast/internal/object"
)

// PropagateFunc is called after a successful write or an expiration/
// eviction-induced deletion, mirroring spec.md §6's propagate(cmd,
// dbid, args) collaborator hook. The core treats the consumer as
// opaque; nil disables propagation.
type PropagateFunc func(dbID int, args []string)

// DB is one selectable database: a keyspace dict plus an expire dict
// mapping key -> absolute deadline (unix milliseconds).
type DB struct {
	ID        int
	keys      *dict.Dict
	expires   *dict.Dict
	propagate PropagateFunc
}

// New creates an empty database with the given numeric id.
func New(id int, propagate PropagateFunc) *DB {
	return &DB{ID: id, keys: dict.New(), expires: dict.New(), propagate: propagate}
}

// Len returns the number of keys (DBSIZE).
func (d *DB) Len() int { return d.keys.Len() }

// nowMillis is overridable for deterministic tests.
var nowMillis = func() int64 { return time.Now().UnixMilli() }

func (d *DB) expireIfNeeded(key string) bool {
	deadlineAny, ok := d.expires.Get(key)
	if !ok {
		return false
	}
	deadline := deadlineAny.(int64)
	if deadline > nowMillis() {
		return false
	}
	d.keys.Delete(key)
	d.expires.Delete(key)
	if d.propagate != nil {
		d.propagate(d.ID, []string{"DEL", key})
	}
	return true
}

// LookupRead fetches a key for a read operation, running lazy
// expiration first.
func (d *DB) LookupRead(key string) (*object.Object, bool) {
	d.expireIfNeeded(key)
	v, ok := d.keys.Get(key)
	if !ok {
		return nil, false
	}
	o := v.(*object.Object)
	o.Touch(object.LRUClock(nowMillis()))
	return o, true
}

// LookupWrite fetches a key for a write operation, running lazy
// expiration first. Semantically identical to LookupRead; kept
// distinct so callers document intent and a future LRU/LFU bump on
// read-only access can be added without touching write call sites.
func (d *DB) LookupWrite(key string) (*object.Object, bool) {
	return d.LookupRead(key)
}

// Exists reports key presence (after lazy expiration).
func (d *DB) Exists(key string) bool {
	_, ok := d.LookupRead(key)
	return ok
}

// Add inserts key with value; the key must not already exist.
func (d *DB) Add(key string, value *object.Object) bool {
	if d.Exists(key) {
		return false
	}
	value.Touch(object.LRUClock(nowMillis()))
	d.keys.Set(key, value)
	return true
}

// Set installs value for key unconditionally, clearing any existing
// expiration unless keepTTL is true (spec.md §4.H: "writing paths must
// always clear an existing expiration on overwrite ... unless the
// caller preserves it explicitly").
func (d *DB) Set(key string, value *object.Object, keepTTL bool) {
	value.Touch(object.LRUClock(nowMillis()))
	d.keys.Set(key, value)
	if !keepTTL {
		d.expires.Delete(key)
	}
}

// Overwrite replaces the value of a pre-existing key, returns false if
// the key was absent.
func (d *DB) Overwrite(key string, value *object.Object) bool {
	if !d.Exists(key) {
		return false
	}
	value.Touch(object.LRUClock(nowMillis()))
	d.keys.Set(key, value)
	return true
}

// Delete removes key from both the keyspace and the expire set.
func (d *DB) Delete(key string) bool {
	d.expireIfNeeded(key)
	existed := d.keys.Delete(key)
	d.expires.Delete(key)
	return existed
}

// SetExpire installs an absolute deadline (unix milliseconds) for key.
func (d *DB) SetExpire(key string, deadlineMillis int64) {
	d.expires.Set(key, deadlineMillis)
}

// Persist removes key's expiration, returning true if one was set.
func (d *DB) Persist(key string) bool {
	return d.expires.Delete(key)
}

// TTLMillis returns the remaining time to live in milliseconds, -1 if
// the key has no expiration, -2 if it does not exist.
func (d *DB) TTLMillis(key string) int64 {
	if !d.Exists(key) {
		return -2
	}
	deadlineAny, ok := d.expires.Get(key)
	if !ok {
		return -1
	}
	remaining := deadlineAny.(int64) - nowMillis()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RandomKey returns a key chosen pseudo-randomly, retrying samples
// that turn out to be already-expired (spec.md §4.H).
func (d *DB) RandomKey(rng *rand.Rand) (string, bool) {
	for i := 0; i < 100 && d.keys.Len() > 0; i++ {
		k, ok := d.keys.RandomKey(rng.Uint64())
		if !ok {
			return "", false
		}
		if d.expireIfNeeded(k) {
			continue
		}
		return k, true
	}
	return "", false
}

// Clear empties both the keyspace and expire set (used by FLUSHDB-like
// admin paths and tests).
func (d *DB) Clear() {
	d.keys.Clear()
	d.expires.Clear()
}

// ForEachKey iterates every live key (after lazy-expiring each one).
func (d *DB) ForEachKey(fn func(key string, value *object.Object) bool) {
	d.keys.ForEach(func(k string, v any) bool {
		if d.expireIfNeeded(k) {
			return true
		}
		return fn(k, v.(*object.Object))
	})
}

// Scan forwards to the keyspace dict's cursor-based incremental scan
// (spec.md §4.D), surviving concurrent inserts/deletes/rehashes across
// a full cycle instead of indexing a point-in-time snapshot.
func (d *DB) Scan(cursor uint64, fn func(key string, value *object.Object)) uint64 {
	return d.keys.Scan(cursor, func(k string, v any) {
		fn(k, v.(*object.Object))
	})
}

// ExpireCount returns the number of keys with a volatile TTL.
func (d *DB) ExpireCount() int { return d.expires.Len() }

// RandomVolatileKey samples a key from the expire set only.
func (d *DB) RandomVolatileKey(rng *rand.Rand) (string, bool) {
	k, ok := d.expires.RandomKey(rng.Uint64())
	if !ok {
		return "", false
	}
	if d.expireIfNeeded(k) {
		return d.RandomVolatileKey(rng)
	}
	return k, true
}

// ActiveExpireCycle samples up to sampleSize random keys from the
// expire set and deletes those past deadline, returning the count
// expired. Mirrors spec.md §4.M's slow/fast mode sampling step; the
// caller (server cron) supplies the budget/ratio loop around this.
func (d *DB) ActiveExpireCycle(rng *rand.Rand, sampleSize int) int {
	if d.expires.Len() == 0 {
		return 0
	}
	expired := 0
	keys := d.expires.Keys()
	n := sampleSize
	if n > len(keys) {
		n = len(keys)
	}
	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	for i := 0; i < n; i++ {
		if d.expireIfNeeded(keys[i]) {
			expired++
		}
	}
	return expired
}

// EvictionCandidate is one entry of the eviction-sampling buffer.
type EvictionCandidate struct {
	Key      string
	IdleMsec int64
}

// Pool is the 16-slot ascending-idle-time eviction buffer carried
// across eviction passes (spec.md §4.H, §4.M glossary "Eviction pool").
type Pool struct {
	slots []EvictionCandidate
}

const poolCapacity = 16

// NewPool creates an empty eviction pool.
func NewPool() *Pool { return &Pool{} }

// Populate inserts the caller's already-sampled candidates into the
// pool in ascending-idle order, skipping keys already pooled and
// dropping the lowest-idle slot when full.
func (p *Pool) Populate(candidates []EvictionCandidate) {
	for _, c := range candidates {
		p.insert(c)
	}
}

func (p *Pool) insert(c EvictionCandidate) {
	for _, existing := range p.slots {
		if existing.Key == c.Key {
			return
		}
	}
	idx := sort.Search(len(p.slots), func(i int) bool { return p.slots[i].IdleMsec >= c.IdleMsec })
	p.slots = append(p.slots, EvictionCandidate{})
	copy(p.slots[idx+1:], p.slots[idx:])
	p.slots[idx] = c
	if len(p.slots) > poolCapacity {
		p.slots = p.slots[1:]
	}
}

// EvictBack removes and returns the highest-idle-time candidate (the
// back of the ascending buffer), or ok=false if empty.
func (p *Pool) EvictBack() (EvictionCandidate, bool) {
	if len(p.slots) == 0 {
		return EvictionCandidate{}, false
	}
	c := p.slots[len(p.slots)-1]
	p.slots = p.slots[:len(p.slots)-1]
	return c, true
}

// Remove drops key from the pool if present (called when a key is
// touched or deleted through another path, keeping the pool honest).
func (p *Pool) Remove(key string) {
	for i, c := range p.slots {
		if c.Key == key {
			p.slots = append(p.slots[:i], p.slots[i+1:]...)
			return
		}
	}
}
