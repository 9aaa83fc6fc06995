package command

import (
	"time"

	"gofast/internal/database"
	"gofast/internal/object"
)

const evictionSampleSize = 5

// evictToFreeMemory runs the free-loop of spec.md §4.M: while used
// memory exceeds the cap, select and delete one candidate key per the
// configured policy, propagating a synthetic delete. Stops when under
// the cap or when no candidate can be found (no-eviction policy, or an
// empty candidate set).
func (s *Server) evictToFreeMemory() {
	for s.usedMemory() > s.MaxMemory {
		key, dbIndex, ok := s.pickEvictionCandidate()
		if !ok {
			return
		}
		db := s.Databases[dbIndex]
		db.Delete(key)
		s.evictPool.Remove(key)
		s.propagate(dbIndex, []string{"DEL", key})
	}
}

func (s *Server) pickEvictionCandidate() (key string, dbIndex int, ok bool) {
	switch s.EvictionPolicy {
	case "no-eviction", "":
		return "", 0, false
	case "allkeys-lru":
		return s.pickLRUCandidate(false)
	case "volatile-lru":
		return s.pickLRUCandidate(true)
	case "allkeys-random":
		return s.pickRandomCandidate(false)
	case "volatile-random":
		return s.pickRandomCandidate(true)
	case "volatile-ttl":
		return s.pickTTLCandidate()
	default:
		return "", 0, false
	}
}

type evictionCandidate struct {
	key     string
	dbIndex int
	idleSec int64
}

// pickLRUCandidate samples evictionSampleSize keys per database,
// measures their observed idle time against the live LRU clock, feeds
// them into the carried-over 16-slot ascending pool, and evicts the
// pool's back (spec.md §4.H, §4.M).
func (s *Server) pickLRUCandidate(volatileOnly bool) (string, int, bool) {
	clock := object.LRUClock(time.Now().UnixMilli())

	var candidates []evictionCandidate
	for dbIdx, db := range s.Databases {
		for i := 0; i < evictionSampleSize; i++ {
			var k string
			var ok bool
			if volatileOnly {
				k, ok = db.RandomVolatileKey(s.rng)
			} else {
				k, ok = db.RandomKey(s.rng)
			}
			if !ok {
				break
			}
			v, ok := db.LookupRead(k)
			if !ok {
				continue
			}
			candidates = append(candidates, evictionCandidate{
				key: k, dbIndex: dbIdx, idleSec: v.IdleSeconds(clock),
			})
		}
	}
	if len(candidates) == 0 {
		return "", 0, false
	}
	poolInput := make([]database.EvictionCandidate, len(candidates))
	for i, c := range candidates {
		poolInput[i] = database.EvictionCandidate{Key: c.key, IdleMsec: c.idleSec * 1000}
	}
	s.evictPool.Populate(poolInput)

	cand, ok := s.evictPool.EvictBack()
	if !ok {
		return "", 0, false
	}
	for _, c := range candidates {
		if c.key == cand.Key {
			return c.key, c.dbIndex, true
		}
	}
	return "", 0, false
}

func (s *Server) pickRandomCandidate(volatileOnly bool) (string, int, bool) {
	for dbIdx, db := range s.Databases {
		var k string
		var ok bool
		if volatileOnly {
			k, ok = db.RandomVolatileKey(s.rng)
		} else {
			k, ok = db.RandomKey(s.rng)
		}
		if ok {
			return k, dbIdx, true
		}
	}
	return "", 0, false
}

func (s *Server) pickTTLCandidate() (string, int, bool) {
	bestKey := ""
	bestDB := 0
	bestTTL := int64(-1)
	found := false
	for dbIdx, db := range s.Databases {
		for i := 0; i < evictionSampleSize; i++ {
			k, ok := db.RandomVolatileKey(s.rng)
			if !ok {
				break
			}
			ttl := db.TTLMillis(k)
			if !found || (ttl >= 0 && ttl < bestTTL) {
				bestKey, bestDB, bestTTL, found = k, dbIdx, ttl, true
			}
		}
	}
	return bestKey, bestDB, found
}
