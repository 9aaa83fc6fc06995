// Package object implements the tagged-union value object (spec.md
// §3, §4.F) and the per-type operation surface (spec.md §4.G) layered
// over sds, listpack, intset, dict and zskiplist.
package object

import (
	"strconv"

	"gofast/internal/dict"
	"gofast/internal/intset"
	"gofast/internal/listpack"
	"gofast/internal/sds"
	"gofast/internal/zskiplist"
)

// Type is the outer value type tag.
type Type uint8

const (
	TypeString Type = iota
	TypeList
	TypeHash
	TypeSet
	TypeZSet
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeList:
		return "list"
	case TypeHash:
		return "hash"
	case TypeSet:
		return "set"
	case TypeZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// Encoding is the concrete in-memory representation for a given Type.
type Encoding uint8

const (
	EncodingInt Encoding = iota
	EncodingEmbstr
	EncodingRaw
	EncodingZiplist
	EncodingLinkedlist
	EncodingIntset
	EncodingHT
	EncodingSkiplist
)

func (e Encoding) String() string {
	switch e {
	case EncodingInt:
		return "int"
	case EncodingEmbstr:
		return "embstr"
	case EncodingRaw:
		return "raw"
	case EncodingZiplist:
		return "ziplist"
	case EncodingLinkedlist:
		return "linkedlist"
	case EncodingIntset:
		return "intset"
	case EncodingHT:
		return "hashtable"
	case EncodingSkiplist:
		return "skiplist"
	default:
		return "unknown"
	}
}

// Thresholds controlling encoding transitions (spec.md §4.G table).
const (
	EmbstrMaxLen     = 39
	ListMaxItemLen   = 64
	ListMaxEntries   = 512
	HashMaxFieldLen  = 64
	HashMaxEntries   = 512
	SetMaxEntries    = 512
	ZSetMaxMemberLen = 64
	ZSetMaxEntries   = 128

	// MaxRandMemberCount bounds SRANDMEMBER with very large negative
	// counts (spec.md §9 Open Question).
	MaxRandMemberCount = 1_000_000
)

// Object is the tagged-union value container.
type Object struct {
	Type     Type
	Encoding Encoding
	RefCount int
	LRU      uint32 // 24-bit wrapping LRU clock sample

	// Payload — exactly one of these is valid depending on Type/Encoding.
	ival int64
	str  *sds.SDS

	list *listData
	hash *hashData
	set  *setData
	zset *zsetData
}

type listData struct {
	lp     *listpack.List
	linked *linkedList
}

type linkedList struct {
	items [][]byte // doubly-linked semantics are exposed via Index/Range only
}

type hashData struct {
	lp *listpack.List // alternating field,value
	ht *dict.Dict     // field -> []byte
}

type setData struct {
	is *intset.Set
	ht *dict.Dict // member -> struct{}
}

type zsetData struct {
	lp *listpack.List // alternating member,score-as-text
	sl *zskiplist.List
	ht *dict.Dict // member -> float64 score
}

// ---- String ----

// NewString creates a STRING object, applying try-encode.
func NewString(value []byte) *Object {
	o := &Object{Type: TypeString, RefCount: 1}
	o.setStringBytes(value)
	return o
}

func (o *Object) setStringBytes(value []byte) {
	if iv, ok := parseStrictInt(value); ok {
		o.Encoding = EncodingInt
		o.ival = iv
		o.str = nil
		return
	}
	if len(value) <= EmbstrMaxLen {
		o.Encoding = EncodingEmbstr
	} else {
		o.Encoding = EncodingRaw
	}
	o.str = sds.New(value)
}

func parseStrictInt(b []byte) (int64, bool) {
	if len(b) == 0 || len(b) > 20 {
		return 0, false
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, false
	}
	// Reject forms that wouldn't round-trip byte-for-byte (leading
	// zeros, "+" sign, etc.) so INT encoding stays lossless.
	if strconv.FormatInt(v, 10) != string(b) {
		return 0, false
	}
	return v, true
}

// StringBytes materializes the string's textual form ("get-decoded").
func (o *Object) StringBytes() []byte {
	if o.Encoding == EncodingInt {
		return []byte(strconv.FormatInt(o.ival, 10))
	}
	return append([]byte(nil), o.str.Bytes()...)
}

// SetBytes overwrites the string value, re-running try-encode.
func (o *Object) SetBytes(value []byte) { o.setStringBytes(value) }

// IntValue returns the integer value and whether the string currently
// parses as one (INT encoding is always int; RAW/EMBSTR are checked).
func (o *Object) IntValue() (int64, bool) {
	if o.Encoding == EncodingInt {
		return o.ival, true
	}
	return parseStrictInt(o.str.Bytes())
}

// SetInt overwrites the string with an integer value (used by
// INCR/DECR family, always transitions to INT encoding).
func (o *Object) SetInt(v int64) {
	o.Encoding = EncodingInt
	o.ival = v
	o.str = nil
}

// Append mutates the string in place, transitioning EMBSTR->RAW as
// required by the encoding-transition table.
func (o *Object) Append(value []byte) {
	if o.Encoding != EncodingRaw {
		cur := o.StringBytes()
		o.Encoding = EncodingRaw
		o.str = sds.New(cur)
	}
	o.str.Append(value)
}

// SetRange writes value at offset, transitioning to RAW.
func (o *Object) SetRange(offset int, value []byte) {
	if o.Encoding != EncodingRaw {
		cur := o.StringBytes()
		o.Encoding = EncodingRaw
		o.str = sds.New(cur)
	}
	o.str.SetRange(offset, value)
}

// ---- List ----

func NewList() *Object {
	return &Object{Type: TypeList, Encoding: EncodingZiplist, list: &listData{lp: listpack.New()}}
}

func (o *Object) listLen() int {
	if o.Encoding == EncodingZiplist {
		return o.list.lp.Count()
	}
	return len(o.list.linked.items)
}

// ListLen returns the element count.
func (o *Object) ListLen() int { return o.listLen() }

func (o *Object) listMaybeConvert(addedLen int) {
	if o.Encoding != EncodingZiplist {
		return
	}
	if addedLen > ListMaxItemLen || o.list.lp.Count() > ListMaxEntries {
		o.convertListToLinked()
	}
}

func (o *Object) convertListToLinked() {
	items := o.list.lp.All()
	o.Encoding = EncodingLinkedlist
	o.list = &listData{linked: &linkedList{items: items}}
}

// ListPush pushes value to head (toHead) or tail.
func (o *Object) ListPush(value []byte, toHead bool) {
	if o.Encoding == EncodingZiplist {
		o.list.lp.Push(value, toHead)
		o.listMaybeConvert(len(value))
		return
	}
	if toHead {
		o.list.linked.items = append([][]byte{append([]byte(nil), value...)}, o.list.linked.items...)
	} else {
		o.list.linked.items = append(o.list.linked.items, append([]byte(nil), value...))
	}
}

// ListPop removes and returns the head (toHead) or tail element.
func (o *Object) ListPop(toHead bool) ([]byte, bool) {
	n := o.listLen()
	if n == 0 {
		return nil, false
	}
	if o.Encoding == EncodingZiplist {
		idx := 0
		if !toHead {
			idx = -1
		}
		v, ok := o.list.lp.Get(idx)
		if !ok {
			return nil, false
		}
		o.list.lp.DeleteAt(idx)
		return v, true
	}
	items := o.list.linked.items
	if toHead {
		v := items[0]
		o.list.linked.items = items[1:]
		return v, true
	}
	v := items[len(items)-1]
	o.list.linked.items = items[:len(items)-1]
	return v, true
}

// ListIndex returns the element at signed rank index.
func (o *Object) ListIndex(index int) ([]byte, bool) {
	if o.Encoding == EncodingZiplist {
		return o.list.lp.Get(index)
	}
	n := len(o.list.linked.items)
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, false
	}
	return append([]byte(nil), o.list.linked.items[index]...), true
}

// ListSet overwrites the element at signed rank index.
func (o *Object) ListSet(index int, value []byte) bool {
	if o.Encoding == EncodingZiplist {
		n := o.list.lp.Count()
		if index < 0 {
			index += n
		}
		if index < 0 || index >= n {
			return false
		}
		o.list.lp.DeleteAt(index)
		o.list.lp.InsertBefore(index, value)
		o.listMaybeConvert(len(value))
		return true
	}
	n := len(o.list.linked.items)
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return false
	}
	o.list.linked.items[index] = append([]byte(nil), value...)
	return true
}

// ListInsert inserts value before/after the first element equal to
// pivot. Returns the new length, or -1 if pivot was not found.
func (o *Object) ListInsert(pivot, value []byte, before bool) int {
	all := o.ListRange(0, -1)
	idx := -1
	for i, v := range all {
		if string(v) == string(pivot) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return -1
	}
	if !before {
		idx++
	}
	if o.Encoding == EncodingZiplist {
		o.list.lp.InsertBefore(idx, value)
		o.listMaybeConvert(len(value))
		return o.listLen()
	}
	items := o.list.linked.items
	nv := append([]byte(nil), value...)
	items = append(items, nil)
	copy(items[idx+1:], items[idx:])
	items[idx] = nv
	o.list.linked.items = items
	return len(items)
}

// ListRange returns elements from start to end inclusive (signed,
// clamped), forward order.
func (o *Object) ListRange(start, end int) [][]byte {
	n := o.listLen()
	if n == 0 {
		return nil
	}
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end {
		return nil
	}
	out := make([][]byte, 0, end-start+1)
	for i := start; i <= end; i++ {
		v, _ := o.ListIndex(i)
		out = append(out, v)
	}
	return out
}

// ListRem removes up to count occurrences of value: count>0 scans
// head-to-tail, count<0 tail-to-head, count==0 removes all.
func (o *Object) ListRem(count int, value []byte) int {
	all := o.ListRange(0, -1)
	removed := 0
	keep := make([][]byte, 0, len(all))
	if count >= 0 {
		limit := count
		for _, v := range all {
			if (limit == 0 || count == 0) && string(v) == string(value) && (count == 0 || removed < limit) {
				removed++
				continue
			}
			if string(v) == string(value) && count > 0 && removed < count {
				removed++
				continue
			}
			keep = append(keep, v)
		}
	} else {
		limit := -count
		for i := len(all) - 1; i >= 0; i-- {
			v := all[i]
			if string(v) == string(value) && removed < limit {
				removed++
				continue
			}
			keep = append([][]byte{v}, keep...)
		}
	}
	o.rebuildList(keep)
	return removed
}

func (o *Object) rebuildList(items [][]byte) {
	if o.Encoding == EncodingZiplist {
		o.list = &listData{lp: listpack.New()}
		for _, it := range items {
			o.list.lp.Push(it, false)
		}
		o.listMaybeConvert(0)
		return
	}
	o.list = &listData{linked: &linkedList{items: items}}
}

// ListTrim keeps only the elements from start to end inclusive.
func (o *Object) ListTrim(start, end int) {
	n := o.listLen()
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end || n == 0 {
		o.rebuildList(nil)
		return
	}
	o.rebuildList(o.ListRange(start, end))
}

// ---- Hash ----

func NewHash() *Object {
	return &Object{Type: TypeHash, Encoding: EncodingZiplist, hash: &hashData{lp: listpack.New()}}
}

func (o *Object) hashFindZiplist(field string) ([]byte, int, bool) {
	all := o.hash.lp.All()
	for i := 0; i+1 < len(all); i += 2 {
		if string(all[i]) == field {
			return all[i+1], i, true
		}
	}
	return nil, -1, false
}

// HashSet sets field=value, returning true if field was newly created.
func (o *Object) HashSet(field string, value []byte) bool {
	if o.Encoding == EncodingZiplist {
		if _, idx, ok := o.hashFindZiplist(field); ok {
			o.hash.lp.DeleteAt(idx + 1)
			o.hash.lp.DeleteAt(idx)
			o.hash.lp.InsertBefore(idx, []byte(field))
			o.hash.lp.InsertBefore(idx+1, value)
			o.hashMaybeConvert(len(field), len(value))
			return false
		}
		o.hash.lp.Push([]byte(field), false)
		o.hash.lp.Push(value, false)
		o.hashMaybeConvert(len(field), len(value))
		return true
	}
	_, existed := o.hash.ht.Get(field)
	o.hash.ht.Set(field, append([]byte(nil), value...))
	return !existed
}

func (o *Object) hashMaybeConvert(fieldLen, valueLen int) {
	if o.Encoding != EncodingZiplist {
		return
	}
	if fieldLen > HashMaxFieldLen || valueLen > HashMaxFieldLen || o.hash.lp.Count()/2 > HashMaxEntries {
		o.convertHashToHT()
	}
}

func (o *Object) convertHashToHT() {
	all := o.hash.lp.All()
	ht := dict.New()
	for i := 0; i+1 < len(all); i += 2 {
		ht.Set(string(all[i]), append([]byte(nil), all[i+1]...))
	}
	o.Encoding = EncodingHT
	o.hash = &hashData{ht: ht}
}

// HashGet returns the value for field.
func (o *Object) HashGet(field string) ([]byte, bool) {
	if o.Encoding == EncodingZiplist {
		v, _, ok := o.hashFindZiplist(field)
		if !ok {
			return nil, false
		}
		return append([]byte(nil), v...), true
	}
	v, ok := o.hash.ht.Get(field)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), v.([]byte)...), true
}

// HashExists reports field membership.
func (o *Object) HashExists(field string) bool {
	_, ok := o.HashGet(field)
	return ok
}

// HashDel removes field, returning true if it existed.
func (o *Object) HashDel(field string) bool {
	if o.Encoding == EncodingZiplist {
		_, idx, ok := o.hashFindZiplist(field)
		if !ok {
			return false
		}
		o.hash.lp.DeleteAt(idx + 1)
		o.hash.lp.DeleteAt(idx)
		return true
	}
	return o.hash.ht.Delete(field)
}

// HashLen returns the field count.
func (o *Object) HashLen() int {
	if o.Encoding == EncodingZiplist {
		return o.hash.lp.Count() / 2
	}
	return o.hash.ht.Len()
}

// HashAll returns every (field, value) pair.
func (o *Object) HashAll() (fields, values [][]byte) {
	if o.Encoding == EncodingZiplist {
		all := o.hash.lp.All()
		for i := 0; i+1 < len(all); i += 2 {
			fields = append(fields, all[i])
			values = append(values, all[i+1])
		}
		return
	}
	o.hash.ht.ForEach(func(k string, v any) bool {
		fields = append(fields, []byte(k))
		values = append(values, append([]byte(nil), v.([]byte)...))
		return true
	})
	return
}

// ---- Set ----

func NewSet() *Object {
	return &Object{Type: TypeSet, Encoding: EncodingIntset, set: &setData{is: intset.New()}}
}

func asInt(member string) (int64, bool) {
	v, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(v, 10) != member {
		return 0, false
	}
	return v, true
}

func (o *Object) convertSetToHT() {
	ht := dict.New()
	for _, v := range o.set.is.All() {
		ht.Set(strconv.FormatInt(v, 10), struct{}{})
	}
	o.Encoding = EncodingHT
	o.set = &setData{ht: ht}
}

// SetAdd adds member, returning true if it was newly added.
func (o *Object) SetAdd(member string) bool {
	if o.Encoding == EncodingIntset {
		if iv, ok := asInt(member); ok {
			added := o.set.is.Add(iv)
			if o.set.is.Len() > SetMaxEntries {
				o.convertSetToHT()
			}
			return added
		}
		o.convertSetToHT()
	}
	existed := o.set.ht.Has(member)
	if !existed {
		o.set.ht.Set(member, struct{}{})
	}
	return !existed
}

// SetRemove removes member, returning true if it was present.
func (o *Object) SetRemove(member string) bool {
	if o.Encoding == EncodingIntset {
		iv, ok := asInt(member)
		if !ok {
			return false
		}
		return o.set.is.Remove(iv)
	}
	return o.set.ht.Delete(member)
}

// SetIsMember reports membership.
func (o *Object) SetIsMember(member string) bool {
	if o.Encoding == EncodingIntset {
		iv, ok := asInt(member)
		if !ok {
			return false
		}
		return o.set.is.Contains(iv)
	}
	return o.set.ht.Has(member)
}

// SetCard returns the member count.
func (o *Object) SetCard() int {
	if o.Encoding == EncodingIntset {
		return o.set.is.Len()
	}
	return o.set.ht.Len()
}

// SetMembers returns every member as a string slice.
func (o *Object) SetMembers() []string {
	if o.Encoding == EncodingIntset {
		vals := o.set.is.All()
		out := make([]string, len(vals))
		for i, v := range vals {
			out[i] = strconv.FormatInt(v, 10)
		}
		return out
	}
	out := make([]string, 0, o.set.ht.Len())
	o.set.ht.ForEach(func(k string, _ any) bool {
		out = append(out, k)
		return true
	})
	return out
}

// SetRandom returns a member chosen via idx (caller-supplied entropy).
func (o *Object) SetRandom(idx int) (string, bool) {
	members := o.SetMembers()
	if len(members) == 0 {
		return "", false
	}
	i := idx % len(members)
	if i < 0 {
		i += len(members)
	}
	return members[i], true
}

// ---- ZSet ----

func NewZSet() *Object {
	return &Object{Type: TypeZSet, Encoding: EncodingZiplist, zset: &zsetData{lp: listpack.New()}}
}

func formatScore(score float64) []byte {
	return []byte(strconv.FormatFloat(score, 'g', -1, 64))
}

func parseScore(b []byte) float64 {
	f, _ := strconv.ParseFloat(string(b), 64)
	return f
}

func (o *Object) zsetFindZiplist(member string) (float64, int, bool) {
	all := o.zset.lp.All()
	for i := 0; i+1 < len(all); i += 2 {
		if string(all[i]) == member {
			return parseScore(all[i+1]), i, true
		}
	}
	return 0, -1, false
}

func (o *Object) convertZSetToSkiplist() {
	all := o.zset.lp.All()
	sl := zskiplist.New()
	ht := dict.New()
	for i := 0; i+1 < len(all); i += 2 {
		member := string(all[i])
		score := parseScore(all[i+1])
		sl.Insert(score, member)
		ht.Set(member, score)
	}
	o.Encoding = EncodingSkiplist
	o.zset = &zsetData{sl: sl, ht: ht}
}

func (o *Object) zsetMaybeConvert(memberLen int) {
	if o.Encoding != EncodingZiplist {
		return
	}
	if memberLen > ZSetMaxMemberLen || o.zset.lp.Count()/2 > ZSetMaxEntries {
		o.convertZSetToSkiplist()
	}
}

// ZAdd sets member's score, returning (added, updated).
func (o *Object) ZAdd(member string, score float64) (added, updated bool) {
	if o.Encoding == EncodingZiplist {
		if old, idx, ok := o.zsetFindZiplist(member); ok {
			if old == score {
				return false, false
			}
			o.zset.lp.DeleteAt(idx + 1)
			o.zset.lp.InsertBefore(idx+1, formatScore(score))
			return false, true
		}
		o.zset.lp.Push([]byte(member), false)
		o.zset.lp.Push(formatScore(score), false)
		o.zsetMaybeConvert(len(member))
		return true, false
	}
	if oldScoreAny, ok := o.zset.ht.Get(member); ok {
		oldScore := oldScoreAny.(float64)
		if oldScore == score {
			return false, false
		}
		o.zset.sl.Delete(oldScore, member, nil)
		o.zset.sl.Insert(score, member)
		o.zset.ht.Set(member, score)
		return false, true
	}
	o.zset.sl.Insert(score, member)
	o.zset.ht.Set(member, score)
	return true, false
}

// ZScore returns member's score.
func (o *Object) ZScore(member string) (float64, bool) {
	if o.Encoding == EncodingZiplist {
		s, _, ok := o.zsetFindZiplist(member)
		return s, ok
	}
	v, ok := o.zset.ht.Get(member)
	if !ok {
		return 0, false
	}
	return v.(float64), true
}

// ZRem removes member.
func (o *Object) ZRem(member string) bool {
	if o.Encoding == EncodingZiplist {
		_, idx, ok := o.zsetFindZiplist(member)
		if !ok {
			return false
		}
		o.zset.lp.DeleteAt(idx + 1)
		o.zset.lp.DeleteAt(idx)
		return true
	}
	score, ok := o.zset.ht.Get(member)
	if !ok {
		return false
	}
	o.zset.sl.Delete(score.(float64), member, nil)
	o.zset.ht.Delete(member)
	return true
}

// ZCard returns the member count.
func (o *Object) ZCard() int {
	if o.Encoding == EncodingZiplist {
		return o.zset.lp.Count() / 2
	}
	return o.zset.ht.Len()
}

// ZMember pairs a member with its score for range results.
type ZMember struct {
	Member string
	Score  float64
}

func (o *Object) zsetAllSorted() []ZMember {
	if o.Encoding == EncodingZiplist {
		all := o.zset.lp.All()
		out := make([]ZMember, 0, len(all)/2)
		for i := 0; i+1 < len(all); i += 2 {
			out = append(out, ZMember{Member: string(all[i]), Score: parseScore(all[i+1])})
		}
		sortZMembers(out)
		return out
	}
	out := make([]ZMember, 0, o.zset.sl.Len())
	for n := o.zset.sl.First(); n != nil; n = n.Next() {
		out = append(out, ZMember{Member: n.Member, Score: n.Score})
	}
	return out
}

func sortZMembers(m []ZMember) {
	for i := 1; i < len(m); i++ {
		j := i
		for j > 0 && (m[j].Score < m[j-1].Score || (m[j].Score == m[j-1].Score && m[j].Member < m[j-1].Member)) {
			m[j], m[j-1] = m[j-1], m[j]
			j--
		}
	}
}

// ZRange returns elements by index range, ascending (or descending if
// rev is true), inclusive signed bounds.
func (o *Object) ZRange(start, end int, rev bool) []ZMember {
	all := o.zsetAllSorted()
	if rev {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	n := len(all)
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end >= n {
		end = n - 1
	}
	if start > end || n == 0 {
		return nil
	}
	return all[start : end+1]
}

// ZRank returns member's 0-based rank (or -1 if absent); rev reverses
// the ordering direction.
func (o *Object) ZRank(member string, rev bool) int {
	all := o.zsetAllSorted()
	for i, m := range all {
		if m.Member == member {
			if rev {
				return len(all) - 1 - i
			}
			return i
		}
	}
	return -1
}

// ZCountRange counts members with min <= score <= max.
func (o *Object) ZCountRange(min, max float64) int {
	n := 0
	for _, m := range o.zsetAllSorted() {
		if m.Score >= min && m.Score <= max {
			n++
		}
	}
	return n
}

// lruClockResolutionMillis matches the production engine's LRU clock
// tick (1000ms), giving a 24-bit counter roughly 194 days of range
// before wrapping.
const lruClockResolutionMillis = 1000

const lruClockMax = 1<<24 - 1

// LRUClock samples the current wrapping 24-bit LRU clock from a unix
// millisecond timestamp.
func LRUClock(nowMillis int64) uint32 {
	return uint32((nowMillis / lruClockResolutionMillis) & lruClockMax)
}

// Touch stamps the object with the current LRU clock value, called on
// every keyspace access.
func (o *Object) Touch(clock uint32) { o.LRU = clock }

// IdleSeconds computes the object's observed idle time against the
// current clock sample, accounting for one wraparound.
func (o *Object) IdleSeconds(clock uint32) int64 {
	if clock >= o.LRU {
		return int64(clock - o.LRU)
	}
	return int64(lruClockMax - o.LRU + clock + 1)
}

// ApproxMemory returns the underlying dict/intset/listpack size in bytes
// for memory accounting purposes (approximate).
func (o *Object) ApproxMemory() int {
	switch o.Type {
	case TypeString:
		if o.Encoding == EncodingInt {
			return 16
		}
		return o.str.Len() + 16
	case TypeList:
		if o.Encoding == EncodingZiplist {
			return o.list.lp.ByteLen()
		}
		n := 0
		for _, it := range o.list.linked.items {
			n += len(it) + 16
		}
		return n
	case TypeHash:
		if o.Encoding == EncodingZiplist {
			return o.hash.lp.ByteLen()
		}
		return o.hash.ht.Len() * 48
	case TypeSet:
		if o.Encoding == EncodingIntset {
			return o.set.is.Len() * 8
		}
		return o.set.ht.Len() * 48
	case TypeZSet:
		if o.Encoding == EncodingZiplist {
			return o.zset.lp.ByteLen()
		}
		return o.zset.ht.Len() * 64
	}
	return 0
}
