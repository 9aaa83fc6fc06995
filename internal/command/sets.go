package command

import (
	"sort"

	"gofast/internal/object"
	"gofast/internal/resp"
)

func lookupSetForWrite(s *Server, c ClientView, key string) (*object.Object, bool, bool) {
	db := s.DB(c.DBIndex())
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeSet) {
		return nil, false, false
	}
	if !ok {
		o = object.NewSet()
		db.Add(key, o)
	}
	return o, true, true
}

func cmdSAdd(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, _, okType := lookupSetForWrite(s, c, string(args[1]))
	if !okType {
		return errReply(dst, wrongTypeMsg)
	}
	added := int64(0)
	for _, m := range args[2:] {
		if o.SetAdd(string(m)) {
			added++
		}
	}
	return resp.AppendInteger(dst, added)
}

func cmdSRem(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeSet) {
		return errReply(dst, wrongTypeMsg)
	}
	removed := int64(0)
	for _, m := range args[2:] {
		if o.SetRemove(string(m)) {
			removed++
		}
	}
	if o.SetCard() == 0 {
		db.Delete(key)
	}
	return resp.AppendInteger(dst, removed)
}

func cmdSCard(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeSet) {
		return errReply(dst, wrongTypeMsg)
	}
	return resp.AppendInteger(dst, int64(o.SetCard()))
}

func cmdSIsMember(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeSet) {
		return errReply(dst, wrongTypeMsg)
	}
	if o.SetIsMember(string(args[2])) {
		return resp.AppendInteger(dst, 1)
	}
	return resp.AppendInteger(dst, 0)
}

// loadSetsByCardinality fetches every key as a set (ignoring absent
// keys, which behave as empty sets), sorted ascending by cardinality
// so multi-set ops can short-circuit on the smallest input first
// (spec.md §4.G "cardinality-sorted inputs").
func loadSetsByCardinality(s *Server, c ClientView, keys [][]byte) ([]map[string]struct{}, bool) {
	sets := make([]map[string]struct{}, 0, len(keys))
	for _, k := range keys {
		o, ok := s.DB(c.DBIndex()).LookupRead(string(k))
		if !ok {
			sets = append(sets, map[string]struct{}{})
			continue
		}
		if typeMismatch(o, object.TypeSet) {
			return nil, false
		}
		m := make(map[string]struct{})
		for _, mem := range o.SetMembers() {
			m[mem] = struct{}{}
		}
		sets = append(sets, m)
	}
	sort.Slice(sets, func(i, j int) bool { return len(sets[i]) < len(sets[j]) })
	return sets, true
}

func writeMemberArray(dst []byte, members []string) []byte {
	dst = resp.AppendArrayHeader(dst, len(members))
	for _, m := range members {
		dst = resp.AppendBulkString(dst, []byte(m))
	}
	return dst
}

func cmdSInter(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	sets, ok := loadSetsByCardinality(s, c, args[1:])
	if !ok {
		return errReply(dst, wrongTypeMsg)
	}
	if len(sets) == 0 {
		return writeMemberArray(dst, nil)
	}
	result := sets[0]
	for _, set := range sets[1:] {
		next := make(map[string]struct{})
		for m := range result {
			if _, ok := set[m]; ok {
				next[m] = struct{}{}
			}
		}
		result = next
		if len(result) == 0 {
			break
		}
	}
	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}
	return writeMemberArray(dst, out)
}

func cmdSUnion(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	sets, ok := loadSetsByCardinality(s, c, args[1:])
	if !ok {
		return errReply(dst, wrongTypeMsg)
	}
	result := make(map[string]struct{})
	for _, set := range sets {
		for m := range set {
			result[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(result))
	for m := range result {
		out = append(out, m)
	}
	return writeMemberArray(dst, out)
}

// cmdSDiff computes args[1] minus every subsequent set; unlike
// SINTER/SUNION the first key is distinguished, so it does not use
// the cardinality-sorted helper the other multi-set ops share.
func cmdSDiff(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	first, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	base := make(map[string]struct{})
	if ok {
		if typeMismatch(first, object.TypeSet) {
			return errReply(dst, wrongTypeMsg)
		}
		for _, m := range first.SetMembers() {
			base[m] = struct{}{}
		}
	}
	for _, k := range args[2:] {
		o, ok := s.DB(c.DBIndex()).LookupRead(string(k))
		if !ok {
			continue
		}
		if typeMismatch(o, object.TypeSet) {
			return errReply(dst, wrongTypeMsg)
		}
		for _, m := range o.SetMembers() {
			delete(base, m)
		}
	}
	out := make([]string, 0, len(base))
	for m := range base {
		out = append(out, m)
	}
	return writeMemberArray(dst, out)
}

func cmdSRandMember(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		if len(args) == 3 {
			return resp.AppendArrayHeader(dst, 0)
		}
		return resp.AppendBulkString(dst, nil)
	}
	if typeMismatch(o, object.TypeSet) {
		return errReply(dst, wrongTypeMsg)
	}
	if len(args) == 2 {
		m, ok := o.SetRandom(int(s.rng.Int63()))
		if !ok {
			return resp.AppendBulkString(dst, nil)
		}
		return resp.AppendBulkString(dst, []byte(m))
	}
	count, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	members := o.SetMembers()
	if len(members) == 0 {
		return resp.AppendArrayHeader(dst, 0)
	}
	if count >= 0 {
		n := int(count)
		if n > len(members) {
			n = len(members)
		}
		s.rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		return writeMemberArray(dst, members[:n])
	}
	n := int(-count)
	if n > object.MaxRandMemberCount {
		n = object.MaxRandMemberCount
	}
	out := make([]string, n)
	for i := range out {
		out[i] = members[s.rng.Intn(len(members))]
	}
	return writeMemberArray(dst, out)
}

func cmdSPop(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	if typeMismatch(o, object.TypeSet) {
		return errReply(dst, wrongTypeMsg)
	}
	m, ok := o.SetRandom(int(s.rng.Int63()))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	o.SetRemove(m)
	if o.SetCard() == 0 {
		db.Delete(key)
	}
	return resp.AppendBulkString(dst, []byte(m))
}
