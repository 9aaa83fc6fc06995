package command

import (
	"strconv"

	"gofast/internal/object"
	"gofast/internal/resp"
)

func lookupZSetForWrite(s *Server, c ClientView, key string) (*object.Object, bool, bool) {
	db := s.DB(c.DBIndex())
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeZSet) {
		return nil, false, false
	}
	if !ok {
		o = object.NewZSet()
		db.Add(key, o)
	}
	return o, true, true
}

func cmdZAdd(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	if (len(args)-2)%2 != 0 {
		return errReply(dst, "ERR syntax error")
	}
	o, _, okType := lookupZSetForWrite(s, c, string(args[1]))
	if !okType {
		return errReply(dst, wrongTypeMsg)
	}
	added := int64(0)
	for i := 2; i+1 < len(args); i += 2 {
		score, err := strconv.ParseFloat(string(args[i]), 64)
		if err != nil {
			return errReply(dst, "ERR value is not a valid float")
		}
		wasAdded, _ := o.ZAdd(string(args[i+1]), score)
		if wasAdded {
			added++
		}
	}
	return resp.AppendInteger(dst, added)
}

func cmdZCard(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeZSet) {
		return errReply(dst, wrongTypeMsg)
	}
	return resp.AppendInteger(dst, int64(o.ZCard()))
}

func cmdZScore(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	if typeMismatch(o, object.TypeZSet) {
		return errReply(dst, wrongTypeMsg)
	}
	score, ok := o.ZScore(string(args[2]))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	return resp.AppendBulkString(dst, []byte(resp.FormatFloat(score)))
}

func cmdZRem(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeZSet) {
		return errReply(dst, wrongTypeMsg)
	}
	removed := int64(0)
	for _, m := range args[2:] {
		if o.ZRem(string(m)) {
			removed++
		}
	}
	if o.ZCard() == 0 {
		db.Delete(key)
	}
	return resp.AppendInteger(dst, removed)
}

func cmdZCount(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeZSet) {
		return errReply(dst, wrongTypeMsg)
	}
	min, err1 := strconv.ParseFloat(string(args[2]), 64)
	max, err2 := strconv.ParseFloat(string(args[3]), 64)
	if err1 != nil || err2 != nil {
		return errReply(dst, "ERR min or max is not a float")
	}
	return resp.AppendInteger(dst, int64(o.ZCountRange(min, max)))
}

func zRangeGeneric(rev bool) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
		if !ok {
			return resp.AppendArrayHeader(dst, 0)
		}
		if typeMismatch(o, object.TypeZSet) {
			return errReply(dst, wrongTypeMsg)
		}
		start, ok1 := parseIntArg(args[2])
		end, ok2 := parseIntArg(args[3])
		if !ok1 || !ok2 {
			return errReply(dst, "ERR value is not an integer or out of range")
		}
		withScores := len(args) >= 5 && strEqualFold(string(args[4]), "WITHSCORES")
		members := o.ZRange(int(start), int(end), rev)
		n := len(members)
		if withScores {
			n *= 2
		}
		dst = resp.AppendArrayHeader(dst, n)
		for _, m := range members {
			dst = resp.AppendBulkString(dst, []byte(m.Member))
			if withScores {
				dst = resp.AppendBulkString(dst, []byte(resp.FormatFloat(m.Score)))
			}
		}
		return dst
	}
}

func zRankGeneric(rev bool) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
		if !ok {
			return resp.AppendBulkString(dst, nil)
		}
		if typeMismatch(o, object.TypeZSet) {
			return errReply(dst, wrongTypeMsg)
		}
		rank := o.ZRank(string(args[2]), rev)
		if rank == -1 {
			return resp.AppendBulkString(dst, nil)
		}
		return resp.AppendInteger(dst, int64(rank))
	}
}

func strEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'a' <= ca && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if 'a' <= cb && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
