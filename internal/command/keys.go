package command

import (
	"strconv"
	"time"

	"github.com/ryanuber/go-glob"

	"gofast/internal/object"
	"gofast/internal/resp"
)

func typeMismatch(o *object.Object, want object.Type) bool {
	return o != nil && o.Type != want
}

const wrongTypeMsg = "WRONGTYPE Operation against a key holding the wrong kind of value"

func parseIntArg(b []byte) (int64, bool) {
	v, err := strconv.ParseInt(string(b), 10, 64)
	return v, err == nil
}

func cmdDel(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	n := int64(0)
	for _, k := range args[1:] {
		if db.Delete(string(k)) {
			n++
		}
	}
	return resp.AppendInteger(dst, n)
}

func cmdExists(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	n := int64(0)
	for _, k := range args[1:] {
		if db.Exists(string(k)) {
			n++
		}
	}
	return resp.AppendInteger(dst, n)
}

func cmdSelect(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	idx, ok := parseIntArg(args[1])
	if !ok || !c.SelectDB(int(idx)) {
		return errReply(dst, "ERR DB index is out of range")
	}
	return resp.AppendSimpleString(dst, "OK")
}

func cmdRandomKey(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	k, ok := db.RandomKey(s.rng)
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	return resp.AppendBulkString(dst, []byte(k))
}

func cmdKeys(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	pattern := string(args[1])
	var matches []string
	db.ForEachKey(func(k string, _ *object.Object) bool {
		if glob.Glob(pattern, k) {
			matches = append(matches, k)
		}
		return true
	})
	dst = resp.AppendArrayHeader(dst, len(matches))
	for _, k := range matches {
		dst = resp.AppendBulkString(dst, []byte(k))
	}
	return dst
}

func cmdScan(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	cursor, ok := parseIntArg(args[1])
	if !ok || cursor < 0 {
		return errReply(dst, "ERR invalid cursor")
	}
	var found []string
	next := db.Scan(uint64(cursor), func(k string, _ *object.Object) {
		found = append(found, k)
	})
	dst = resp.AppendArrayHeader(dst, 2)
	dst = resp.AppendBulkString(dst, []byte(strconv.FormatUint(next, 10)))
	dst = resp.AppendArrayHeader(dst, len(found))
	for _, k := range found {
		dst = resp.AppendBulkString(dst, []byte(k))
	}
	return dst
}

func cmdDBSize(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	return resp.AppendInteger(dst, int64(s.DB(c.DBIndex()).Len()))
}

func cmdLastSave(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	// No persistence collaborator is wired into the core (spec.md §6);
	// report process start time as a stable, monotonically-valid stub.
	return resp.AppendInteger(dst, s.startTime.Unix())
}

func cmdType(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendSimpleString(dst, "none")
	}
	return resp.AppendSimpleString(dst, o.Type.String())
}

func cmdShutdown(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	// Marks the calling client close-after-reply and writes no reply, so
	// the networking layer closes this connection once its output is
	// flushed. The server process itself keeps running.
	c.MarkCloseAfterReply()
	return dst
}

func cmdMove(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	targetIdx, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR index out of range")
	}
	target := s.DB(int(targetIdx))
	if target == nil {
		return errReply(dst, "ERR index out of range")
	}
	src := s.DB(c.DBIndex())
	key := string(args[1])
	if target == src {
		return errReply(dst, "ERR source and destination objects are the same")
	}
	v, ok := src.LookupRead(key)
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if target.Exists(key) {
		return resp.AppendInteger(dst, 0)
	}
	target.Add(key, v)
	src.Delete(key)
	return resp.AppendInteger(dst, 1)
}

func cmdRename(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	src := string(args[1])
	v, ok := db.LookupRead(src)
	if !ok {
		return errReply(dst, "ERR no such key")
	}
	db.Delete(src)
	db.Set(string(args[2]), v, false)
	return resp.AppendSimpleString(dst, "OK")
}

func cmdRenameNX(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	src := string(args[1])
	v, ok := db.LookupRead(src)
	if !ok {
		return errReply(dst, "ERR no such key")
	}
	dstKey := string(args[2])
	if db.Exists(dstKey) {
		return resp.AppendInteger(dst, 0)
	}
	db.Delete(src)
	db.Add(dstKey, v)
	return resp.AppendInteger(dst, 1)
}

func cmdExpireGeneric(unit time.Duration, fromNow bool) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		db := s.DB(c.DBIndex())
		key := string(args[1])
		if !db.Exists(key) {
			return resp.AppendInteger(dst, 0)
		}
		n, ok := parseIntArg(args[2])
		if !ok {
			return errReply(dst, "ERR value is not an integer or out of range")
		}
		var deadline int64
		if fromNow {
			deadline = time.Now().Add(time.Duration(n) * unit).UnixMilli()
		} else {
			deadline = n * unit.Milliseconds()
		}
		db.SetExpire(key, deadline)
		return resp.AppendInteger(dst, 1)
	}
}

func cmdTTLGeneric(asMillis bool) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		ttl := s.DB(c.DBIndex()).TTLMillis(string(args[1]))
		if ttl < 0 {
			return resp.AppendInteger(dst, ttl)
		}
		if asMillis {
			return resp.AppendInteger(dst, ttl)
		}
		return resp.AppendInteger(dst, (ttl+999)/1000)
	}
}

func cmdPersist(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	if !db.Exists(key) {
		return resp.AppendInteger(dst, 0)
	}
	if db.Persist(key) {
		return resp.AppendInteger(dst, 1)
	}
	return resp.AppendInteger(dst, 0)
}
