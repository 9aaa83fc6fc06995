package command

import (
	"gofast/internal/object"
	"gofast/internal/resp"
)

func lookupHashForWrite(s *Server, c ClientView, key string) (*object.Object, bool, bool) {
	db := s.DB(c.DBIndex())
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeHash) {
		return nil, false, false
	}
	if !ok {
		o = object.NewHash()
		db.Add(key, o)
	}
	return o, true, true
}

func cmdHSet(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	if (len(args)-2)%2 != 0 {
		return errReply(dst, "ERR wrong number of arguments for 'hset' command")
	}
	o, _, okType := lookupHashForWrite(s, c, string(args[1]))
	if !okType {
		return errReply(dst, wrongTypeMsg)
	}
	added := int64(0)
	for i := 2; i+1 < len(args); i += 2 {
		if o.HashSet(string(args[i]), args[i+1]) {
			added++
		}
	}
	return resp.AppendInteger(dst, added)
}

func cmdHSetNX(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, _, okType := lookupHashForWrite(s, c, string(args[1]))
	if !okType {
		return errReply(dst, wrongTypeMsg)
	}
	if o.HashExists(string(args[2])) {
		return resp.AppendInteger(dst, 0)
	}
	o.HashSet(string(args[2]), args[3])
	return resp.AppendInteger(dst, 1)
}

func cmdHGet(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	if typeMismatch(o, object.TypeHash) {
		return errReply(dst, wrongTypeMsg)
	}
	v, ok := o.HashGet(string(args[2]))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	return resp.AppendBulkString(dst, v)
}

func cmdHExists(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeHash) {
		return errReply(dst, wrongTypeMsg)
	}
	if o.HashExists(string(args[2])) {
		return resp.AppendInteger(dst, 1)
	}
	return resp.AppendInteger(dst, 0)
}

func cmdHDel(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeHash) {
		return errReply(dst, wrongTypeMsg)
	}
	removed := int64(0)
	for _, f := range args[2:] {
		if o.HashDel(string(f)) {
			removed++
		}
	}
	if o.HashLen() == 0 {
		db.Delete(key)
	}
	return resp.AppendInteger(dst, removed)
}

func cmdHLen(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeHash) {
		return errReply(dst, wrongTypeMsg)
	}
	return resp.AppendInteger(dst, int64(o.HashLen()))
}

func cmdHGetAll(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendArrayHeader(dst, 0)
	}
	if typeMismatch(o, object.TypeHash) {
		return errReply(dst, wrongTypeMsg)
	}
	fields, values := o.HashAll()
	dst = resp.AppendArrayHeader(dst, len(fields)*2)
	for i := range fields {
		dst = resp.AppendBulkString(dst, fields[i])
		dst = resp.AppendBulkString(dst, values[i])
	}
	return dst
}
