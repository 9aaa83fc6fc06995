package command

import (
	"strings"

	"gofast/internal/object"
	"gofast/internal/resp"
)

func lookupListForWrite(s *Server, c ClientView, key string, createIfMissing bool) (*object.Object, bool, bool) {
	db := s.DB(c.DBIndex())
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeList) {
		return nil, false, false
	}
	if !ok {
		if !createIfMissing {
			return nil, false, true
		}
		o = object.NewList()
		db.Add(key, o)
	}
	return o, true, true
}

func pushGeneric(toHead, requireExisting bool) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		key := string(args[1])
		o, existsOrCreated, okType := lookupListForWrite(s, c, key, !requireExisting)
		if !okType {
			return errReply(dst, wrongTypeMsg)
		}
		if !existsOrCreated {
			return resp.AppendInteger(dst, 0)
		}
		for _, v := range args[2:] {
			o.ListPush(v, toHead)
		}
		return resp.AppendInteger(dst, int64(o.ListLen()))
	}
}

func popGeneric(toHead bool) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		db := s.DB(c.DBIndex())
		key := string(args[1])
		o, ok := db.LookupWrite(key)
		if !ok {
			return resp.AppendBulkString(dst, nil)
		}
		if typeMismatch(o, object.TypeList) {
			return errReply(dst, wrongTypeMsg)
		}
		v, ok := o.ListPop(toHead)
		if !ok {
			return resp.AppendBulkString(dst, nil)
		}
		if o.ListLen() == 0 {
			db.Delete(key)
		}
		return resp.AppendBulkString(dst, v)
	}
}

func cmdLLen(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeList) {
		return errReply(dst, wrongTypeMsg)
	}
	return resp.AppendInteger(dst, int64(o.ListLen()))
}

func cmdLIndex(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupRead(string(args[1]))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	if typeMismatch(o, object.TypeList) {
		return errReply(dst, wrongTypeMsg)
	}
	idx, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	v, ok := o.ListIndex(int(idx))
	if !ok {
		return resp.AppendBulkString(dst, nil)
	}
	return resp.AppendBulkString(dst, v)
}

func cmdLSet(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupWrite(string(args[1]))
	if !ok {
		return errReply(dst, "ERR no such key")
	}
	if typeMismatch(o, object.TypeList) {
		return errReply(dst, wrongTypeMsg)
	}
	idx, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	if !o.ListSet(int(idx), args[3]) {
		return errReply(dst, "ERR index out of range")
	}
	return resp.AppendSimpleString(dst, "OK")
}

func cmdLInsert(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	o, ok := s.DB(c.DBIndex()).LookupWrite(string(args[1]))
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeList) {
		return errReply(dst, wrongTypeMsg)
	}
	where := strings.ToUpper(string(args[2]))
	var before bool
	switch where {
	case "BEFORE":
		before = true
	case "AFTER":
		before = false
	default:
		return errReply(dst, "ERR syntax error")
	}
	n := o.ListInsert(args[3], args[4], before)
	return resp.AppendInteger(dst, int64(n))
}

func cmdLRem(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if !ok {
		return resp.AppendInteger(dst, 0)
	}
	if typeMismatch(o, object.TypeList) {
		return errReply(dst, wrongTypeMsg)
	}
	count, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	removed := o.ListRem(int(count), args[3])
	if o.ListLen() == 0 {
		db.Delete(key)
	}
	return resp.AppendInteger(dst, int64(removed))
}

func cmdLTrim(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if !ok {
		return resp.AppendSimpleString(dst, "OK")
	}
	if typeMismatch(o, object.TypeList) {
		return errReply(dst, wrongTypeMsg)
	}
	start, ok1 := parseIntArg(args[2])
	end, ok2 := parseIntArg(args[3])
	if !ok1 || !ok2 {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	o.ListTrim(int(start), int(end))
	if o.ListLen() == 0 {
		db.Delete(key)
	}
	return resp.AppendSimpleString(dst, "OK")
}
