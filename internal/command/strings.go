package command

import (
	"strconv"
	"strings"
	"time"

	"gofast/internal/object"
	"gofast/internal/resp"
)

func getStringOrNil(s *Server, c ClientView, key string) (*object.Object, []byte, bool) {
	o, ok := s.DB(c.DBIndex()).LookupRead(key)
	if !ok {
		return nil, nil, true
	}
	if typeMismatch(o, object.TypeString) {
		return nil, nil, false
	}
	return o, o.StringBytes(), true
}

func cmdGet(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	_, v, ok := getStringOrNil(s, c, string(args[1]))
	if !ok {
		return errReply(dst, wrongTypeMsg)
	}
	return resp.AppendBulkString(dst, v)
}

// setOptions captures SET's NX|XX|EX|PX modifiers.
type setOptions struct {
	nx, xx      bool
	hasExpire   bool
	expireMsec  int64
	keepTTL     bool
}

func parseSetOptions(args [][]byte) (setOptions, bool) {
	var o setOptions
	i := 3
	for i < len(args) {
		tok := strings.ToUpper(string(args[i]))
		switch tok {
		case "NX":
			o.nx = true
			i++
		case "XX":
			o.xx = true
			i++
		case "KEEPTTL":
			o.keepTTL = true
			i++
		case "EX", "PX":
			if i+1 >= len(args) {
				return o, false
			}
			n, ok := parseIntArg(args[i+1])
			if !ok {
				return o, false
			}
			o.hasExpire = true
			if tok == "EX" {
				o.expireMsec = n * 1000
			} else {
				o.expireMsec = n
			}
			i += 2
		default:
			return o, false
		}
	}
	if o.nx && o.xx {
		return o, false
	}
	return o, true
}

func cmdSet(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	opts, ok := parseSetOptions(args)
	if !ok {
		return errReply(dst, "ERR syntax error")
	}
	db := s.DB(c.DBIndex())
	key := string(args[1])
	exists := db.Exists(key)
	if opts.nx && exists {
		return resp.AppendBulkString(dst, nil)
	}
	if opts.xx && !exists {
		return resp.AppendBulkString(dst, nil)
	}
	o := object.NewString(args[2])
	db.Set(key, o, opts.keepTTL)
	if opts.hasExpire {
		db.SetExpire(key, time.Now().UnixMilli()+opts.expireMsec)
	}
	return resp.AppendSimpleString(dst, "OK")
}

func cmdSetNX(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	if db.Exists(key) {
		return resp.AppendInteger(dst, 0)
	}
	db.Set(key, object.NewString(args[2]), false)
	return resp.AppendInteger(dst, 1)
}

func cmdSetExGeneric(unit time.Duration) HandlerFunc {
	return func(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
		n, ok := parseIntArg(args[2])
		if !ok || n <= 0 {
			return errReply(dst, "ERR invalid expire time")
		}
		db := s.DB(c.DBIndex())
		key := string(args[1])
		db.Set(key, object.NewString(args[3]), false)
		db.SetExpire(key, time.Now().Add(time.Duration(n)*unit).UnixMilli())
		return resp.AppendSimpleString(dst, "OK")
	}
}

func cmdAppend(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeString) {
		return errReply(dst, wrongTypeMsg)
	}
	if !ok {
		o = object.NewString(nil)
		db.Add(key, o)
	}
	o.Append(args[2])
	return resp.AppendInteger(dst, int64(len(o.StringBytes())))
}

func incrByHelper(s *Server, c ClientView, key string, delta int64) (int64, string) {
	db := s.DB(c.DBIndex())
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeString) {
		return 0, wrongTypeMsg
	}
	var cur int64
	if ok {
		v, isInt := o.IntValue()
		if !isInt {
			return 0, "ERR value is not an integer or out of range"
		}
		cur = v
	}
	next := cur + delta
	if delta > 0 && next < cur {
		return 0, "ERR increment or decrement would overflow"
	}
	if delta < 0 && next > cur {
		return 0, "ERR increment or decrement would overflow"
	}
	if !ok {
		o = object.NewString(nil)
		db.Add(key, o)
	}
	o.SetInt(next)
	return next, ""
}

func cmdIncr(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	v, errMsg := incrByHelper(s, c, string(args[1]), 1)
	if errMsg != "" {
		return errReply(dst, errMsg)
	}
	return resp.AppendInteger(dst, v)
}

func cmdDecr(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	v, errMsg := incrByHelper(s, c, string(args[1]), -1)
	if errMsg != "" {
		return errReply(dst, errMsg)
	}
	return resp.AppendInteger(dst, v)
}

func cmdIncrBy(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	n, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	v, errMsg := incrByHelper(s, c, string(args[1]), n)
	if errMsg != "" {
		return errReply(dst, errMsg)
	}
	return resp.AppendInteger(dst, v)
}

func cmdDecrBy(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	n, ok := parseIntArg(args[2])
	if !ok {
		return errReply(dst, "ERR value is not an integer or out of range")
	}
	v, errMsg := incrByHelper(s, c, string(args[1]), -n)
	if errMsg != "" {
		return errReply(dst, errMsg)
	}
	return resp.AppendInteger(dst, v)
}

func cmdIncrByFloat(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	delta, err := strconv.ParseFloat(string(args[2]), 64)
	if err != nil {
		return errReply(dst, "ERR value is not a valid float")
	}
	db := s.DB(c.DBIndex())
	key := string(args[1])
	o, ok := db.LookupWrite(key)
	if ok && typeMismatch(o, object.TypeString) {
		return errReply(dst, wrongTypeMsg)
	}
	var cur float64
	if ok {
		f, perr := strconv.ParseFloat(string(o.StringBytes()), 64)
		if perr != nil {
			return errReply(dst, "ERR value is not a valid float")
		}
		cur = f
	}
	next := cur + delta
	text := resp.FormatFloat(next)
	if !ok {
		o = object.NewString(nil)
		db.Add(key, o)
	}
	o.SetBytes([]byte(text))
	return resp.AppendBulkString(dst, []byte(text))
}
