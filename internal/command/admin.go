package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gofast/internal/resp"
)

func cmdPing(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	if len(args) == 2 {
		return resp.AppendBulkString(dst, args[1])
	}
	return resp.AppendSimpleString(dst, "PONG")
}

func cmdEcho(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	return resp.AppendBulkString(dst, args[1])
}

func cmdClient(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	if len(args) < 2 {
		return errReply(dst, "ERR wrong number of arguments for 'client' command")
	}
	switch strings.ToUpper(string(args[1])) {
	case "GETNAME":
		return resp.AppendBulkString(dst, []byte(c.Name()))
	case "SETNAME":
		if len(args) != 3 {
			return errReply(dst, "ERR wrong number of arguments for 'client|setname' command")
		}
		c.SetName(string(args[2]))
		return resp.AppendSimpleString(dst, "OK")
	case "LIST":
		var b strings.Builder
		for _, cl := range s.Clients() {
			fmt.Fprintf(&b, "id=%d addr=%s name=%s db=%d age=%d flags=%s\n",
				cl.ID(), cl.Addr(), cl.Name(), cl.DBIndex(),
				time.Now().Unix()-cl.LastInteractionUnix(), cl.Flags())
		}
		return resp.AppendBulkString(dst, []byte(b.String()))
	case "KILL":
		if len(args) != 3 {
			return errReply(dst, "ERR syntax error")
		}
		id, err := strconv.ParseInt(string(args[2]), 10, 64)
		if err != nil {
			return errReply(dst, "ERR invalid client ID")
		}
		cl, ok := s.ClientByID(id)
		if !ok {
			return errReply(dst, "ERR No such client ID")
		}
		cl.MarkCloseAsync()
		return resp.AppendSimpleString(dst, "OK")
	default:
		return errReply(dst, "ERR unknown CLIENT subcommand")
	}
}

func cmdCommandCount(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	return resp.AppendInteger(dst, int64(len(s.commands)))
}

func cmdFlushDB(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	s.DB(c.DBIndex()).Clear()
	return resp.AppendSimpleString(dst, "OK")
}

func cmdFlushAll(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	for _, db := range s.Databases {
		db.Clear()
	}
	return resp.AppendSimpleString(dst, "OK")
}

func cmdInfo(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", time.Now().Unix()-s.startTime.Unix())
	fmt.Fprintf(&b, "connected_clients:%d\r\n", len(s.Clients()))
	fmt.Fprintf(&b, "total_connections_received:%d\r\n", s.TotalConnections())
	fmt.Fprintf(&b, "used_memory:%d\r\n", s.usedMemory())
	fmt.Fprintf(&b, "maxmemory:%d\r\n", s.MaxMemory)
	fmt.Fprintf(&b, "maxmemory_policy:%s\r\n", s.EvictionPolicy)
	fmt.Fprintf(&b, "instantaneous_ops_per_sec:%.0f\r\n", s.OpsPerSec())
	return resp.AppendBulkString(dst, []byte(b.String()))
}
