package command

import (
	"strings"
	"time"

	"gofast/internal/resp"
)

// errReply formats a standard RESP error reply.
func errReply(dst []byte, msg string) []byte { return resp.AppendError(dst, msg) }

func checkArity(cmd *Command, argc int) bool {
	if cmd.Arity >= 0 {
		return argc == cmd.Arity
	}
	return argc >= -cmd.Arity
}

// Dispatch runs the full pipeline of spec.md §4.L for one parsed
// request and appends the reply to dst, returning the extended slice.
func Dispatch(s *Server, c ClientView, args [][]byte, dst []byte) []byte {
	if len(args) == 0 {
		return dst
	}
	name := strings.ToUpper(string(args[0]))

	if name == "QUIT" {
		dst = resp.AppendSimpleString(dst, "OK")
		c.MarkCloseAfterReply()
		return dst
	}

	cmd, ok := s.Lookup(name)
	if !ok {
		return errReply(dst, "ERR unknown command '"+string(args[0])+"'")
	}

	if !checkArity(cmd, len(args)) {
		return errReply(dst, "ERR wrong number of arguments for '"+strings.ToLower(name)+"' command")
	}

	if s.MaxMemory > 0 && cmd.Flags.has(FlagWrite) {
		if s.usedMemory() > s.MaxMemory {
			s.evictToFreeMemory()
		}
		if cmd.Flags.has(FlagDenyOOM) && s.usedMemory() > s.MaxMemory {
			return errReply(dst, "OOM command not allowed when used memory > 'maxmemory'")
		}
	}

	if s.Loading && !cmd.Flags.has(FlagLoadingAllowed) {
		return errReply(dst, "LOADING server is loading the dataset in memory")
	}

	start := time.Now()
	dst = cmd.Handler(s, c, args, dst)
	cmd.recordCall(time.Since(start))
	s.throughput.tick()

	return dst
}
