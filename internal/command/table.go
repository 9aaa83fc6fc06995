package command

import "time"

// registerCommands builds the command table (spec.md §6). Arity and
// flags follow the same convention the reference command table uses:
// positive arity is exact, negative is a minimum.
func registerCommands(s *Server) {
	reg := func(name string, arity int, flags Flag, keys KeySpec, h HandlerFunc) {
		s.Register(&Command{Name: name, Handler: h, Arity: arity, Flags: flags, Keys: keys})
	}

	oneKey := KeySpec{First: 1, Last: 1, Step: 1}
	noKey := KeySpec{}

	// Connection / admin.
	reg("PING", -1, FlagReadonly|FlagLoadingAllowed|FlagStaleAllowed, noKey, cmdPing)
	reg("ECHO", 2, FlagReadonly, noKey, cmdEcho)
	reg("SELECT", 2, FlagLoadingAllowed|FlagStaleAllowed, noKey, cmdSelect)
	reg("CLIENT", -2, FlagAdmin, noKey, cmdClient)
	reg("COMMAND", -1, FlagLoadingAllowed|FlagStaleAllowed, noKey, cmdCommandCount)
	reg("INFO", -1, FlagLoadingAllowed|FlagStaleAllowed, noKey, cmdInfo)
	reg("DBSIZE", 1, FlagReadonly, noKey, cmdDBSize)
	reg("FLUSHDB", 1, FlagWrite, noKey, cmdFlushDB)
	reg("FLUSHALL", 1, FlagWrite, noKey, cmdFlushAll)
	reg("LASTSAVE", 1, FlagLoadingAllowed|FlagStaleAllowed, noKey, cmdLastSave)
	reg("SHUTDOWN", -1, FlagAdmin, noKey, cmdShutdown)

	// Generic keyspace.
	reg("DEL", -2, FlagWrite, KeySpec{1, -1, 1}, cmdDel)
	reg("EXISTS", -2, FlagReadonly, KeySpec{1, -1, 1}, cmdExists)
	reg("TYPE", 2, FlagReadonly, oneKey, cmdType)
	reg("KEYS", 2, FlagReadonly, noKey, cmdKeys)
	reg("SCAN", -2, FlagReadonly, noKey, cmdScan)
	reg("RANDOMKEY", 1, FlagReadonly, noKey, cmdRandomKey)
	reg("RENAME", 3, FlagWrite, KeySpec{1, 2, 1}, cmdRename)
	reg("RENAMENX", 3, FlagWrite, KeySpec{1, 2, 1}, cmdRenameNX)
	reg("MOVE", 3, FlagWrite, oneKey, cmdMove)
	reg("EXPIRE", 3, FlagWrite, oneKey, cmdExpireGeneric(time.Second, true))
	reg("PEXPIRE", 3, FlagWrite, oneKey, cmdExpireGeneric(time.Millisecond, true))
	reg("EXPIREAT", 3, FlagWrite, oneKey, cmdExpireGeneric(time.Second, false))
	reg("PEXPIREAT", 3, FlagWrite, oneKey, cmdExpireGeneric(time.Millisecond, false))
	reg("TTL", 2, FlagReadonly, oneKey, cmdTTLGeneric(false))
	reg("PTTL", 2, FlagReadonly, oneKey, cmdTTLGeneric(true))
	reg("PERSIST", 2, FlagWrite, oneKey, cmdPersist)

	// Strings.
	reg("GET", 2, FlagReadonly, oneKey, cmdGet)
	reg("SET", -3, FlagWrite|FlagDenyOOM, oneKey, cmdSet)
	reg("SETNX", 3, FlagWrite|FlagDenyOOM, oneKey, cmdSetNX)
	reg("SETEX", 4, FlagWrite|FlagDenyOOM, oneKey, cmdSetExGeneric(time.Second))
	reg("PSETEX", 4, FlagWrite|FlagDenyOOM, oneKey, cmdSetExGeneric(time.Millisecond))
	reg("APPEND", 3, FlagWrite|FlagDenyOOM, oneKey, cmdAppend)
	reg("INCR", 2, FlagWrite|FlagDenyOOM, oneKey, cmdIncr)
	reg("DECR", 2, FlagWrite|FlagDenyOOM, oneKey, cmdDecr)
	reg("INCRBY", 3, FlagWrite|FlagDenyOOM, oneKey, cmdIncrBy)
	reg("DECRBY", 3, FlagWrite|FlagDenyOOM, oneKey, cmdDecrBy)
	reg("INCRBYFLOAT", 3, FlagWrite|FlagDenyOOM, oneKey, cmdIncrByFloat)

	// Lists.
	reg("LPUSH", -3, FlagWrite|FlagDenyOOM, oneKey, pushGeneric(true, false))
	reg("RPUSH", -3, FlagWrite|FlagDenyOOM, oneKey, pushGeneric(false, false))
	reg("LPUSHX", -3, FlagWrite|FlagDenyOOM, oneKey, pushGeneric(true, true))
	reg("RPUSHX", -3, FlagWrite|FlagDenyOOM, oneKey, pushGeneric(false, true))
	reg("LPOP", 2, FlagWrite, oneKey, popGeneric(true))
	reg("RPOP", 2, FlagWrite, oneKey, popGeneric(false))
	reg("LLEN", 2, FlagReadonly, oneKey, cmdLLen)
	reg("LINDEX", 3, FlagReadonly, oneKey, cmdLIndex)
	reg("LSET", 4, FlagWrite|FlagDenyOOM, oneKey, cmdLSet)
	reg("LINSERT", 5, FlagWrite|FlagDenyOOM, oneKey, cmdLInsert)
	reg("LREM", 4, FlagWrite, oneKey, cmdLRem)
	reg("LTRIM", 4, FlagWrite, oneKey, cmdLTrim)

	// Hashes.
	reg("HSET", -4, FlagWrite|FlagDenyOOM, oneKey, cmdHSet)
	reg("HSETNX", 4, FlagWrite|FlagDenyOOM, oneKey, cmdHSetNX)
	reg("HGET", 3, FlagReadonly, oneKey, cmdHGet)
	reg("HEXISTS", 3, FlagReadonly, oneKey, cmdHExists)
	reg("HDEL", -3, FlagWrite, oneKey, cmdHDel)
	reg("HLEN", 2, FlagReadonly, oneKey, cmdHLen)
	reg("HGETALL", 2, FlagReadonly, oneKey, cmdHGetAll)

	// Sets.
	reg("SADD", -3, FlagWrite|FlagDenyOOM, oneKey, cmdSAdd)
	reg("SREM", -3, FlagWrite, oneKey, cmdSRem)
	reg("SCARD", 2, FlagReadonly, oneKey, cmdSCard)
	reg("SISMEMBER", 3, FlagReadonly, oneKey, cmdSIsMember)
	reg("SINTER", -2, FlagReadonly, KeySpec{1, -1, 1}, cmdSInter)
	reg("SUNION", -2, FlagReadonly, KeySpec{1, -1, 1}, cmdSUnion)
	reg("SDIFF", -2, FlagReadonly, KeySpec{1, -1, 1}, cmdSDiff)
	reg("SRANDMEMBER", -2, FlagReadonly, oneKey, cmdSRandMember)
	reg("SPOP", 2, FlagWrite, oneKey, cmdSPop)

	// Sorted sets.
	reg("ZADD", -4, FlagWrite|FlagDenyOOM, oneKey, cmdZAdd)
	reg("ZCARD", 2, FlagReadonly, oneKey, cmdZCard)
	reg("ZSCORE", 3, FlagReadonly, oneKey, cmdZScore)
	reg("ZREM", -3, FlagWrite, oneKey, cmdZRem)
	reg("ZCOUNT", 4, FlagReadonly, oneKey, cmdZCount)
	reg("ZRANGE", -4, FlagReadonly, oneKey, zRangeGeneric(false))
	reg("ZREVRANGE", -4, FlagReadonly, oneKey, zRangeGeneric(true))
	reg("ZRANK", 3, FlagReadonly, oneKey, zRankGeneric(false))
	reg("ZREVRANK", 3, FlagReadonly, oneKey, zRankGeneric(true))
}
