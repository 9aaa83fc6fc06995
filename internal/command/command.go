// Package command implements the command table and dispatch pipeline
// (spec.md §4.L), the global server state the dispatch pipeline reads
// and mutates, expiration/eviction (§4.M) and the server cron (§4.O).
package command

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"gofast/internal/database"
)

// Flag describes one bit of command metadata (spec.md §4.L).
type Flag int

const (
	FlagWrite Flag = 1 << iota
	FlagReadonly
	FlagDenyOOM
	FlagAdmin
	FlagRandomOut
	FlagLoadingAllowed
	FlagStaleAllowed
	FlagSkipMonitor
)

func (f Flag) has(bit Flag) bool { return f&bit != 0 }

// KeySpec describes which argument positions are keys: first index,
// last index (negative counts from the end), and the step between
// successive keys.
type KeySpec struct {
	First, Last, Step int
}

// HandlerFunc executes one command, appending its RESP reply to dst
// and returning the extended slice.
type HandlerFunc func(s *Server, c ClientView, args [][]byte, dst []byte) []byte

// Command is one command-table entry.
type Command struct {
	Name    string
	Handler HandlerFunc
	// Arity: positive means exact argument count (including the
	// command name itself); negative means a minimum.
	Arity int
	Flags Flag
	Keys  KeySpec

	calls        uint64
	microseconds uint64
	mu           sync.Mutex
}

func (cmd *Command) recordCall(d time.Duration) {
	cmd.mu.Lock()
	cmd.calls++
	cmd.microseconds += uint64(d.Microseconds())
	cmd.mu.Unlock()
}

// Stats returns (invocation count, cumulative microseconds).
func (cmd *Command) Stats() (uint64, uint64) {
	cmd.mu.Lock()
	defer cmd.mu.Unlock()
	return cmd.calls, cmd.microseconds
}

// ClientView is the narrow surface command handlers and the dispatch
// pipeline need from a connected client; internal/server's Client
// implements it, keeping command free of any socket/ae dependency.
type ClientView interface {
	ID() int64
	Addr() string
	Name() string
	SetName(string)
	DBIndex() int
	SelectDB(id int) bool
	MarkCloseAfterReply()
	MarkCloseAsync()
	LastInteractionUnix() int64
	Flags() string
}

// Server is the single process-wide state: databases, the command
// table, configuration, counters and the registered client set
// (spec.md §9 "Global server state").
type Server struct {
	Databases []*database.DB
	commands  map[string]*Command

	mu      sync.Mutex
	clients map[int64]ClientView

	MaxMemory      int64
	EvictionPolicy string
	usedMemory     func() int64

	rng *rand.Rand

	evictPool *database.Pool

	// Active-expiration budget tracking (spec.md §4.M).
	lastSlowExpireHitBudget bool
	lastFastExpireAt        time.Time

	Loading bool

	startTime time.Time

	throughput *throughputSampler

	totalConnections uint64
}

// NewServer creates the global server state with the given number of
// selectable databases.
func NewServer(numDatabases int, maxMemory int64, evictionPolicy string, usedMemory func() int64) *Server {
	s := &Server{
		commands:       make(map[string]*Command),
		clients:        make(map[int64]ClientView),
		MaxMemory:      maxMemory,
		EvictionPolicy: evictionPolicy,
		usedMemory:     usedMemory,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		evictPool:      database.NewPool(),
		startTime:      time.Now(),
		throughput:     newThroughputSampler(),
	}
	for i := 0; i < numDatabases; i++ {
		s.Databases = append(s.Databases, database.New(i, s.propagate))
	}
	registerCommands(s)
	return s
}

func (s *Server) propagate(dbID int, args []string) {
	// External persistence/replication sinks are opaque collaborators
	// (spec.md §6); the core has none wired up, so propagation is a
	// silent no-op hook point for a future collaborator to attach to.
	_ = dbID
	_ = args
}

// Register adds a command to the table. Called from registerCommands
// and by tests wiring a stub handler.
func (s *Server) Register(cmd *Command) {
	s.commands[strings.ToUpper(cmd.Name)] = cmd
}

// Lookup finds a command by name, case-insensitively.
func (s *Server) Lookup(name string) (*Command, bool) {
	c, ok := s.commands[strings.ToUpper(name)]
	return c, ok
}

// RegisterClient adds a connected client to the registry (for CLIENT
// LIST/KILL). Called by internal/server on accept.
func (s *Server) RegisterClient(c ClientView) {
	s.mu.Lock()
	s.clients[c.ID()] = c
	s.totalConnections++
	s.mu.Unlock()
}

// TotalConnections returns the lifetime count of accepted connections
// (spec.md §6 INFO, the connections counter the teacher's ServerStats
// tracked).
func (s *Server) TotalConnections() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalConnections
}

// UnregisterClient removes a client from the registry on disconnect.
func (s *Server) UnregisterClient(id int64) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

// Clients returns a snapshot of all registered clients.
func (s *Server) Clients() []ClientView {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClientView, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	return out
}

// ClientByID looks up a single client.
func (s *Server) ClientByID(id int64) (ClientView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[id]
	return c, ok
}

// DB returns the selected database, or nil if out of range.
func (s *Server) DB(index int) *database.DB {
	if index < 0 || index >= len(s.Databases) {
		return nil
	}
	return s.Databases[index]
}
