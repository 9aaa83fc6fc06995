package server

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/sys/unix"

	"gofast/internal/ae"
	"gofast/internal/command"
)

// Server binds the event loop, the listening socket and the set of
// live clients together, standing in for the teacher's GoFastServer
// but driven by readiness events instead of a goroutine per
// connection (spec.md §4.I/§4.J).
type Server struct {
	loop      *ae.Loop
	cmdServer *command.Server

	listenFD int

	clients map[int]*Client

	cronPeriod time.Duration
	maxClients int

	maxInputBufferBytes  int64
	maxWriteBytesPerLoop int
	maxAcceptsPerLoop    int

	bufPool *bytePool
}

// Config collects the listener and event-loop sizing knobs SPEC_FULL.md
// §2 exposes through the CLI/config layer.
type Config struct {
	BindAddr     string
	Port         int
	MaxClients   int
	CronPeriod   time.Duration
	NumDatabases int
	MaxMemory    int64
	EvictionPol  string

	// MaxInputBufferBytes caps a client's accumulated unprocessed input
	// (spec.md §4.J); the connection is closed on overrun. Zero falls
	// back to the 1 GiB default.
	MaxInputBufferBytes int64
	// MaxWriteBytesPerLoop caps bytes written to one client per writable
	// event, so one large reply can't monopolize the event loop (spec.md
	// §4.I). Zero falls back to the 64 KiB default.
	MaxWriteBytesPerLoop int
	// MaxAcceptsPerLoop bounds accept() calls per readable event on the
	// listening socket (spec.md §4.I), so a connection burst can't starve
	// other registered fds. Zero falls back to the default of 10.
	MaxAcceptsPerLoop int
}

const (
	defaultMaxInputBufferBytes  = 1 << 30
	defaultMaxWriteBytesPerLoop = 64 * 1024
	defaultMaxAcceptsPerLoop    = 10
)

// New builds the server, the global command.Server state and the
// listening socket, but does not start accepting connections yet.
func New(cfg Config, usedMemory func() int64) (*Server, error) {
	loop, err := ae.New(cfg.MaxClients + 32)
	if err != nil {
		return nil, fmt.Errorf("event loop: %w", err)
	}

	maxInputBufferBytes := cfg.MaxInputBufferBytes
	if maxInputBufferBytes <= 0 {
		maxInputBufferBytes = defaultMaxInputBufferBytes
	}
	maxWriteBytesPerLoop := cfg.MaxWriteBytesPerLoop
	if maxWriteBytesPerLoop <= 0 {
		maxWriteBytesPerLoop = defaultMaxWriteBytesPerLoop
	}
	maxAcceptsPerLoop := cfg.MaxAcceptsPerLoop
	if maxAcceptsPerLoop <= 0 {
		maxAcceptsPerLoop = defaultMaxAcceptsPerLoop
	}

	s := &Server{
		loop:                 loop,
		cmdServer:            command.NewServer(cfg.NumDatabases, cfg.MaxMemory, cfg.EvictionPol, usedMemory),
		clients:              make(map[int]*Client),
		cronPeriod:           cfg.CronPeriod,
		maxClients:           cfg.MaxClients,
		maxInputBufferBytes:  maxInputBufferBytes,
		maxWriteBytesPerLoop: maxWriteBytesPerLoop,
		maxAcceptsPerLoop:    maxAcceptsPerLoop,
		bufPool:              newBytePool(),
	}

	fd, err := listenTCP(cfg.BindAddr, cfg.Port)
	if err != nil {
		loop.Close()
		return nil, err
	}
	s.listenFD = fd

	if err := loop.CreateFileEvent(fd, ae.Readable, s.onAcceptable, nil); err != nil {
		unix.Close(fd)
		loop.Close()
		return nil, err
	}

	loop.SetBeforeSleep(s.beforeSleep)
	loop.CreateTimeEvent(int64(cfg.CronPeriod.Milliseconds()), s.cronTick, nil, nil)

	return s, nil
}

func listenTCP(bindAddr string, port int) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}
	var addr [4]byte
	if ip := parseIPv4(bindAddr); ip != nil {
		addr = *ip
	}
	sa := &unix.SockaddrInet4{Port: port, Addr: addr}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, 511); err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func parseIPv4(s string) *[4]byte {
	if s == "" || s == "0.0.0.0" {
		return &[4]byte{0, 0, 0, 0}
	}
	var a, b, c, d int
	if n, err := fmt.Sscanf(s, "%d.%d.%d.%d", &a, &b, &c, &d); err != nil || n != 4 {
		return &[4]byte{0, 0, 0, 0}
	}
	return &[4]byte{byte(a), byte(b), byte(c), byte(d)}
}

// onAcceptable accepts up to maxAcceptsPerLoop pending connections per
// readable event (spec.md §4.I): a burst of pending connections on the
// listening fd must not starve other registered fds for this iteration
// of the loop. Remaining backlog is picked up on the next readiness
// event rather than drained here.
func (s *Server) onAcceptable(loop *ae.Loop, fd int, clientData any, mask ae.Mask) {
	for i := 0; i < s.maxAcceptsPerLoop; i++ {
		nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK)
		if err != nil {
			if err == unix.EAGAIN {
				return
			}
			log.Printf("accept error: %v", err)
			return
		}
		if s.maxClients > 0 && len(s.clients) >= s.maxClients {
			unix.Close(nfd)
			continue
		}
		addr := formatSockaddr(sa)
		c := newClient(s, nfd, addr)
		s.clients[nfd] = c
		s.cmdServer.RegisterClient(c)
		if err := loop.CreateFileEvent(nfd, ae.Readable, s.onReadable, nil); err != nil {
			s.closeClient(c)
			continue
		}
	}
}

func formatSockaddr(sa unix.Sockaddr) string {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return fmt.Sprintf("%d.%d.%d.%d:%d", a.Addr[0], a.Addr[1], a.Addr[2], a.Addr[3], a.Port)
	default:
		return "unknown"
	}
}

const readBufSize = 16 * 1024

func (s *Server) onReadable(loop *ae.Loop, fd int, clientData any, mask ae.Mask) {
	c, ok := s.clients[fd]
	if !ok {
		return
	}
	buf := s.bufPool.get()
	n, err := unix.Read(fd, buf)
	if n > 0 {
		c.lastInteraction = time.Now().Unix()
		if ferr := c.feed(buf[:n]); ferr != nil {
			s.bufPool.put(buf)
			s.closeClient(c)
			return
		}
	}
	s.bufPool.put(buf)
	if err != nil && err != unix.EAGAIN {
		s.closeClient(c)
		return
	}
	if n == 0 && err == nil {
		s.closeClient(c)
		return
	}
	s.tryFlush(c)
}

func (s *Server) tryFlush(c *Client) {
	if !c.hasPendingWrite() {
		if c.closeAfterReply || c.shouldCloseAsync() {
			s.closeClient(c)
		}
		return
	}
	done, err := c.flushWrite()
	if err != nil {
		s.closeClient(c)
		return
	}
	if done {
		if c.closeAfterReply || c.shouldCloseAsync() {
			s.closeClient(c)
			return
		}
		if s.loop.FileEventMask(c.fd)&ae.Writable != 0 {
			s.loop.DeleteFileEvent(c.fd, ae.Writable)
		}
		return
	}
	if s.loop.FileEventMask(c.fd)&ae.Writable == 0 {
		s.loop.CreateFileEvent(c.fd, ae.Writable, s.onWritable, nil)
	}
}

func (s *Server) onWritable(loop *ae.Loop, fd int, clientData any, mask ae.Mask) {
	c, ok := s.clients[fd]
	if !ok {
		return
	}
	s.tryFlush(c)
}

func (s *Server) closeClient(c *Client) {
	s.loop.DeleteFileEvent(c.fd, ae.Readable)
	s.loop.DeleteFileEvent(c.fd, ae.Writable)
	unix.Close(c.fd)
	delete(s.clients, c.fd)
	s.cmdServer.UnregisterClient(c.id)
}

// beforeSleep runs the fast-mode active expiration pass and closes
// clients marked close-async whose output is fully written (spec.md
// §4.I "before-sleep hook"). It writes no pending output itself; that
// is done by the readable and writable handlers.
func (s *Server) beforeSleep(loop *ae.Loop) {
	s.cmdServer.BeforeSleepActiveExpire()
	for _, c := range s.clients {
		if c.shouldCloseAsync() && !c.hasPendingWrite() {
			s.closeClient(c)
		}
	}
}

func (s *Server) cronTick(loop *ae.Loop, id int64, clientData any) int {
	s.cmdServer.ServerCronTick(s.cronPeriod)
	return int(s.cronPeriod.Milliseconds())
}

// Run starts accepting connections and blocks running the event loop
// until Stop is called.
func (s *Server) Run() {
	s.loop.Main()
}

// Stop requests the event loop to return after its current iteration
// and releases the listening socket.
func (s *Server) Stop() {
	s.loop.Stop()
	unix.Close(s.listenFD)
	s.loop.Close()
}

// CommandServer exposes the underlying command.Server, e.g. for tests
// that want to register stub commands or inspect database state.
func (s *Server) CommandServer() *command.Server { return s.cmdServer }
