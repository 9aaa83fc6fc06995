package server

import (
	"net"
	"strconv"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"gofast/internal/ae"
)

func TestOnAcceptableBoundsAcceptsPerEvent(t *testing.T) {
	fd, err := listenTCP("127.0.0.1", 0)
	if err != nil {
		t.Fatalf("listenTCP: %v", err)
	}
	defer unix.Close(fd)

	sa, err := unix.Getsockname(fd)
	if err != nil {
		t.Fatalf("getsockname: %v", err)
	}
	port := sa.(*unix.SockaddrInet4).Port

	const bound = 3
	const pending = bound * 2

	loop, err := ae.New(64)
	if err != nil {
		t.Fatalf("ae.New: %v", err)
	}
	defer loop.Close()

	s := newTestServerState(defaultMaxInputBufferBytes, defaultMaxWriteBytesPerLoop)
	s.loop = loop
	s.maxAcceptsPerLoop = bound

	conns := make([]net.Conn, 0, pending)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < pending; i++ {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), time.Second)
		if err != nil {
			t.Fatalf("dial %d: %v", i, err)
		}
		conns = append(conns, conn)
	}
	// Give the kernel a moment to finish the backlog handshakes.
	time.Sleep(50 * time.Millisecond)

	s.onAcceptable(loop, fd, nil, ae.Readable)
	if len(s.clients) != bound {
		t.Fatalf("accepted %d connections in one event, want exactly %d (the configured bound)", len(s.clients), bound)
	}

	s.onAcceptable(loop, fd, nil, ae.Readable)
	if len(s.clients) != pending {
		t.Fatalf("accepted %d connections after a second event, want %d total", len(s.clients), pending)
	}
}
