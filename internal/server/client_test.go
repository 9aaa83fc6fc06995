package server

import (
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"gofast/internal/command"
)

func newTestServerState(maxInputBufferBytes int64, maxWriteBytesPerLoop int) *Server {
	return &Server{
		cmdServer:            command.NewServer(16, 0, "no-eviction", func() int64 { return 0 }),
		clients:              make(map[int]*Client),
		maxInputBufferBytes:  maxInputBufferBytes,
		maxWriteBytesPerLoop: maxWriteBytesPerLoop,
	}
}

func TestFeedDispatchesCompleteRequest(t *testing.T) {
	s := newTestServerState(defaultMaxInputBufferBytes, defaultMaxWriteBytesPerLoop)
	c := newClient(s, -1, "test")
	if err := c.feed([]byte("PING\r\n")); err != nil {
		t.Fatalf("feed returned error: %v", err)
	}
	if string(c.outbuf) != "+PONG\r\n" {
		t.Fatalf("outbuf = %q, want +PONG", c.outbuf)
	}
}

func TestFeedClosesOnInputBufferOverrun(t *testing.T) {
	s := newTestServerState(8, defaultMaxWriteBytesPerLoop)
	c := newClient(s, -1, "test")
	err := c.feed([]byte("this line is far longer than eight bytes"))
	if err != errInputBufferOverrun {
		t.Fatalf("err = %v, want errInputBufferOverrun", err)
	}
}

func TestFeedAllowsDataUpToTheCap(t *testing.T) {
	s := newTestServerState(4, defaultMaxWriteBytesPerLoop)
	c := newClient(s, -1, "test")
	// Exactly at the cap, incomplete request: no overrun, no dispatch yet.
	if err := c.feed([]byte("*1\r\n")); err != nil {
		t.Fatalf("feed returned error: %v", err)
	}
	if len(c.inbuf) != 4 {
		t.Fatalf("inbuf len = %d, want 4 (buffered pending a complete request)", len(c.inbuf))
	}
}

func TestFlushWriteCapsBytesPerCall(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	const writeCap = 16
	s := newTestServerState(defaultMaxInputBufferBytes, writeCap)
	c := newClient(s, fds[0], "test")
	c.outbuf = []byte(strings.Repeat("x", writeCap*3))

	done, err := c.flushWrite()
	if err != nil {
		t.Fatalf("flushWrite error: %v", err)
	}
	if done {
		t.Fatal("flushWrite reported done after writing only a capped chunk")
	}
	if len(c.outbuf) != writeCap*2 {
		t.Fatalf("outbuf len = %d, want %d (one capped write drained)", len(c.outbuf), writeCap*2)
	}

	// Drain the rest across further calls, each bounded by the same cap.
	for len(c.outbuf) > 0 {
		done, err = c.flushWrite()
		if err != nil {
			t.Fatalf("flushWrite error: %v", err)
		}
	}
	if !done {
		t.Fatal("flushWrite never reported done once outbuf drained")
	}
}

func TestFlushWriteDoneWhenUnderCap(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	s := newTestServerState(defaultMaxInputBufferBytes, defaultMaxWriteBytesPerLoop)
	c := newClient(s, fds[0], "test")
	c.outbuf = []byte("short reply")

	done, err := c.flushWrite()
	if err != nil {
		t.Fatalf("flushWrite error: %v", err)
	}
	if !done {
		t.Fatal("expected done=true for a reply under the per-call cap")
	}
	if len(c.outbuf) != 0 {
		t.Fatalf("outbuf not fully drained: %q", c.outbuf)
	}
}
