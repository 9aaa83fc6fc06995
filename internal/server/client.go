// Package server wires the RESP protocol and command dispatch pipeline
// onto the raw epoll event loop in internal/ae, the way the teacher's
// server.go wires its protocol and handler layers onto net.Conn, but
// over non-blocking sockets instead of one goroutine per connection
// (spec.md §4.I/§4.J).
package server

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"gofast/internal/command"
	"gofast/internal/resp"
)

var nextClientID int64

// Client is one connected socket's protocol state: its pending input,
// buffered output, and the small bit of session state command handlers
// observe through command.ClientView.
type Client struct {
	id   int64
	fd   int
	addr string

	server *Server

	inbuf  []byte
	outbuf []byte

	name    string
	dbIndex int

	lastInteraction int64

	closeAfterReply bool
	closeAsync      int32
}

func newClient(srv *Server, fd int, addr string) *Client {
	return &Client{
		id:     atomic.AddInt64(&nextClientID, 1),
		fd:     fd,
		addr:   addr,
		server: srv,
	}
}

// errInputBufferOverrun signals feed to close the connection after an
// oversized, unprocessable input buffer (spec.md §4.J).
var errInputBufferOverrun = fmt.Errorf("ERR Protocol error: input buffer overrun")

func (c *Client) ID() int64     { return c.id }
func (c *Client) Addr() string  { return c.addr }
func (c *Client) Name() string  { return c.name }
func (c *Client) SetName(n string) { c.name = n }
func (c *Client) DBIndex() int  { return c.dbIndex }

func (c *Client) SelectDB(id int) bool {
	if c.server.cmdServer.DB(id) == nil {
		return false
	}
	c.dbIndex = id
	return true
}

func (c *Client) MarkCloseAfterReply() { c.closeAfterReply = true }
func (c *Client) MarkCloseAsync()      { atomic.StoreInt32(&c.closeAsync, 1) }

func (c *Client) shouldCloseAsync() bool { return atomic.LoadInt32(&c.closeAsync) != 0 }

func (c *Client) LastInteractionUnix() int64 { return atomic.LoadInt64(&c.lastInteraction) }

// Flags reports a short, redis-style per-client flag string (spec.md
// §6 CLIENT LIST). "N" (normal) when nothing else applies.
func (c *Client) Flags() string {
	var b strings.Builder
	if c.closeAfterReply {
		b.WriteString("c")
	}
	if c.shouldCloseAsync() {
		b.WriteString("k")
	}
	if b.Len() == 0 {
		return "N"
	}
	return b.String()
}

var _ command.ClientView = (*Client)(nil)

// feed appends freshly-read bytes and drains as many complete requests
// as are present, dispatching each and queuing its reply.
func (c *Client) feed(data []byte) error {
	if int64(len(c.inbuf)+len(data)) > c.server.maxInputBufferBytes {
		return errInputBufferOverrun
	}
	c.inbuf = append(c.inbuf, data...)
	for {
		args, consumed, err := resp.ParseRequest(c.inbuf)
		if err == resp.ErrIncomplete {
			break
		}
		if err != nil {
			c.outbuf = resp.AppendError(c.outbuf, fmt.Sprintf("ERR Protocol error: %s", err.Error()))
			c.closeAfterReply = true
			c.inbuf = c.inbuf[:0]
			return nil
		}
		if consumed == 0 {
			break
		}
		c.inbuf = c.inbuf[consumed:]
		if len(args) > 0 {
			c.outbuf = command.Dispatch(c.server.cmdServer, c, args, c.outbuf)
		}
	}
	return nil
}

func (c *Client) hasPendingWrite() bool { return len(c.outbuf) > 0 }

// flushWrite drains c.outbuf up to maxWriteBytesPerLoop bytes total,
// capping each unix.Write call at that budget so one client with a
// large pending reply can't monopolize the writable path for multiple
// full writes in a single event-loop turn (spec.md §4.I). Returns
// done=false when the cap was hit with data still left to write, so
// the caller leaves the writable event registered for other fds to get
// a turn first.
func (c *Client) flushWrite() (done bool, err error) {
	budget := c.server.maxWriteBytesPerLoop
	for len(c.outbuf) > 0 && budget > 0 {
		chunk := c.outbuf
		if len(chunk) > budget {
			chunk = chunk[:budget]
		}
		n, werr := unix.Write(c.fd, chunk)
		if werr == unix.EAGAIN {
			return false, nil
		}
		if werr != nil {
			return false, werr
		}
		c.outbuf = c.outbuf[n:]
		budget -= n
	}
	return len(c.outbuf) == 0, nil
}
