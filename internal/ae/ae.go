// Package ae implements the single-threaded cooperative event loop
// described in spec.md §4.I: a densely-indexed file-event registry
// multiplexed over epoll, and an unordered singly-linked time-event
// list fired in before-sleep/poll/timer order.
package ae

import (
	"sort"
	"time"

	"golang.org/x/sys/unix"
)

// Mask identifies which I/O readiness a file event cares about.
type Mask int

const (
	None     Mask = 0
	Readable Mask = 1 << iota
	Writable
)

// NoMore is returned by a TimeProc to cancel further rescheduling.
const NoMore = -1

// FileProc handles one ready (fd, mask) pair.
type FileProc func(loop *Loop, fd int, clientData any, mask Mask)

// TimeProc handles a due timed event, returning the number of
// milliseconds until it should fire again, or NoMore to cancel it.
type TimeProc func(loop *Loop, id int64, clientData any) int

// FinalizerProc runs once when a timed event is deleted.
type FinalizerProc func(loop *Loop, clientData any)

// BeforeSleepProc runs once per loop iteration before the readiness poll.
type BeforeSleepProc func(loop *Loop)

type fileEvent struct {
	mask       Mask
	rProc      FileProc
	wProc      FileProc
	clientData any
}

type timeEvent struct {
	id         int64
	when       time.Time
	proc       TimeProc
	finalizer  FinalizerProc
	clientData any
	next       *timeEvent
	deleted    bool
}

// Loop is the event loop state: the teacher's aeEventLoop equivalent.
type Loop struct {
	epfd        int
	events      []fileEvent
	maxFD       int
	setSize     int
	timeHead    *timeEvent
	nextTimerID int64
	lastTime    time.Time
	stop        bool
	beforeSleep BeforeSleepProc
}

// New creates an event loop sized to track up to setSize file
// descriptors (spec.md §4.I: "sized to support the configured maximum
// client count plus a reserved margin").
func New(setSize int) (*Loop, error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}
	return &Loop{
		epfd:     epfd,
		events:   make([]fileEvent, setSize),
		maxFD:    -1,
		setSize:  setSize,
		lastTime: time.Now(),
	}, nil
}

// Close releases the epoll file descriptor.
func (l *Loop) Close() error { return unix.Close(l.epfd) }

// SetBeforeSleep installs the before-sleep hook.
func (l *Loop) SetBeforeSleep(fn BeforeSleepProc) { l.beforeSleep = fn }

// Stop requests the main loop to return after the current iteration.
func (l *Loop) Stop() { l.stop = true }

func toEpollEvents(mask Mask) uint32 {
	var e uint32
	if mask&Readable != 0 {
		e |= unix.EPOLLIN
	}
	if mask&Writable != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

// CreateFileEvent registers proc to run when fd becomes ready per mask
// (Readable or Writable; call twice to register both with distinct
// handlers, mirroring the teacher's per-direction procs).
func (l *Loop) CreateFileEvent(fd int, mask Mask, proc FileProc, clientData any) error {
	if fd >= l.setSize {
		return unix.ERANGE
	}
	fe := &l.events[fd]
	op := unix.EPOLL_CTL_ADD
	if fe.mask != None {
		op = unix.EPOLL_CTL_MOD
	}
	combined := fe.mask | mask
	ev := unix.EpollEvent{Events: toEpollEvents(combined), Fd: int32(fd)}
	if err := unix.EpollCtl(l.epfd, op, fd, &ev); err != nil {
		return err
	}
	fe.mask |= mask
	if mask&Readable != 0 {
		fe.rProc = proc
	}
	if mask&Writable != 0 {
		fe.wProc = proc
	}
	fe.clientData = clientData
	if fd > l.maxFD {
		l.maxFD = fd
	}
	return nil
}

// DeleteFileEvent removes mask's interest from fd. Idempotent.
func (l *Loop) DeleteFileEvent(fd int, mask Mask) {
	if fd >= l.setSize {
		return
	}
	fe := &l.events[fd]
	if fe.mask == None {
		return
	}
	fe.mask &^= mask
	ev := unix.EpollEvent{Events: toEpollEvents(fe.mask), Fd: int32(fd)}
	if fe.mask != None {
		unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
	} else {
		unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, fd, &ev)
	}
	if fd == l.maxFD && fe.mask == None {
		j := l.maxFD - 1
		for ; j >= 0; j-- {
			if l.events[j].mask != None {
				break
			}
		}
		l.maxFD = j
	}
}

// FileEventMask reports the currently registered mask for fd.
func (l *Loop) FileEventMask(fd int) Mask {
	if fd >= l.setSize {
		return None
	}
	return l.events[fd].mask
}

// CreateTimeEvent schedules proc to run after delayMillis, returning
// its identifier. New events are pushed onto the head of the unordered
// list, as the teacher's aeCreateTimeEvent does.
func (l *Loop) CreateTimeEvent(delayMillis int64, proc TimeProc, clientData any, finalizer FinalizerProc) int64 {
	id := l.nextTimerID
	l.nextTimerID++
	te := &timeEvent{
		id:         id,
		when:       time.Now().Add(time.Duration(delayMillis) * time.Millisecond),
		proc:       proc,
		finalizer:  finalizer,
		clientData: clientData,
		next:       l.timeHead,
	}
	l.timeHead = te
	return id
}

// DeleteTimeEvent cancels the timed event with the given id, running
// its finalizer if any. Returns false if no such event exists.
func (l *Loop) DeleteTimeEvent(id int64) bool {
	var prev *timeEvent
	for te := l.timeHead; te != nil; te = te.next {
		if te.id == id {
			if prev == nil {
				l.timeHead = te.next
			} else {
				prev.next = te.next
			}
			if te.finalizer != nil {
				te.finalizer(l, te.clientData)
			}
			return true
		}
		prev = te
	}
	return false
}

func (l *Loop) nearestTimer() *timeEvent {
	var nearest *timeEvent
	for te := l.timeHead; te != nil; te = te.next {
		if nearest == nil || te.when.Before(nearest.when) {
			nearest = te
		}
	}
	return nearest
}

// processTimeEvents fires every due timed event, restarting the scan
// from the list head after each firing (handlers may mutate the list)
// but never reconsidering events created during this pass (tracked via
// maxID, per spec.md §4.I).
func (l *Loop) processTimeEvents() int {
	processed := 0
	now := time.Now()

	if now.Before(l.lastTime) {
		// Clock moved backwards: force every pending event to fire ASAP.
		for te := l.timeHead; te != nil; te = te.next {
			te.when = time.Time{}
		}
	}
	l.lastTime = now

	maxID := l.nextTimerID - 1
	te := l.timeHead
	for te != nil {
		if te.id > maxID {
			te = te.next
			continue
		}
		now = time.Now()
		if !now.Before(te.when) {
			id := te.id
			retval := te.proc(l, id, te.clientData)
			processed++
			if retval != NoMore {
				te.when = time.Now().Add(time.Duration(retval) * time.Millisecond)
			} else {
				l.DeleteTimeEvent(id)
			}
			te = l.timeHead
			continue
		}
		te = te.next
	}
	return processed
}

const maxPollEvents = 256

// ProcessEvents runs one iteration: readiness poll (bounded by the
// nearest timer's deadline, or indefinite if there is nothing to wait
// for) followed by firing ready file events in descriptor order
// (readable before writable), then due timed events.
func (l *Loop) ProcessEvents() int {
	processed := 0

	var timeoutMillis int = -1
	shortest := l.nearestTimer()
	if shortest != nil {
		d := time.Until(shortest.when)
		if d < 0 {
			d = 0
		}
		timeoutMillis = int(d.Milliseconds())
	} else if l.maxFD == -1 {
		// Nothing registered and no timer pending: processTimeEvents
		// below is a no-op, so don't block the caller indefinitely.
		return l.processTimeEvents()
	}

	raw := make([]unix.EpollEvent, maxPollEvents)
	n, err := unix.EpollWait(l.epfd, raw, timeoutMillis)
	if err == nil && n > 0 {
		type fired struct {
			fd   int
			mask Mask
		}
		firedList := make([]fired, 0, n)
		for i := 0; i < n; i++ {
			var m Mask
			ev := raw[i].Events
			if ev&unix.EPOLLIN != 0 {
				m |= Readable
			}
			if ev&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				m |= Writable
			}
			firedList = append(firedList, fired{fd: int(raw[i].Fd), mask: m})
		}
		sort.Slice(firedList, func(i, j int) bool { return firedList[i].fd < firedList[j].fd })

		for _, f := range firedList {
			fe := &l.events[f.fd]
			if fe.mask&f.mask&Readable != 0 && fe.rProc != nil {
				fe.rProc(l, f.fd, fe.clientData, f.mask)
			}
			if fe.mask&f.mask&Writable != 0 && fe.wProc != nil {
				fe.wProc(l, f.fd, fe.clientData, f.mask)
			}
			processed++
		}
	}

	processed += l.processTimeEvents()
	return processed
}

// Main runs the loop until Stop is called: before-sleep hook, then one
// round of ProcessEvents, repeated.
func (l *Loop) Main() {
	l.stop = false
	for !l.stop {
		if l.beforeSleep != nil {
			l.beforeSleep(l)
		}
		l.ProcessEvents()
	}
}
