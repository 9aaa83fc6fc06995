package ae

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func runUntil(t *testing.T, l *Loop, cond func() bool, maxIterations int) {
	t.Helper()
	for i := 0; i < maxIterations; i++ {
		l.ProcessEvents()
		if cond() {
			return
		}
	}
	t.Fatal("condition never became true")
}

func TestTimeEventFiresAfterDelay(t *testing.T) {
	l, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	fired := false
	l.CreateTimeEvent(5, func(loop *Loop, id int64, clientData any) int {
		fired = true
		return NoMore
	}, nil, nil)

	runUntil(t, l, func() bool { return fired }, 100)
}

func TestTimeEventReschedulesUntilNoMore(t *testing.T) {
	l, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	count := 0
	l.CreateTimeEvent(1, func(loop *Loop, id int64, clientData any) int {
		count++
		if count >= 3 {
			return NoMore
		}
		return 1
	}, nil, nil)

	runUntil(t, l, func() bool { return count >= 3 }, 200)
	if count != 3 {
		t.Fatalf("count = %d, want exactly 3", count)
	}
}

func TestDeleteTimeEventCancelsBeforeFiringAndRunsFinalizer(t *testing.T) {
	l, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	finalized := false
	fired := false
	id := l.CreateTimeEvent(10_000, func(loop *Loop, tid int64, clientData any) int {
		fired = true
		return NoMore
	}, nil, func(loop *Loop, clientData any) {
		finalized = true
	})

	if !l.DeleteTimeEvent(id) {
		t.Fatal("expected delete to succeed")
	}
	if !finalized {
		t.Fatal("expected finalizer to run on delete")
	}
	if l.DeleteTimeEvent(id) {
		t.Fatal("second delete of same id should report false")
	}

	// Drive a couple of iterations to confirm it never fires.
	for i := 0; i < 3; i++ {
		l.ProcessEvents()
	}
	if fired {
		t.Fatal("deleted time event should never fire")
	}
}

func TestMultipleTimeEventsEachFireExactlyOnce(t *testing.T) {
	l, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	fireCounts := map[string]int{}
	mk := func(name string) TimeProc {
		return func(loop *Loop, id int64, clientData any) int {
			fireCounts[name]++
			return NoMore
		}
	}
	l.CreateTimeEvent(1, mk("a"), nil, nil)
	l.CreateTimeEvent(2, mk("b"), nil, nil)
	l.CreateTimeEvent(3, mk("c"), nil, nil)

	runUntil(t, l, func() bool {
		return fireCounts["a"] == 1 && fireCounts["b"] == 1 && fireCounts["c"] == 1
	}, 200)

	for name, n := range fireCounts {
		if n != 1 {
			t.Fatalf("event %s fired %d times, want 1", name, n)
		}
	}
}

func TestFileEventFiresOnReadable(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	l, err := New(64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	readFD := fds[0]
	writeFD := fds[1]

	var gotMask Mask
	readable := false
	if err := l.CreateFileEvent(readFD, Readable, func(loop *Loop, fd int, clientData any, mask Mask) {
		readable = true
		gotMask = mask
		buf := make([]byte, 16)
		unix.Read(fd, buf)
	}, nil); err != nil {
		t.Fatalf("CreateFileEvent: %v", err)
	}

	if _, err := unix.Write(writeFD, []byte("hi")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	runUntil(t, l, func() bool { return readable }, 100)
	if gotMask&Readable == 0 {
		t.Fatalf("mask = %v, want Readable bit set", gotMask)
	}
}

func TestDeleteFileEventStopsDelivery(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("Socketpair: %v", err)
	}
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	l, err := New(64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	readFD := fds[0]
	writeFD := fds[1]

	calls := 0
	l.CreateFileEvent(readFD, Readable, func(loop *Loop, fd int, clientData any, mask Mask) {
		calls++
	}, nil)
	l.DeleteFileEvent(readFD, Readable)

	if mask := l.FileEventMask(readFD); mask != None {
		t.Fatalf("mask after delete = %v, want None", mask)
	}

	unix.Write(writeFD, []byte("hi"))
	// A few iterations, each with a 1 ms timer so ProcessEvents polls:
	// the fd carries no registered interest, so ProcessEvents must not
	// invoke the removed handler.
	for i := 0; i < 3; i++ {
		l.CreateTimeEvent(1, func(loop *Loop, id int64, clientData any) int { return NoMore }, nil, nil)
		l.ProcessEvents()
	}
	if calls != 0 {
		t.Fatalf("calls = %d, want 0 after DeleteFileEvent", calls)
	}
}

func TestClockRegressionForcesImmediateFiring(t *testing.T) {
	l, err := New(16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	l.lastTime = time.Now().Add(time.Hour)

	fired := false
	l.CreateTimeEvent(60_000, func(loop *Loop, id int64, clientData any) int {
		fired = true
		return NoMore
	}, nil, nil)

	// Call the timer pass directly rather than ProcessEvents: the
	// epoll wait would otherwise block for the timer's full (unadjusted)
	// deadline before the clock-regression check ever runs.
	l.processTimeEvents()
	if !fired {
		t.Fatal("expected clock regression to force immediate firing")
	}
}
