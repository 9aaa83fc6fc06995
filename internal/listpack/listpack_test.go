package listpack

import "testing"

func TestPushAndGetRoundTrip(t *testing.T) {
	l := New()
	l.Push([]byte("a"), false)
	l.Push([]byte("b"), false)
	l.Push([]byte("c"), false)

	if l.Count() != 3 {
		t.Fatalf("count = %d", l.Count())
	}
	for i, want := range []string{"a", "b", "c"} {
		v, ok := l.Get(i)
		if !ok || string(v) != want {
			t.Fatalf("Get(%d) = %q, %v; want %q", i, v, ok, want)
		}
	}
}

func TestPushToHead(t *testing.T) {
	l := New()
	l.Push([]byte("b"), false)
	l.Push([]byte("a"), true)
	got := l.All()
	if len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "b" {
		t.Fatalf("got %v", got)
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	l := New()
	ints := []int64{0, 1, -1, 12, 13, -13, 127, -128, 32767, -32768, 1 << 40, -(1 << 40)}
	for _, v := range ints {
		l.Push(itoa(v), false)
	}
	for i, v := range ints {
		got, ok := l.Get(i)
		if !ok {
			t.Fatalf("Get(%d) missing", i)
		}
		if string(got) != string(itoa(v)) {
			t.Fatalf("entry %d: got %q want %q", i, got, itoa(v))
		}
	}
}

func TestDeleteAtShrinksAndPreservesOrder(t *testing.T) {
	l := New()
	l.Push([]byte("a"), false)
	l.Push([]byte("b"), false)
	l.Push([]byte("c"), false)

	if !l.DeleteAt(1) {
		t.Fatal("expected delete to succeed")
	}
	got := l.All()
	if len(got) != 2 || string(got[0]) != "a" || string(got[1]) != "c" {
		t.Fatalf("got %v", got)
	}
}

func TestInsertBefore(t *testing.T) {
	l := New()
	l.Push([]byte("a"), false)
	l.Push([]byte("c"), false)
	if !l.InsertBefore(1, []byte("b")) {
		t.Fatal("expected insert to succeed")
	}
	got := l.All()
	if len(got) != 3 || string(got[0]) != "a" || string(got[1]) != "b" || string(got[2]) != "c" {
		t.Fatalf("got %v", got)
	}
}

func TestFindWithSkip(t *testing.T) {
	l := New()
	for _, v := range []string{"a", "b", "a", "b", "a"} {
		l.Push([]byte(v), false)
	}
	if idx := l.Find(0, []byte("b"), 0); idx != 1 {
		t.Fatalf("first b at %d, want 1", idx)
	}
	if idx := l.Find(1, []byte("a"), 1); idx != 2 {
		t.Fatalf("second a (start 1, skip 1) at %d, want 2", idx)
	}
}

func TestCascadeUpdateOnLongEntryInsert(t *testing.T) {
	l := New()
	l.Push([]byte("short"), false)
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	l.Push(long, false)
	l.Push([]byte("tail"), false)

	got := l.All()
	if len(got) != 3 {
		t.Fatalf("count = %d", len(got))
	}
	if string(got[0]) != "short" || len(got[1]) != 300 || string(got[2]) != "tail" {
		t.Fatalf("round trip broken after long entry: lens=%d,%d,%d", len(got[0]), len(got[1]), len(got[2]))
	}
}
