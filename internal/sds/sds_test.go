package sds

import "testing"

func TestAppendGrowsAndPreservesContent(t *testing.T) {
	s := New([]byte("hello"))
	s.Append([]byte(" world"))
	if s.String() != "hello world" {
		t.Fatalf("got %q", s.String())
	}
	if s.Len() != len("hello world") {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestAppendManySmallChunksPreservesContent(t *testing.T) {
	s := NewLen(0)
	for i := 0; i < 2000; i++ {
		s.Append([]byte("x"))
	}
	if s.Len() != 2000 {
		t.Fatalf("len = %d, want 2000", s.Len())
	}
	for _, b := range s.Bytes() {
		if b != 'x' {
			t.Fatalf("unexpected byte %q", b)
		}
	}
}

func TestTruncateShortensWithoutReallocating(t *testing.T) {
	s := New([]byte("hello world"))
	cap0 := cap(s.Bytes())
	s.Truncate(5)
	if s.String() != "hello" {
		t.Fatalf("got %q", s.String())
	}
	if cap(s.Bytes()) != cap0 {
		t.Fatalf("truncate should not reallocate: cap changed from %d to %d", cap0, cap(s.Bytes()))
	}
}

func TestRangeCopyClampsOutOfBoundsIndices(t *testing.T) {
	s := New([]byte("hello world"))
	got := s.RangeCopy(6, 100)
	if string(got) != "world" {
		t.Fatalf("got %q", got)
	}
	if empty := s.RangeCopy(-5, 2); string(empty) != "he" {
		t.Fatalf("got %q, want clamped start", empty)
	}
}

func TestSetRangeExtendsWithZeroPadding(t *testing.T) {
	s := New([]byte("hi"))
	s.SetRange(5, []byte("there"))
	want := "hi\x00\x00\x00there"
	if s.String() != want {
		t.Fatalf("got %q, want %q", s.String(), want)
	}
}

func TestDupIsIndependentCopy(t *testing.T) {
	s := New([]byte("hello"))
	d := s.Dup()
	d.Append([]byte("!"))
	if s.String() != "hello" {
		t.Fatalf("original mutated: %q", s.String())
	}
	if d.String() != "hello!" {
		t.Fatalf("dup = %q", d.String())
	}
}

func TestEqual(t *testing.T) {
	a := New([]byte("abc"))
	b := New([]byte("abc"))
	c := New([]byte("abd"))
	if !a.Equal(b) {
		t.Fatal("expected equal")
	}
	if a.Equal(c) {
		t.Fatal("expected not equal")
	}
}
