package intset

import "testing"

func TestAddMaintainsSortedOrder(t *testing.T) {
	s := New()
	for _, v := range []int64{5, 1, 3, -2, 0} {
		s.Add(v)
	}
	want := []int64{-2, 0, 1, 3, 5}
	got := s.All()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestAddDuplicateIsNoop(t *testing.T) {
	s := New()
	s.Add(7)
	if s.Add(7) {
		t.Fatal("expected duplicate add to return false")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d", s.Len())
	}
}

func TestEncodingPromotesAndNeverDemotes(t *testing.T) {
	s := New()
	if s.Encoding() != Enc16 {
		t.Fatalf("initial encoding = %d", s.Encoding())
	}
	s.Add(1 << 20) // needs 32-bit
	if s.Encoding() != Enc32 {
		t.Fatalf("encoding after 32-bit value = %d", s.Encoding())
	}
	s.Remove(1 << 20)
	if s.Encoding() != Enc32 {
		t.Fatalf("encoding demoted after remove: %d", s.Encoding())
	}
	s.Add(1 << 40) // needs 64-bit
	if s.Encoding() != Enc64 {
		t.Fatalf("encoding after 64-bit value = %d", s.Encoding())
	}
}

func TestPromoteKeepsAllValuesInRange(t *testing.T) {
	s := New()
	for _, v := range []int64{1, 2, 3} {
		s.Add(v)
	}
	s.Add(1 << 40)
	s.Add(-(1 << 40))
	got := s.All()
	want := []int64{-(1 << 40), 1, 2, 3, 1 << 40}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRemoveAndContains(t *testing.T) {
	s := New()
	s.Add(1)
	s.Add(2)
	if !s.Remove(1) {
		t.Fatal("expected removal")
	}
	if s.Contains(1) {
		t.Fatal("1 should no longer be present")
	}
	if s.Remove(99) {
		t.Fatal("removing absent value should return false")
	}
}
