package dict

import (
	"strconv"
	"testing"
)

func TestSetGetDelete(t *testing.T) {
	d := New()
	d.Set("a", 1)
	d.Set("b", 2)

	if v, ok := d.Get("a"); !ok || v.(int) != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}
	if !d.Has("b") {
		t.Fatal("expected b to be present")
	}
	if !d.Delete("a") {
		t.Fatal("expected delete to succeed")
	}
	if d.Has("a") {
		t.Fatal("a should be gone")
	}
	if d.Delete("missing") {
		t.Fatal("deleting absent key should return false")
	}
}

func TestSetOverwritesExistingKey(t *testing.T) {
	d := New()
	d.Set("k", 1)
	d.Set("k", 2)
	if d.Len() != 1 {
		t.Fatalf("len = %d, want 1", d.Len())
	}
	v, _ := d.Get("k")
	if v.(int) != 2 {
		t.Fatalf("got %v, want 2", v)
	}
}

func TestIncrementalRehashMigratesAllEntries(t *testing.T) {
	d := New()
	const n = 200
	for i := 0; i < n; i++ {
		d.Set(keyFor(i), i)
	}
	if d.Len() != n {
		t.Fatalf("len = %d, want %d", d.Len(), n)
	}
	// Drive any in-progress rehash to completion.
	for i := 0; i < 10000 && d.IsRehashing(); i++ {
		d.RehashMillis(1)
	}
	for i := 0; i < n; i++ {
		v, ok := d.Get(keyFor(i))
		if !ok || v.(int) != i {
			t.Fatalf("key %d: got %v, %v", i, v, ok)
		}
	}
}

func TestForEachVisitsEveryKeyExactlyOnce(t *testing.T) {
	d := New()
	const n = 150
	for i := 0; i < n; i++ {
		d.Set(keyFor(i), i)
	}
	seen := make(map[string]int)
	d.ForEach(func(k string, v any) bool {
		seen[k]++
		return true
	})
	if len(seen) != n {
		t.Fatalf("saw %d distinct keys, want %d", len(seen), n)
	}
	for k, c := range seen {
		if c != 1 {
			t.Fatalf("key %s seen %d times", k, c)
		}
	}
}

func TestClearEmptiesTable(t *testing.T) {
	d := New()
	d.Set("a", 1)
	d.Clear()
	if d.Len() != 0 {
		t.Fatalf("len = %d after clear", d.Len())
	}
	if d.Has("a") {
		t.Fatal("a should be gone after clear")
	}
}

func TestScanVisitsEveryKeyAcrossFullCursorCycle(t *testing.T) {
	d := New()
	const n = 64
	for i := 0; i < n; i++ {
		d.Set(keyFor(i), i)
	}
	seen := make(map[string]bool)
	cursor := uint64(0)
	for {
		cursor = d.Scan(cursor, func(k string, v any) {
			seen[k] = true
		})
		if cursor == 0 {
			break
		}
	}
	if len(seen) != n {
		t.Fatalf("scan saw %d keys, want %d", len(seen), n)
	}
}

func keyFor(i int) string {
	return "key-" + strconv.Itoa(i)
}
