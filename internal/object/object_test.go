package object

import (
	"strconv"
	"strings"
	"testing"
)

func TestNewStringEncodesIntWhenStrict(t *testing.T) {
	o := NewString([]byte("12345"))
	if o.Encoding != EncodingInt {
		t.Fatalf("encoding = %v, want int", o.Encoding)
	}
	v, ok := o.IntValue()
	if !ok || v != 12345 {
		t.Fatalf("IntValue = %v, %v", v, ok)
	}
	if string(o.StringBytes()) != "12345" {
		t.Fatalf("StringBytes = %q", o.StringBytes())
	}
}

func TestNewStringRejectsNonCanonicalIntForms(t *testing.T) {
	for _, in := range []string{"007", "+5", " 5", "5 ", ""} {
		o := NewString([]byte(in))
		if o.Encoding == EncodingInt {
			t.Fatalf("input %q should not encode as int", in)
		}
	}
}

func TestNewStringEmbstrVsRawThreshold(t *testing.T) {
	short := strings.Repeat("a", EmbstrMaxLen)
	long := strings.Repeat("a", EmbstrMaxLen+1)
	if o := NewString([]byte(short)); o.Encoding != EncodingEmbstr {
		t.Fatalf("len %d: encoding = %v, want embstr", len(short), o.Encoding)
	}
	if o := NewString([]byte(long)); o.Encoding != EncodingRaw {
		t.Fatalf("len %d: encoding = %v, want raw", len(long), o.Encoding)
	}
}

func TestAppendTransitionsEmbstrToRaw(t *testing.T) {
	o := NewString([]byte("hi"))
	if o.Encoding != EncodingEmbstr {
		t.Fatalf("precondition: encoding = %v", o.Encoding)
	}
	o.Append([]byte(" there"))
	if o.Encoding != EncodingRaw {
		t.Fatalf("encoding after append = %v, want raw", o.Encoding)
	}
	if string(o.StringBytes()) != "hi there" {
		t.Fatalf("got %q", o.StringBytes())
	}
}

func TestAppendFromIntEncodingGoesRaw(t *testing.T) {
	o := NewString([]byte("10"))
	o.Append([]byte("0"))
	if o.Encoding != EncodingRaw {
		t.Fatalf("encoding = %v, want raw", o.Encoding)
	}
	if string(o.StringBytes()) != "100" {
		t.Fatalf("got %q", o.StringBytes())
	}
}

func TestSetIntOverwritesToIntEncoding(t *testing.T) {
	o := NewString([]byte("hello"))
	o.SetInt(42)
	if o.Encoding != EncodingInt {
		t.Fatalf("encoding = %v", o.Encoding)
	}
	v, ok := o.IntValue()
	if !ok || v != 42 {
		t.Fatalf("IntValue = %v, %v", v, ok)
	}
}

func TestSetRangeExtendsAndTransitionsToRaw(t *testing.T) {
	o := NewString([]byte("hi"))
	o.SetRange(4, []byte("x"))
	if o.Encoding != EncodingRaw {
		t.Fatalf("encoding = %v, want raw", o.Encoding)
	}
	if string(o.StringBytes()) != "hi\x00\x00x" {
		t.Fatalf("got %q", o.StringBytes())
	}
}

func TestListZiplistToLinkedlistOnLongItem(t *testing.T) {
	o := NewList()
	o.ListPush([]byte("short"), false)
	if o.Encoding != EncodingZiplist {
		t.Fatalf("encoding = %v", o.Encoding)
	}
	long := strings.Repeat("x", ListMaxItemLen+1)
	o.ListPush([]byte(long), false)
	if o.Encoding != EncodingLinkedlist {
		t.Fatalf("encoding after long push = %v, want linkedlist", o.Encoding)
	}
	if o.ListLen() != 2 {
		t.Fatalf("len = %d", o.ListLen())
	}
	v, ok := o.ListIndex(1)
	if !ok || string(v) != long {
		t.Fatalf("ListIndex(1) = %q, %v", v, ok)
	}
}

func TestListZiplistToLinkedlistOnCount(t *testing.T) {
	o := NewList()
	for i := 0; i < ListMaxEntries+1; i++ {
		o.ListPush([]byte("v"), false)
	}
	if o.Encoding != EncodingLinkedlist {
		t.Fatalf("encoding = %v, want linkedlist after %d pushes", o.Encoding, ListMaxEntries+1)
	}
	if o.ListLen() != ListMaxEntries+1 {
		t.Fatalf("len = %d", o.ListLen())
	}
}

func TestListPushPopHeadAndTail(t *testing.T) {
	o := NewList()
	o.ListPush([]byte("b"), false)
	o.ListPush([]byte("a"), true)
	o.ListPush([]byte("c"), false)
	// order: a b c
	v, ok := o.ListPop(true)
	if !ok || string(v) != "a" {
		t.Fatalf("pop head = %q, %v", v, ok)
	}
	v, ok = o.ListPop(false)
	if !ok || string(v) != "c" {
		t.Fatalf("pop tail = %q, %v", v, ok)
	}
	if o.ListLen() != 1 {
		t.Fatalf("len = %d", o.ListLen())
	}
}

func TestListRangeNegativeIndices(t *testing.T) {
	o := NewList()
	for _, v := range []string{"a", "b", "c", "d"} {
		o.ListPush([]byte(v), false)
	}
	got := o.ListRange(-2, -1)
	if len(got) != 2 || string(got[0]) != "c" || string(got[1]) != "d" {
		t.Fatalf("got %v", got)
	}
}

func TestListSetAndInsert(t *testing.T) {
	o := NewList()
	for _, v := range []string{"a", "b", "c"} {
		o.ListPush([]byte(v), false)
	}
	if !o.ListSet(1, []byte("B")) {
		t.Fatal("ListSet failed")
	}
	v, _ := o.ListIndex(1)
	if string(v) != "B" {
		t.Fatalf("got %q", v)
	}
	n := o.ListInsert([]byte("B"), []byte("b2"), false)
	if n != 4 {
		t.Fatalf("ListInsert len = %d", n)
	}
	all := o.ListRange(0, -1)
	if string(all[2]) != "b2" {
		t.Fatalf("got %v", all)
	}
	if o.ListInsert([]byte("ghost"), []byte("x"), true) != -1 {
		t.Fatal("expected -1 for missing pivot")
	}
}

func TestListRemPositiveNegativeZero(t *testing.T) {
	o := NewList()
	for _, v := range []string{"a", "x", "b", "x", "c", "x"} {
		o.ListPush([]byte(v), false)
	}
	n := o.ListRem(1, []byte("x"))
	if n != 1 {
		t.Fatalf("removed = %d, want 1", n)
	}
	all := o.ListRange(0, -1)
	if len(all) != 5 {
		t.Fatalf("len = %d", len(all))
	}

	o2 := NewList()
	for _, v := range []string{"a", "x", "b", "x", "c", "x"} {
		o2.ListPush([]byte(v), false)
	}
	n2 := o2.ListRem(-1, []byte("x"))
	if n2 != 1 {
		t.Fatalf("removed = %d, want 1", n2)
	}
	all2 := o2.ListRange(0, -1)
	if string(all2[len(all2)-1]) == "x" {
		t.Fatalf("tail-most x should have been removed: %v", all2)
	}

	o3 := NewList()
	for _, v := range []string{"x", "a", "x", "b", "x"} {
		o3.ListPush([]byte(v), false)
	}
	n3 := o3.ListRem(0, []byte("x"))
	if n3 != 3 {
		t.Fatalf("removed = %d, want 3", n3)
	}
}

func TestListTrim(t *testing.T) {
	o := NewList()
	for _, v := range []string{"a", "b", "c", "d", "e"} {
		o.ListPush([]byte(v), false)
	}
	o.ListTrim(1, 3)
	got := o.ListRange(0, -1)
	if len(got) != 3 || string(got[0]) != "b" || string(got[2]) != "d" {
		t.Fatalf("got %v", got)
	}
}

func TestHashZiplistToHTOnFieldLen(t *testing.T) {
	o := NewHash()
	o.HashSet("f", []byte("v"))
	if o.Encoding != EncodingZiplist {
		t.Fatalf("encoding = %v", o.Encoding)
	}
	longField := strings.Repeat("f", HashMaxFieldLen+1)
	o.HashSet(longField, []byte("v"))
	if o.Encoding != EncodingHT {
		t.Fatalf("encoding after long field = %v, want ht", o.Encoding)
	}
	v, ok := o.HashGet(longField)
	if !ok || string(v) != "v" {
		t.Fatalf("HashGet = %q, %v", v, ok)
	}
}

func TestHashZiplistToHTOnCount(t *testing.T) {
	o := NewHash()
	for i := 0; i < HashMaxEntries+1; i++ {
		o.HashSet(strconv.Itoa(i), []byte("v"))
	}
	if o.Encoding != EncodingHT {
		t.Fatalf("encoding = %v, want ht", o.Encoding)
	}
	if o.HashLen() != HashMaxEntries+1 {
		t.Fatalf("len = %d", o.HashLen())
	}
}

func TestHashSetGetDelOverwrite(t *testing.T) {
	o := NewHash()
	if added := o.HashSet("f", []byte("v1")); !added {
		t.Fatal("expected new field")
	}
	if added := o.HashSet("f", []byte("v2")); added {
		t.Fatal("expected overwrite, not new")
	}
	v, ok := o.HashGet("f")
	if !ok || string(v) != "v2" {
		t.Fatalf("got %q, %v", v, ok)
	}
	if !o.HashExists("f") {
		t.Fatal("expected field to exist")
	}
	if !o.HashDel("f") {
		t.Fatal("expected delete to succeed")
	}
	if o.HashDel("f") {
		t.Fatal("second delete should fail")
	}
}

func TestHashAllReturnsAllPairs(t *testing.T) {
	o := NewHash()
	o.HashSet("a", []byte("1"))
	o.HashSet("b", []byte("2"))
	fields, values := o.HashAll()
	if len(fields) != 2 || len(values) != 2 {
		t.Fatalf("got %v %v", fields, values)
	}
}

func TestSetIntsetToHTOnNonIntegerMember(t *testing.T) {
	o := NewSet()
	o.SetAdd("1")
	o.SetAdd("2")
	if o.Encoding != EncodingIntset {
		t.Fatalf("encoding = %v", o.Encoding)
	}
	o.SetAdd("not-an-int")
	if o.Encoding != EncodingHT {
		t.Fatalf("encoding after non-int member = %v, want ht", o.Encoding)
	}
	if !o.SetIsMember("1") || !o.SetIsMember("not-an-int") {
		t.Fatal("expected both members present after conversion")
	}
}

func TestSetIntsetToHTOnCount(t *testing.T) {
	o := NewSet()
	for i := 0; i < SetMaxEntries+1; i++ {
		o.SetAdd(strconv.Itoa(i))
	}
	if o.Encoding != EncodingHT {
		t.Fatalf("encoding = %v, want ht", o.Encoding)
	}
	if o.SetCard() != SetMaxEntries+1 {
		t.Fatalf("card = %d", o.SetCard())
	}
}

func TestSetAddRemoveMembership(t *testing.T) {
	o := NewSet()
	if !o.SetAdd("a") {
		t.Fatal("expected new add")
	}
	if o.SetAdd("a") {
		t.Fatal("duplicate add should return false")
	}
	if !o.SetIsMember("a") {
		t.Fatal("expected membership")
	}
	if !o.SetRemove("a") {
		t.Fatal("expected removal")
	}
	if o.SetIsMember("a") {
		t.Fatal("should no longer be member")
	}
	if o.SetRemove("ghost") {
		t.Fatal("removing absent member should fail")
	}
}

func TestSetRandomWrapsIndex(t *testing.T) {
	o := NewSet()
	o.SetAdd("a")
	o.SetAdd("b")
	if _, ok := o.SetRandom(0); !ok {
		t.Fatal("expected a member")
	}
	if _, ok := o.SetRandom(-1); !ok {
		t.Fatal("expected wraparound to still find a member")
	}
	empty := NewSet()
	if _, ok := empty.SetRandom(0); ok {
		t.Fatal("expected false on empty set")
	}
}

func TestZSetZiplistToSkiplistOnMemberLen(t *testing.T) {
	o := NewZSet()
	o.ZAdd("m", 1.0)
	if o.Encoding != EncodingZiplist {
		t.Fatalf("encoding = %v", o.Encoding)
	}
	longMember := strings.Repeat("m", ZSetMaxMemberLen+1)
	o.ZAdd(longMember, 2.0)
	if o.Encoding != EncodingSkiplist {
		t.Fatalf("encoding after long member = %v, want skiplist", o.Encoding)
	}
	score, ok := o.ZScore(longMember)
	if !ok || score != 2.0 {
		t.Fatalf("ZScore = %v, %v", score, ok)
	}
}

func TestZSetZiplistToSkiplistOnCount(t *testing.T) {
	o := NewZSet()
	for i := 0; i < ZSetMaxEntries+1; i++ {
		o.ZAdd(strconv.Itoa(i), float64(i))
	}
	if o.Encoding != EncodingSkiplist {
		t.Fatalf("encoding = %v, want skiplist", o.Encoding)
	}
	if o.ZCard() != ZSetMaxEntries+1 {
		t.Fatalf("card = %d", o.ZCard())
	}
}

func TestZAddReportsAddedVsUpdatedVsNoop(t *testing.T) {
	o := NewZSet()
	added, updated := o.ZAdd("m", 1.0)
	if !added || updated {
		t.Fatalf("first add: added=%v updated=%v", added, updated)
	}
	added, updated = o.ZAdd("m", 1.0)
	if added || updated {
		t.Fatalf("same score: added=%v updated=%v", added, updated)
	}
	added, updated = o.ZAdd("m", 2.0)
	if added || !updated {
		t.Fatalf("new score: added=%v updated=%v", added, updated)
	}
}

func TestZRemAndZCard(t *testing.T) {
	o := NewZSet()
	o.ZAdd("a", 1.0)
	o.ZAdd("b", 2.0)
	if !o.ZRem("a") {
		t.Fatal("expected removal")
	}
	if o.ZRem("a") {
		t.Fatal("second removal should fail")
	}
	if o.ZCard() != 1 {
		t.Fatalf("card = %d", o.ZCard())
	}
}

func TestZRangeAscendingAndReverse(t *testing.T) {
	o := NewZSet()
	o.ZAdd("a", 1.0)
	o.ZAdd("b", 2.0)
	o.ZAdd("c", 3.0)
	asc := o.ZRange(0, -1, false)
	if len(asc) != 3 || asc[0].Member != "a" || asc[2].Member != "c" {
		t.Fatalf("got %v", asc)
	}
	rev := o.ZRange(0, -1, true)
	if len(rev) != 3 || rev[0].Member != "c" || rev[2].Member != "a" {
		t.Fatalf("got %v", rev)
	}
}

func TestZRankAscendingAndReverse(t *testing.T) {
	o := NewZSet()
	o.ZAdd("a", 1.0)
	o.ZAdd("b", 2.0)
	o.ZAdd("c", 3.0)
	if r := o.ZRank("a", false); r != 0 {
		t.Fatalf("ZRank(a) = %d", r)
	}
	if r := o.ZRank("a", true); r != 2 {
		t.Fatalf("ZRank(a, rev) = %d", r)
	}
	if r := o.ZRank("ghost", false); r != -1 {
		t.Fatalf("ZRank(ghost) = %d, want -1", r)
	}
}

func TestZCountRangeInclusive(t *testing.T) {
	o := NewZSet()
	o.ZAdd("a", 1.0)
	o.ZAdd("b", 2.0)
	o.ZAdd("c", 3.0)
	if n := o.ZCountRange(1.0, 2.0); n != 2 {
		t.Fatalf("count = %d, want 2", n)
	}
	if n := o.ZCountRange(10, 20); n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
}

func TestLRUClockWrapsAt24Bits(t *testing.T) {
	c := LRUClock(int64(lruClockMax) * lruClockResolutionMillis)
	if c != lruClockMax {
		t.Fatalf("clock = %d, want %d", c, lruClockMax)
	}
	wrapped := LRUClock(int64(lruClockMax+1) * lruClockResolutionMillis)
	if wrapped != 0 {
		t.Fatalf("wrapped clock = %d, want 0", wrapped)
	}
}

func TestIdleSecondsWithoutWraparound(t *testing.T) {
	o := &Object{}
	o.Touch(100)
	if idle := o.IdleSeconds(150); idle != 50 {
		t.Fatalf("idle = %d, want 50", idle)
	}
}

func TestIdleSecondsAccountsForOneWraparound(t *testing.T) {
	o := &Object{}
	o.Touch(lruClockMax - 5)
	clock := uint32(3)
	idle := o.IdleSeconds(clock)
	want := int64(5 + 1 + 3)
	if idle != want {
		t.Fatalf("idle = %d, want %d", idle, want)
	}
}

