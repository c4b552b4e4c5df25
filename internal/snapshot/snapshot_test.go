package snapshot

import "testing"

type fakeState struct{ n int }

func (f fakeState) Clone() Cloneable { return fakeState{n: f.n} }

func TestSaveThenLoadRoundTrips(t *testing.T) {
	b := NewBuffer(4)
	b.Save(10, fakeState{n: 7}, 0xABCD)

	got, ok := b.Load(10)
	if !ok {
		t.Fatal("expected frame 10 to resolve")
	}
	if got.(fakeState).n != 7 {
		t.Errorf("expected n=7, got %d", got.(fakeState).n)
	}

	hash, ok := b.Hash(10)
	if !ok || hash != 0xABCD {
		t.Errorf("expected hash 0xABCD, got %x (ok=%v)", hash, ok)
	}
}

func TestLoadEvictedFrameFails(t *testing.T) {
	b := NewBuffer(4)
	b.Save(0, fakeState{n: 1}, 1)
	b.Save(4, fakeState{n: 2}, 2) // wraps to the same ring slot as frame 0

	if _, ok := b.Load(0); ok {
		t.Error("expected frame 0 to be evicted once frame 4 wraps onto its slot")
	}
	if got, ok := b.Load(4); !ok || got.(fakeState).n != 2 {
		t.Error("expected frame 4 to resolve after the wraparound write")
	}
}

func TestLoadUnwrittenSlotFails(t *testing.T) {
	b := NewBuffer(4)
	if _, ok := b.Load(2); ok {
		t.Error("expected an unwritten slot to report not-found")
	}
}

func TestCompareDetectsDesync(t *testing.T) {
	if err := Compare(123, 123); err != nil {
		t.Errorf("expected matching hashes to report no error, got %v", err)
	}
	if err := Compare(123, 456); err != ErrDesync {
		t.Errorf("expected ErrDesync for mismatched hashes, got %v", err)
	}
}

func TestHashBytesIsDeterministic(t *testing.T) {
	a := HashBytes([]byte("frame-42-state"))
	b := HashBytes([]byte("frame-42-state"))
	if a != b {
		t.Error("expected identical input to produce identical hashes")
	}
	c := HashBytes([]byte("frame-43-state"))
	if a == c {
		t.Error("expected different input to (almost certainly) produce different hashes")
	}
}

func TestOldestReflectsSmallestLiveFrame(t *testing.T) {
	b := NewBuffer(8)
	if _, ok := b.Oldest(); ok {
		t.Fatal("expected an empty buffer to report no oldest frame")
	}
	b.Save(5, fakeState{}, 0)
	b.Save(2, fakeState{}, 0)
	b.Save(9, fakeState{}, 0)

	oldest, ok := b.Oldest()
	if !ok || oldest != 2 {
		t.Errorf("expected oldest=2, got %d (ok=%v)", oldest, ok)
	}
}
