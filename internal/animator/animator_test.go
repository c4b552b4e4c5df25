package animator

import "testing"

func buildTestAnimator() *Animator {
	a := New()
	a.AddState(&State{Name: "idle", Frames: []Frame{{Duration: 2}, {Duration: 2}}})
	a.AddState(&State{Name: "attack", Frames: []Frame{{Duration: 1}, {Duration: 1}, {Duration: 1}}})
	return a
}

// TestSetStateFidelity grounds spec.md invariant 6: set_state(s); tick();
// tick() fires the same callbacks in the same order regardless of prior
// state.
func TestSetStateFidelity(t *testing.T) {
	run := func() []int {
		a := buildTestAnimator()
		var order []int
		a.SetState("attack", LoopOnce, false, false)
		a.OnFrame(0, func() { order = append(order, 0) }, true)
		a.OnFrame(1, func() { order = append(order, 1) }, true)
		a.Tick()
		a.Tick()
		return order
	}

	fromIdle := func() []int {
		a := buildTestAnimator()
		a.SetState("idle", LoopLoop, false, false)
		a.Tick()
		a.SetState("attack", LoopOnce, false, false)
		var order []int
		a.OnFrame(0, func() { order = append(order, 0) }, true)
		a.OnFrame(1, func() { order = append(order, 1) }, true)
		a.Tick()
		a.Tick()
		return order
	}

	a := run()
	b := fromIdle()
	if len(a) != len(b) {
		t.Fatalf("callback count differs: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("callback order differs: %v vs %v", a, b)
		}
	}
}

func TestSetStateNoOpUnlessForced(t *testing.T) {
	a := buildTestAnimator()
	a.SetState("idle", LoopLoop, false, false)
	a.Tick() // advance elapsed/frame state

	before := a.frameIndex
	a.SetState("idle", LoopLoop, false, false)
	if a.frameIndex != before {
		t.Error("expected same-state SetState to no-op and preserve frame position")
	}

	a.SetState("idle", LoopLoop, false, true)
	if a.frameIndex != 0 {
		t.Error("expected forced SetState to reset frame position")
	}
}

func TestOnCompleteFiresOnLoopOnceEnd(t *testing.T) {
	a := buildTestAnimator()
	a.SetState("attack", LoopOnce, false, false)
	completed := false
	a.OnComplete(func() { completed = true })

	a.Tick() // frame 0 -> 1
	if completed {
		t.Fatal("should not complete before reaching the last frame")
	}
	a.Tick() // frame 1 -> 2
	a.Tick() // frame 2 exhausted -> complete
	if !completed {
		t.Error("expected OnComplete to fire once the last frame is exhausted")
	}
}

func TestLoopWrapsAndNeverCompletes(t *testing.T) {
	a := buildTestAnimator()
	a.SetState("idle", LoopLoop, false, false)
	completed := false
	a.OnComplete(func() { completed = true })
	for i := 0; i < 10; i++ {
		a.Tick()
	}
	if completed {
		t.Error("LoopLoop should never fire OnComplete")
	}
}

func TestFrameCallbackBeyondStateLengthNeverFires(t *testing.T) {
	a := buildTestAnimator()
	a.SetState("idle", LoopLoop, false, false)
	fired := false
	a.OnFrame(50, func() { fired = true }, true)
	for i := 0; i < 20; i++ {
		a.Tick()
	}
	if fired {
		t.Error("expected out-of-range frame callback to never fire")
	}
}

func TestPoolAcquireReleaseReuse(t *testing.T) {
	p := NewPool()
	i1 := p.Acquire()
	i2 := p.Acquire()
	if i1 == i2 {
		t.Fatal("expected distinct indices")
	}
	p.Release(i1)
	i3 := p.Acquire()
	if i3 != i1 {
		t.Errorf("expected freed slot %d to be reused, got %d", i1, i3)
	}
	if _, ok := p.Get(i2); !ok {
		t.Error("expected untouched slot to still resolve")
	}
}
