package timefreeze

import "testing"

// TestCounterWindowChaining grounds spec.md scenario S6: P1 freezes at
// frame 0 (counter window 60), P2 counters at frame 30. Expect a nested
// entry with chain_count=1, countering=true; P1's entry resumes once P2's
// resolves.
func TestCounterWindowChaining(t *testing.T) {
	tr := New(60)

	tr.Push(1, 100, 200) // P1's freeze card, long driving duration

	for i := 0; i < 30; i++ {
		if tr.Tick() {
			t.Fatal("P1's entry should not resolve within 30 ticks")
		}
	}

	nested := tr.Push(2, 200, 10) // P2 counters within the window
	if !nested.Countering {
		t.Error("expected P2's entry to be marked countering")
	}
	if nested.ChainCount != 1 {
		t.Errorf("expected chain_count=1, got %d", nested.ChainCount)
	}
	if tr.Depth() != 2 {
		t.Fatalf("expected nested stack depth 2, got %d", tr.Depth())
	}

	for i := 0; i < 9; i++ {
		if tr.Tick() {
			t.Fatal("P2's entry should not resolve early")
		}
	}
	if !tr.Tick() {
		t.Fatal("expected P2's entry to resolve after its duration")
	}

	top, ok := tr.Top()
	if !ok {
		t.Fatal("expected P1's entry to resume after P2's resolves")
	}
	if top.Team != 1 {
		t.Errorf("expected resumed entry to belong to team 1, got %d", top.Team)
	}
}

func TestPushOutsideWindowStartsFreshChain(t *testing.T) {
	tr := New(5)
	tr.Push(1, 1, 100)
	for i := 0; i < 10; i++ {
		tr.Tick()
	}
	e := tr.Push(2, 2, 10)
	if e.Countering {
		t.Error("expected push outside the counter window to not be marked countering")
	}
	if e.ChainCount != 0 {
		t.Errorf("expected chain_count=0 outside the window, got %d", e.ChainCount)
	}
}

func TestOnFreezeEnterFiresOnEveryPush(t *testing.T) {
	tr := New(60)
	var entered []int
	tr.OnFreezeEnter = func(team int) { entered = append(entered, team) }

	tr.Push(1, 1, 100)
	tr.Push(2, 2, 10)

	if len(entered) != 2 || entered[0] != 1 || entered[1] != 2 {
		t.Errorf("expected OnFreezeEnter to fire for both pushes in order, got %v", entered)
	}
}

func TestActiveReflectsStackState(t *testing.T) {
	tr := New(60)
	if tr.Active() {
		t.Fatal("fresh tracker should not be active")
	}
	tr.Push(1, 1, 1)
	if !tr.Active() {
		t.Error("expected tracker to be active after Push")
	}
	tr.Tick()
	if tr.Active() {
		t.Error("expected tracker to be inactive after its only entry resolves")
	}
}
