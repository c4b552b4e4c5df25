package status

import "testing"

// TestFreezeThenParalyzeCancellation grounds spec.md scenario S3: apply
// Freeze(150) at frame 0, Paralyze(150) at frame 1; after the frame-1
// status phase, Freeze.remaining==149 and Paralyze is gone.
func TestFreezeThenParalyzeCancellation(t *testing.T) {
	d := New()

	d.Apply(FlagFreeze, 150)
	d.Update(false) // frame 0's status phase

	d.Apply(FlagParalyze, 150)
	d.Update(false) // frame 1's status phase

	if !d.Has(FlagFreeze) {
		t.Fatal("expected Freeze to remain active")
	}
	if d.Remaining(FlagFreeze) != 149 {
		t.Errorf("expected Freeze.remaining=149, got %d", d.Remaining(FlagFreeze))
	}
	if d.Has(FlagParalyze) {
		t.Error("expected Paralyze to be cancelled by active Freeze")
	}
}

func TestMashableStatusExtraDecrementOnJustPressed(t *testing.T) {
	d := New()
	d.Apply(FlagParalyze, 10)
	d.Update(false) // merges the new status; its first decrement is on the next Update
	d.Update(false)
	if d.Remaining(FlagParalyze) != 9 {
		t.Fatalf("expected normal decrement to 9, got %d", d.Remaining(FlagParalyze))
	}
	d.Update(true)
	if d.Remaining(FlagParalyze) != 7 {
		t.Errorf("expected mashed decrement to 7, got %d", d.Remaining(FlagParalyze))
	}
}

func TestMergeTakesMaxRemaining(t *testing.T) {
	d := New()
	d.Apply(FlagRoot, 5)
	d.Update(false) // merges the new status; its first decrement is on the next Update
	d.Update(false)
	if d.Remaining(FlagRoot) != 4 {
		t.Fatalf("expected 4, got %d", d.Remaining(FlagRoot))
	}

	d.Apply(FlagRoot, 20)
	d.Update(false)
	// existing (4 -> 3 after decrement) merges with incoming 20: max(3,20)=20
	if d.Remaining(FlagRoot) != 20 {
		t.Errorf("expected merge to take max remaining (20), got %d", d.Remaining(FlagRoot))
	}
}

func TestExpiredStatusRemovedAtPhaseEnd(t *testing.T) {
	d := New()
	d.Apply(FlagBlind, 1)
	d.Update(false) // merges the new status; its first decrement is on the next Update
	d.Update(false)
	if d.Has(FlagBlind) {
		t.Error("expected status with remaining=0 to be removed at phase end")
	}
}

func TestIsImmobileIncludesRootAndDrag(t *testing.T) {
	d := New()
	if d.IsImmobile() {
		t.Fatal("fresh director should not be immobile")
	}
	d.Apply(FlagRoot, 5)
	d.Update(false)
	if !d.IsImmobile() {
		t.Error("expected Root to make entity immobile")
	}

	d2 := New()
	d2.DragLockout = 3
	if !d2.IsImmobile() {
		t.Error("expected positive DragLockout to make entity immobile")
	}
}

func TestRemoveStatusCancelsImmediately(t *testing.T) {
	d := New()
	d.Apply(FlagConfuse, 50)
	d.Update(false)
	if !d.Has(FlagConfuse) {
		t.Fatal("expected Confuse active")
	}
	d.RemoveStatus(FlagConfuse)
	if d.Has(FlagConfuse) {
		t.Error("expected RemoveStatus to cancel immediately")
	}
}
