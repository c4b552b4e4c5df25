package action

import (
	"testing"

	"battlecore/internal/animator"
	"battlecore/internal/entity"
)

func setupAnimator(pool *animator.Pool) int {
	idx := pool.Acquire()
	a, _ := pool.Get(idx)
	a.AddState(&animator.State{Name: "idle", Frames: []animator.Frame{{Duration: 100}}})
	a.AddState(&animator.State{Name: "swing", Frames: []animator.Frame{{Duration: 1}, {Duration: 1}}})
	a.SetState("idle", animator.LoopLoop, false, false)
	return idx
}

func TestExecuteZerosHitContextDuringExecuteCallback(t *testing.T) {
	pool := animator.NewPool()
	idx := setupAnimator(pool)
	anim, _ := pool.Get(idx)
	sys := NewSystem(pool)

	owner := entity.Id{Slot: 1, Gen: 0}
	id := sys.Create(owner, "swing")
	act, _ := sys.Get(id)

	hitFlags := uint32(0xFF)
	var observedDuringExec uint32 = 0xDEAD
	act.ExecuteFn = func(a *Action) {
		observedDuringExec = hitFlags
	}

	sys.Execute(id, act, anim, &hitFlags, 0, 0)

	if observedDuringExec != 0 {
		t.Errorf("expected hit context flags zeroed during execute_callback, got %x", observedDuringExec)
	}
	if hitFlags != 0xFF {
		t.Errorf("expected hit context flags restored after execute_callback, got %x", hitFlags)
	}
	if !act.Executed {
		t.Error("expected Executed=true after Execute")
	}
}

func TestAnimationLockoutDeletesOnComplete(t *testing.T) {
	pool := animator.NewPool()
	idx := setupAnimator(pool)
	anim, _ := pool.Get(idx)
	sys := NewSystem(pool)

	owner := entity.Id{Slot: 2, Gen: 0}
	id := sys.Create(owner, "swing")
	act, _ := sys.Get(id)
	act.Lockout = LockoutAnimation

	var flags uint32
	sys.Execute(id, act, anim, &flags, 0, 0)

	if act.Deleted {
		t.Fatal("should not be deleted before animation completes")
	}
	anim.Tick() // frame 0 -> 1
	if act.Deleted {
		t.Fatal("should not be deleted mid-animation")
	}
	anim.Tick() // frame 1 exhausted -> complete
	if !act.Deleted {
		t.Error("expected Animation-lockout action to be deleted when its animator completes")
	}
}

func TestSequenceLockoutEndsWhenAllStepsComplete(t *testing.T) {
	pool := animator.NewPool()
	sys := NewSystem(pool)
	owner := entity.Id{Slot: 3, Gen: 0}
	id := sys.Create(owner, "seq")
	act, _ := sys.Get(id)
	act.Lockout = LockoutSequence
	act.Steps = []Step{
		{Fn: func(a *Action) { a.Steps[0].Completed = true }},
		{Fn: func(a *Action) { a.Steps[1].Completed = true }},
	}

	act.Tick()
	if act.Deleted {
		t.Fatal("should not complete after only the first tick (steps complete one per tick here)")
	}
	act.Tick()
	if !act.Deleted {
		t.Error("expected Sequence action to end once all steps report Completed")
	}
}

func TestAsyncLockoutEndsAfterDuration(t *testing.T) {
	pool := animator.NewPool()
	sys := NewSystem(pool)
	owner := entity.Id{Slot: 4, Gen: 0}
	id := sys.Create(owner, "async")
	act, _ := sys.Get(id)
	act.Lockout = LockoutAsync
	act.AsyncTicks = 3

	for i := 0; i < 2; i++ {
		act.Tick()
		if act.Deleted {
			t.Fatalf("should not be deleted before %d ticks", act.AsyncTicks)
		}
	}
	act.Tick()
	if !act.Deleted {
		t.Error("expected Async action to end after its duration elapses")
	}
}

func TestStartQueuedRespectsSyncExclusivity(t *testing.T) {
	pool := animator.NewPool()
	sys := NewSystem(pool)
	owner := entity.Id{Slot: 5, Gen: 0}

	first := sys.Create(owner, "a")
	f1, _ := sys.Get(first)
	f1.Lockout = LockoutAnimation
	sys.Enqueue(first)

	second := sys.Create(owner, "b")
	sys.Enqueue(second)

	var started []Id
	sys.StartQueued([]entity.Id{owner}, func(entity.Id) bool { return false }, func(id Id) {
		started = append(started, id)
	})

	if len(started) != 1 || started[0] != first {
		t.Fatalf("expected only the first queued sync action to start, got %v", started)
	}

	// Second call: entity now has an active sync action, so the remaining
	// queued action should not start.
	var startedAgain []Id
	sys.StartQueued([]entity.Id{owner}, func(entity.Id) bool { return true }, func(id Id) {
		startedAgain = append(startedAgain, id)
	})
	if len(startedAgain) != 0 {
		t.Errorf("expected no further sync action to start while one is active, got %v", startedAgain)
	}
}

func TestAsyncActionsAlwaysStart(t *testing.T) {
	pool := animator.NewPool()
	sys := NewSystem(pool)
	owner := entity.Id{Slot: 6, Gen: 0}

	asyncAction := sys.Create(owner, "async")
	a, _ := sys.Get(asyncAction)
	a.Lockout = LockoutAsync
	sys.Enqueue(asyncAction)

	var started []Id
	sys.StartQueued([]entity.Id{owner}, func(entity.Id) bool { return true }, func(id Id) {
		started = append(started, id)
	})
	if len(started) != 1 {
		t.Error("expected async action to start even though a sync action is active")
	}
}
