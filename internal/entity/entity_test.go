package entity

import "testing"

func TestCreateYieldsPendingSpawn(t *testing.T) {
	s := New()
	id := s.Create()

	b, ok := s.Get(id)
	if !ok {
		t.Fatal("Get returned not-found for freshly created entity")
	}
	if !b.PendingSpawn {
		t.Error("expected PendingSpawn=true on creation")
	}
	if b.Spawned {
		t.Error("expected Spawned=false on creation")
	}
}

func TestDeleteThenCompactInvalidatesId(t *testing.T) {
	s := New()
	id := s.Create()

	if !s.Delete(id) {
		t.Fatal("Delete returned false for live entity")
	}
	if _, ok := s.Get(id); !ok {
		t.Error("expected entity to still resolve before Compact (deferred free)")
	}

	s.Compact()

	if _, ok := s.Get(id); ok {
		t.Error("expected Get to fail after Compact frees the slot")
	}
}

func TestStaleGenerationNeverResolvesToSuccessor(t *testing.T) {
	s := New()
	first := s.Create()
	s.Delete(first)
	s.Compact()

	second := s.Create()
	if second.Slot != first.Slot {
		t.Fatalf("expected slot reuse, got slots %d and %d", first.Slot, second.Slot)
	}
	if second.Gen == first.Gen {
		t.Fatal("expected generation to differ after slot reuse")
	}

	if _, ok := s.Get(first); ok {
		t.Error("stale Id resolved to the successor entity instead of not-found")
	}
	if _, ok := s.Get(second); !ok {
		t.Error("fresh Id with bumped generation should resolve")
	}
}

func TestSetRoleRejectsConflictingRole(t *testing.T) {
	s := New()
	id := s.Create()

	if err := s.SetRole(id, RolePlayer); err != nil {
		t.Fatalf("unexpected error setting first role: %v", err)
	}
	if err := s.SetRole(id, RoleObstacle); err == nil {
		t.Error("expected error attaching a second, conflicting role")
	}
}

func TestEachVisitsAscendingSlotOrder(t *testing.T) {
	s := New()
	var ids []Id
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Create())
	}

	var seen []uint32
	s.Each(func(b *Base) {
		seen = append(seen, b.Id.Slot)
	})

	for i, slot := range seen {
		if slot != ids[i].Slot {
			t.Fatalf("expected ascending slot order, got %v", seen)
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := New()
	id := s.Create()
	b, _ := s.Get(id)
	b.X = 3

	clone := s.Clone()
	cb, ok := clone.Get(id)
	if !ok {
		t.Fatal("clone missing entity")
	}
	if cb.X != 3 {
		t.Fatalf("expected cloned X=3, got %d", cb.X)
	}

	cb.X = 99
	if b.X != 3 {
		t.Error("mutating clone affected original store")
	}
}
