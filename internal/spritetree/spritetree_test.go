package spritetree

import "testing"

func TestInsertRootChildAndGet(t *testing.T) {
	tr := New()
	child := tr.InsertRootChild()

	n, ok := tr.Get(child)
	if !ok {
		t.Fatal("expected inserted child to resolve")
	}
	if n.Parent != tr.Root {
		t.Error("expected child's parent to be root")
	}
}

func TestRemoveCascadesToDescendants(t *testing.T) {
	tr := New()
	a := tr.InsertRootChild()
	b := tr.InsertChild(a)
	c := tr.InsertChild(b)

	if !tr.Remove(a) {
		t.Fatal("expected Remove(a) to succeed")
	}

	if _, ok := tr.Get(a); ok {
		t.Error("expected a to be gone")
	}
	if _, ok := tr.Get(b); ok {
		t.Error("expected descendant b to be invalidated by cascade")
	}
	if _, ok := tr.Get(c); ok {
		t.Error("expected descendant c to be invalidated by cascade")
	}
}

func TestRootCannotBeRemoved(t *testing.T) {
	tr := New()
	if tr.Remove(tr.Root) {
		t.Error("expected removing the root to fail")
	}
	if _, ok := tr.Get(tr.Root); !ok {
		t.Error("root should still resolve")
	}
}

func TestInheritDepthFirstOrder(t *testing.T) {
	tr := New()
	a := tr.InsertRootChild()
	b := tr.InsertChild(a)
	tr.InsertChild(a)
	tr.InsertChild(b)

	var visited []Id
	tr.Inherit(tr.Root, 0, func(parentValue any, n *Node) any {
		visited = append(visited, n.Id)
		return parentValue.(int) + 1
	})

	if len(visited) != 5 {
		t.Fatalf("expected 5 nodes visited (root+4), got %d", len(visited))
	}
	if visited[0] != tr.Root {
		t.Error("expected depth-first walk to start at root")
	}
}

func TestRemovedIndexIsReusedWithBumpedGeneration(t *testing.T) {
	tr := New()
	a := tr.InsertRootChild()
	tr.Remove(a)
	b := tr.InsertRootChild()

	if b.Slot != a.Slot {
		t.Fatalf("expected slot reuse, got %d vs %d", a.Slot, b.Slot)
	}
	if b.Gen == a.Gen {
		t.Error("expected generation to differ after reuse")
	}
	if _, ok := tr.Get(a); ok {
		t.Error("stale Id should not resolve to the successor node")
	}
}
