// Package spritetree implements the per-entity sprite node tree (C4).
//
// Grounded on the generational-index arena pattern used throughout this
// module (internal/entity.Store) and on the teacher's effects.go ring
// buffers for "fixed small arena, index-addressed, no pointer aliasing"
// style, generalized from a component set into a parent-pointing node
// graph per spec.md §4.3.
package spritetree

// Id addresses a node within one Tree's arena.
type Id struct {
	Slot uint32
	Gen  uint32
}

// Node is one sprite-tree entry: a handle (opaque to the simulation —
// rendering owns what a sprite/animator handle actually points to),
// visibility, and a parent/children linkage.
type Node struct {
	Id       Id
	Parent   Id
	HasParent bool
	Children []Id

	Visible bool
	Handle  int // opaque sprite/animator resource handle
}

type slot struct {
	gen  uint32
	node *Node
}

// Tree is one entity's sprite-tree arena with a single root.
type Tree struct {
	slots []slot
	free  []uint32
	Root  Id
}

// New creates a tree with a single root node.
func New() *Tree {
	t := &Tree{}
	t.Root = t.alloc(Id{}, false)
	return t
}

func (t *Tree) alloc(parent Id, hasParent bool) Id {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot{})
	}
	gen := t.slots[idx].gen
	id := Id{Slot: idx, Gen: gen}
	t.slots[idx] = slot{gen: gen, node: &Node{Id: id, Parent: parent, HasParent: hasParent, Visible: true}}
	return id
}

// Get resolves an Id to its Node, or (nil, false) if removed/invalid.
func (t *Tree) Get(id Id) (*Node, bool) {
	if int(id.Slot) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[id.Slot]
	if s.node == nil || s.gen != id.Gen {
		return nil, false
	}
	return s.node, true
}

// InsertRootChild inserts a new node as a child of the root.
func (t *Tree) InsertRootChild() Id {
	return t.InsertChild(t.Root)
}

// InsertChild inserts a new node as a child of parent. Returns the zero Id
// if parent doesn't resolve.
func (t *Tree) InsertChild(parent Id) Id {
	p, ok := t.Get(parent)
	if !ok {
		return Id{}
	}
	child := t.alloc(parent, true)
	p.Children = append(p.Children, child)
	return child
}

// Remove deletes a non-root node and cascades to all its descendants,
// bumping generations so any held Id for a descendant now resolves to
// "not found", per spec.md §4.3.
func (t *Tree) Remove(id Id) bool {
	if id == t.Root {
		return false // root cannot be removed
	}
	n, ok := t.Get(id)
	if !ok {
		return false
	}

	if parent, ok := t.Get(n.Parent); ok {
		parent.Children = removeId(parent.Children, id)
	}

	t.removeSubtree(id)
	return true
}

func (t *Tree) removeSubtree(id Id) {
	n, ok := t.Get(id)
	if !ok {
		return
	}
	for _, child := range n.Children {
		t.removeSubtree(child)
	}
	t.slots[id.Slot].gen++
	t.slots[id.Slot].node = nil
	t.free = append(t.free, id.Slot)
}

func removeId(ids []Id, target Id) []Id {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Inherit walks the tree in deterministic depth-first order starting at
// start, passing seed down from parent to child via fn, per spec.md §4.3's
// "inherit" operation. fn receives the parent's value and the current
// node, and returns the value to pass to this node's children.
func (t *Tree) Inherit(start Id, seed any, fn func(parentValue any, n *Node) any) {
	n, ok := t.Get(start)
	if !ok {
		return
	}
	value := fn(seed, n)
	for _, child := range n.Children {
		t.Inherit(child, value, fn)
	}
}

// Clone deep-copies the tree for snapshotting.
func (t *Tree) Clone() *Tree {
	out := &Tree{Root: t.Root, free: append([]uint32(nil), t.free...)}
	out.slots = make([]slot, len(t.slots))
	for i, s := range t.slots {
		ns := slot{gen: s.gen}
		if s.node != nil {
			nn := *s.node
			nn.Children = append([]Id(nil), s.node.Children...)
			ns.node = &nn
		}
		out.slots[i] = ns
	}
	return out
}
