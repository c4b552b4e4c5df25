// Package defense implements the Defense Pipeline (C7): a priority-ordered,
// script-driven gate on incoming damage/status.
//
// Grounded on the teacher's CombatConstants/ComboDefinition pattern
// (internal/game/combat.go) of named, ordered game-balance tables, here
// generalized from a flat slice of combo stats into a priority-ordered rule
// list with script-backed callbacks, and on original_source/defense_rule.rs
// for the two-pass Trap/normal-rule structure (see DESIGN.md).
package defense

import "sort"

// Priority is the total order defense rules sort by. Trap is evaluated in a
// separate, earlier pass and never interleaved with the others (spec.md
// §4.6, original_source/defense_rule.rs).
type Priority int

const (
	PriorityTrap Priority = iota
	PriorityBarrier
	PriorityBody
	PriorityAny
	PriorityLast
)

// Attributes carried on an incoming attack, transformed in place by the
// pipeline's filter_statuses pass.
type Attributes struct {
	Damage    int
	Flags     uint32
	NoCounter bool // the NO_COUNTER flag: scripts cannot clear this
}

// Judge is the shared mutable record passed to every rule's can_block
// callback during one pipeline run.
type Judge struct {
	ImpactBlocked bool
	DamageBlocked bool
}

// Rule is one entry of a Living's defense_rules list.
type Rule struct {
	Priority      Priority
	InsertionSeq  int
	CollisionOnly bool

	CanBlock      func(j *Judge, attacker, defender int, attrs *Attributes)
	FilterStatus  func(attrs *Attributes)
	OnReplace     func(replaced *Rule)

	// Properties is the script-side table reference; #replaced is toggled
	// on it by Insert before the replaced rule's OnReplace runs.
	Properties map[string]any
}

// Pipeline holds one entity's ordered rule list plus its separately tracked
// trap rules.
type Pipeline struct {
	rules     []*Rule
	trapRules []*Rule
	nextSeq   int
}

// New creates an empty defense pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Insert adds a rule following spec.md §4.6's identical-priority semantics:
// a rule at the same priority replaces the existing one in place (firing
// its OnReplace callback with #replaced=true set first); a rule of greater
// priority is inserted just before the first rule found; lower priority
// continues scanning. Priority Last always appends.
func (p *Pipeline) Insert(r *Rule) {
	r.InsertionSeq = p.nextSeq
	p.nextSeq++

	if r.Priority == PriorityTrap {
		p.trapRules = append(p.trapRules, r)
		return
	}

	if r.Priority == PriorityLast {
		p.rules = append(p.rules, r)
		return
	}

	for i, existing := range p.rules {
		if existing.Priority == r.Priority {
			if existing.Properties != nil {
				existing.Properties["#replaced"] = true
			}
			if existing.OnReplace != nil {
				existing.OnReplace(existing)
			}
			p.rules[i] = r
			return
		}
		if existing.Priority > r.Priority {
			p.rules = append(p.rules, nil)
			copy(p.rules[i+1:], p.rules[i:])
			p.rules[i] = r
			return
		}
	}
	p.rules = append(p.rules, r)
}

// sortStable orders rules by (priority, insertion_order), per spec.md §4.6
// step 1. Insert already maintains this order incrementally, but
// sortStable is kept for callers that change a rule's Priority field
// directly.
func (p *Pipeline) sortStable() {
	sort.SliceStable(p.rules, func(i, j int) bool {
		if p.rules[i].Priority != p.rules[j].Priority {
			return p.rules[i].Priority < p.rules[j].Priority
		}
		return p.rules[i].InsertionSeq < p.rules[j].InsertionSeq
	})
}

// Evaluate runs one full pipeline pass against attrs for the given
// attacker/defender pair and collision flag, per spec.md §4.6 steps 1-4.
// It returns the judge record and the (possibly modified) attributes.
func (p *Pipeline) Evaluate(attacker, defender int, collision bool, attrs Attributes) (Judge, Attributes) {
	j := Judge{}

	for _, r := range p.trapRules {
		if r.CollisionOnly != collision {
			continue
		}
		if r.CanBlock != nil {
			r.CanBlock(&j, attacker, defender, &attrs)
		}
	}

	p.sortStable()
	for _, r := range p.rules {
		if r.CollisionOnly != collision {
			continue
		}
		if r.CanBlock != nil {
			r.CanBlock(&j, attacker, defender, &attrs)
		}
	}

	noCounter := attrs.NoCounter
	for _, r := range p.allRulesInOrder() {
		if r.FilterStatus != nil {
			r.FilterStatus(&attrs)
		}
	}
	if attrs.Damage < 0 {
		attrs.Damage = 0
	}
	attrs.NoCounter = noCounter

	if j.DamageBlocked {
		attrs.Damage = 0
	}
	if j.ImpactBlocked {
		attrs.Flags = 0
	}

	return j, attrs
}

// allRulesInOrder returns trap rules followed by the priority-sorted
// normal rules, the order filter_statuses scripts run in.
func (p *Pipeline) allRulesInOrder() []*Rule {
	out := make([]*Rule, 0, len(p.trapRules)+len(p.rules))
	out = append(out, p.trapRules...)
	out = append(out, p.rules...)
	return out
}

// Rules exposes the current priority-sorted normal rule list (read-only use,
// e.g. snapshot hashing).
func (p *Pipeline) Rules() []*Rule {
	p.sortStable()
	return p.rules
}

// TrapRules exposes the trap-pass rule list in insertion order.
func (p *Pipeline) TrapRules() []*Rule {
	return p.trapRules
}

// Clone deep-copies the pipeline's rule slices (not the rules themselves,
// which are script-owned and shared by reference, matching the teacher's
// convention of cloning containers but not their script-bound payloads).
func (p *Pipeline) Clone() *Pipeline {
	c := &Pipeline{nextSeq: p.nextSeq}
	c.rules = append([]*Rule(nil), p.rules...)
	c.trapRules = append([]*Rule(nil), p.trapRules...)
	return c
}
