// Package tag implements the hierarchical scope addressing used by every
// other component of the dataflow runtime: a Tag names the iteration
// scope a MicroBatch, channel, or operator state belongs to.
package tag

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxDepth bounds how many nested scopes (iterate/apply) a job may open.
// The original runtime keeps this small (typically <= 4); exceeding it
// is a programming error, not a runtime condition to recover from.
const MaxDepth = 4

// inlineLen is how many counters live in the Tag value itself. It
// equals MaxDepth, so every valid tag fits inline and no Tag allocates.
const inlineLen = MaxDepth

// Tag is an ordered, bounded-depth sequence of unsigned counters
// addressing a scope. The zero value is Root.
//
// Tag is a value type: copying a Tag copies its addressing, never its
// associated state. Two Tags compare equal iff their counter sequences
// are identical.
type Tag struct {
	len     uint8
	counter [inlineLen]uint32
}

// Root is the empty tag: the whole job, depth 0.
var Root = Tag{}

// Child extends t by one counter k. It panics if t is already at
// MaxDepth — this is the "invariant-checked optimization" spec.md calls
// for: a wrong-depth tag is a programming error, never recovered from.
func (t Tag) Child(k uint32) Tag {
	if int(t.len) >= MaxDepth {
		panic(fmt.Sprintf("tag: depth exceeds MaxDepth=%d", MaxDepth))
	}
	next := t
	next.counter[t.len] = k
	next.len = t.len + 1
	return next
}

// Parent truncates t by one counter. Calling Parent on Root panics.
func (t Tag) Parent() Tag {
	if t.len == 0 {
		panic("tag: Parent of Root")
	}
	next := t
	next.len--
	next.counter[next.len] = 0
	return next
}

// Advance increments only the last counter; it does not touch the
// prefix. Calling Advance on Root panics (Root has no "last" counter).
func (t Tag) Advance() Tag {
	if t.len == 0 {
		panic("tag: Advance of Root")
	}
	next := t
	next.counter[t.len-1]++
	return next
}

// Len returns the depth of the tag (0 for Root).
func (t Tag) Len() int { return int(t.len) }

// Current returns the last counter and true, or (0, false) for Root.
func (t Tag) Current() (uint32, bool) {
	if t.len == 0 {
		return 0, false
	}
	return t.counter[t.len-1], true
}

// At returns the counter at depth i (0-indexed, i < Len()).
func (t Tag) At(i int) uint32 {
	if i < 0 || i >= int(t.len) {
		panic("tag: index out of range")
	}
	return t.counter[i]
}

// IsAncestorOf reports whether t is a strict prefix of other — i.e. t is
// an ancestor scope of other. Root is the ancestor of every non-Root tag.
func (t Tag) IsAncestorOf(other Tag) bool {
	if t.len >= other.len {
		return false
	}
	for i := uint8(0); i < t.len; i++ {
		if t.counter[i] != other.counter[i] {
			return false
		}
	}
	return true
}

// CoveredBy reports whether t equals other or other is an ancestor of t —
// used by the channels to decide whether a cancel on `other` also
// applies to the more specific scope `t` (spec.md §9's recovered
// eq_or_ancestor semantics).
func (t Tag) CoveredBy(other Tag) bool {
	return t == other || other.IsAncestorOf(t)
}

// Equal reports structural equality. Tag already supports == directly
// since it is a plain comparable struct; Equal exists for readability at
// call sites that also compare through an interface.
func (t Tag) Equal(other Tag) bool { return t == other }

// String renders the tag as dot-separated counters, e.g. "2.0.5", or
// "root" for the empty tag. Used only for logs/traces.
func (t Tag) String() string {
	if t.len == 0 {
		return "root"
	}
	parts := make([]string, t.len)
	for i := uint8(0); i < t.len; i++ {
		parts[i] = strconv.FormatUint(uint64(t.counter[i]), 10)
	}
	return strings.Join(parts, ".")
}

// hashKey returns a cheap, collision-resistant-enough key for use as a
// Go map key or hash input. Two equal Tags always produce equal keys;
// distinct Tags of equal length rarely collide in practice given the
// small counter ranges used by one job.
func (t Tag) hashKey() uint64 {
	var h uint64 = 1469598103934665603 // FNV-1a offset basis
	h ^= uint64(t.len)
	h *= 1099511628211
	for i := uint8(0); i < t.len; i++ {
		h ^= uint64(t.counter[i])
		h *= 1099511628211
	}
	return h
}

// HashKey exposes hashKey for channel routing (Exchange(h) wants a cheap
// numeric key derived from the scope as well as the item).
func (t Tag) HashKey() uint64 { return t.hashKey() }
