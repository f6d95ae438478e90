package databatch

import "math/bits"

// maxPeers bounds how many peers one Weight bitset can address. A single
// uint64 covers every job size the runtime in spec.md targets; jobs
// wider than that shard peers across multiple channels instead.
const maxPeers = 64

// Weight is a bitset over worker peers plus an All sentinel. It tracks,
// per spec.md §3's EndOfScope contract, which producers have been heard
// from for a given (channel, scope) pair.
//
// Per spec.md §9's resolved open question, All means "all peers of the
// producing port" — not some other exhaustive-producer-set definition —
// and every channel kind enforces that uniformly.
type Weight struct {
	all  bool
	bits uint64
}

// AllWeight returns the sentinel meaning every peer of the producing
// port has been accounted for.
func AllWeight() Weight { return Weight{all: true} }

// SingleWeight returns a Weight naming exactly one peer index.
func SingleWeight(peer int) Weight {
	if peer < 0 || peer >= maxPeers {
		panic("databatch: peer index out of range for Weight")
	}
	return Weight{bits: 1 << uint(peer)}
}

// EmptyWeight is the zero value: no peers accounted for.
func EmptyWeight() Weight { return Weight{} }

// IsAll reports whether this Weight is the All sentinel.
func (w Weight) IsAll() bool { return w.all }

// Union returns a Weight covering both w and other. All absorbs
// anything it is unioned with.
func (w Weight) Union(other Weight) Weight {
	if w.all || other.all {
		return AllWeight()
	}
	return Weight{bits: w.bits | other.bits}
}

// Contains reports whether peer is accounted for by w.
func (w Weight) Contains(peer int) bool {
	if w.all {
		return true
	}
	if peer < 0 || peer >= maxPeers {
		return false
	}
	return w.bits&(1<<uint(peer)) != 0
}

// Count returns the number of distinct peers w covers. It is meaningless
// when IsAll is true without also knowing peers_total — callers needing
// an exact count for All must pass peersTotal to CoversAll instead.
func (w Weight) Count() int {
	if w.all {
		return -1
	}
	return bits.OnesCount64(w.bits)
}

// CoversAll reports whether w accounts for every peer among
// peersTotal producers — either because w is the All sentinel, or
// because its bitset names every index in [0, peersTotal).
func (w Weight) CoversAll(peersTotal int) bool {
	if w.all {
		return true
	}
	if peersTotal <= 0 || peersTotal > maxPeers {
		return false
	}
	full := uint64(1)<<uint(peersTotal) - 1
	return w.bits&full == full
}
