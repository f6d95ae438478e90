package databatch

import "github.com/graphscope/pegasus-go/tag"

// EndOfScope announces that no further batches for Tag will arrive from
// the producers named by SourceWeight. TotalSend is the number of data
// items SourceWeight has sent under this scope so far — the receiver
// cross-checks TotalSend against what it actually counted to detect a
// dropped batch (spec.md §3's invariant on EndOfScope convergence).
type EndOfScope struct {
	Tag          tag.Tag
	SourceWeight Weight
	TotalSend    uint64

	// UpdateWeight, when present, narrows or extends SourceWeight for a
	// scope that is still converging (e.g. an Aggregate channel learning
	// late that a peer it expected to hear from was itself cancelled).
	UpdateWeight *Weight
}

// Merge combines another EndOfScope observation for the same Tag into
// this one, per spec.md §3's convergence rule: union of SourceWeight
// across all received observations, sum of TotalSend.
func (e EndOfScope) Merge(other EndOfScope) EndOfScope {
	merged := e
	merged.SourceWeight = e.SourceWeight.Union(other.SourceWeight)
	merged.TotalSend += other.TotalSend
	if other.UpdateWeight != nil {
		merged.UpdateWeight = other.UpdateWeight
	}
	return merged
}

// Closed reports whether the scope should be considered closed given
// peersTotal expected producers and receivedCount items actually
// counted by the receiver — spec.md §3's closing condition: either
// SourceWeight alone already names every peer (the All sentinel, which
// a forwarding operator passes through without re-deriving a per-scope
// send count of its own), or every expected producer has been heard
// from AND the sender's declared TotalSend matches what was counted.
func (e EndOfScope) Closed(peersTotal int, receivedCount uint64) bool {
	if e.SourceWeight.IsAll() {
		return true
	}
	return e.SourceWeight.CoversAll(peersTotal) && e.TotalSend == receivedCount
}
