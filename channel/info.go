// Package channel implements the four typed edge kinds a dataflow plan
// connects operators with (spec.md §4.3): Pipeline, Exchange, Broadcast
// and Aggregate. All four share the same Push/Pull contract so the
// operator kernel never special-cases the kind it is talking to.
package channel

import "fmt"

// Kind names one of the four routing strategies a channel can use.
type Kind int

const (
	KindPipeline Kind = iota
	KindExchange
	KindBroadcast
	KindAggregate
)

func (k Kind) String() string {
	switch k {
	case KindPipeline:
		return "pipeline"
	case KindExchange:
		return "exchange"
	case KindBroadcast:
		return "broadcast"
	case KindAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// ID uniquely identifies a channel within a job's dataflow plan.
type ID int

// Info describes one channel's shape, mirroring spec.md §3's
// ChannelInfo: `{ id, scope_level, source_port, target_port,
// source_peers, target_peers, kind }`.
type Info struct {
	ID          ID
	ScopeLevel  int
	SourcePort  int
	TargetPort  int
	SourcePeers int
	TargetPeers int
	Kind        Kind

	// AggregateTarget is the fixed peer index every source pushes to.
	// Only meaningful when Kind == KindAggregate.
	AggregateTarget int
}

func (i Info) String() string {
	return fmt.Sprintf("channel(id=%d kind=%s port=%d->%d peers=%d->%d)",
		i.ID, i.Kind, i.SourcePort, i.TargetPort, i.SourcePeers, i.TargetPeers)
}
