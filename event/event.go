// Package event implements the per-worker event bus that carries
// out-of-band Pushed/Pulled/EndOfScope/Cancel signals between channels
// and the scheduler (spec.md §4.3, §4.8).
package event

import (
	"github.com/graphscope/pegasus-go/databatch"
	"github.com/graphscope/pegasus-go/tag"
)

// Kind enumerates the four event shapes the bus carries.
type Kind int

const (
	// Pushed is raised by a channel's push wrapper each time it
	// forwards a batch, so flow control can track downstream pressure.
	Pushed Kind = iota
	// Pulled is raised by a channel's pull wrapper each time an
	// operator consumes a batch.
	Pulled
	// EndOfScope is raised when a channel (or the cross-worker IPC
	// layer standing in for one) determines a scope has closed for a
	// given source worker.
	EndOfScope
	// Cancel propagates a downstream cancellation request upstream so
	// producers stop producing for a scope.
	Cancel
)

func (k Kind) String() string {
	switch k {
	case Pushed:
		return "pushed"
	case Pulled:
		return "pulled"
	case EndOfScope:
		return "end_of_scope"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is one out-of-band signal. Which fields are meaningful depends
// on Kind: Pushed/Pulled use Count, EndOfScope uses End, Cancel uses
// none beyond Tag/Channel/Target.
type Event struct {
	Kind Kind

	// ChannelID identifies the channel that raised the event.
	ChannelID int

	// Target is the operator index the event is destined for — the
	// consuming side of ChannelID for Pushed/EndOfScope, the producing
	// side for Pulled and Cancel.
	Target int

	Tag   tag.Tag
	Count uint64

	End *databatch.EndOfScope
}

// Handler processes one Event. Handlers run on the scheduler's single
// worker goroutine — they must not block.
type Handler func(Event)
