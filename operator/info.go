package operator

import "github.com/graphscope/pegasus-go/tag"

// Info mirrors spec.md §3's OperatorInfo: `{ index, name, scope_level,
// peers, inputs[], outputs[] }`. Inputs/Outputs name the channel IDs
// wired to this operator's ports.
type Info struct {
	Index      int
	Name       string
	ScopeLevel int
	Peers      int
	Inputs     []int
	Outputs    []int
}

// Core is the trait spec.md §4.4 calls OperatorCore: user logic plugged
// into the scheduler. Concrete combinators (package dataflow) implement
// this directly over their own typed InputHandle/OutputHandle fields —
// Go's lack of existential generics makes a single generic Operator[I,O]
// wrapper awkward for operators with heterogeneous port types (merge,
// apply), so the kernel machinery here is the handles and sessions, and
// Core is the seam the scheduler calls through.
type Core interface {
	Info() Info

	// OnReceive consumes ready input batches and produces outputs. It
	// returns Blocked if any output push could not complete, Failed if
	// user logic errored, Done otherwise.
	OnReceive() Signal

	// OnNotify fires once a given input scope has closed at every
	// source (spec.md §4.4's end-of-scope emission rule).
	OnNotify(scope tag.Tag) Signal

	// OnCancel fires when a downstream consumer cancels scope; the core
	// propagates the cancel to its own inputs.
	OnCancel(scope tag.Tag)
}
