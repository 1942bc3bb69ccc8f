package mapper

import "github.com/hupe1980/grgmap/model"

// Outcome is the terminal decision taken for a single mutation.
type Outcome uint8

const (
	// OutcomeEmpty means the mutation had no carriers and left no trace.
	OutcomeEmpty Outcome = iota
	// OutcomeSingleton means the mutation was attached to a sample leaf.
	OutcomeSingleton
	// OutcomeExactReuse means an existing node with the same carriers was reused.
	OutcomeExactReuse
	// OutcomePartialReuse means a new node was built on top of a subset node.
	OutcomePartialReuse
	// OutcomeNewNode means a new node with direct sample edges was created.
	OutcomeNewNode
)

func (o Outcome) String() string {
	switch o {
	case OutcomeEmpty:
		return "empty"
	case OutcomeSingleton:
		return "singleton"
	case OutcomeExactReuse:
		return "exact_reuse"
	case OutcomePartialReuse:
		return "partial_reuse"
	case OutcomeNewNode:
		return "new_node"
	default:
		return "unknown"
	}
}

// Outcomes lists every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{OutcomeEmpty, OutcomeSingleton, OutcomeExactReuse, OutcomePartialReuse, OutcomeNewNode}
}

// Result describes how a single mutation was mapped.
type Result struct {
	Outcome Outcome
	// Node the mutation was attached to. model.InvalidNodeID for empty mutations.
	Node model.NodeID
	// Coverage is the number of distinct carriers.
	Coverage int
	// Candidates is the number of index candidates considered.
	Candidates int
}

// Observer receives one callback per mapped mutation. Implementations must
// be safe for concurrent use.
type Observer interface {
	ObserveOutcome(o Outcome, coverage int)
}

// NoopObserver ignores every callback.
type NoopObserver struct{}

// ObserveOutcome implements Observer.
func (NoopObserver) ObserveOutcome(Outcome, int) {}
