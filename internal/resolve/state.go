package resolve

import (
	"spreader/internal/cfgerr"
	"spreader/internal/field"
)

// State is the lifecycle of one field within a pass.
type State int

const (
	Unset State = iota
	PromptIssued
	Validating
	Resolved
	Rejected
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case PromptIssued:
		return "prompt_issued"
	case Validating:
		return "validating"
	case Resolved:
		return "resolved"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Observer is notified of every validation outcome. Implementations must not
// block.
type Observer interface {
	FieldResolved(key field.Key)
	FieldRejected(key field.Key, kind cfgerr.Kind)
}

type nopObserver struct{}

func (nopObserver) FieldResolved(field.Key)              {}
func (nopObserver) FieldRejected(field.Key, cfgerr.Kind) {}
