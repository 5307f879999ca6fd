package rules

import "fmt"

// ActionKind discriminates the closed action union.
type ActionKind string

const (
	ActIdle           ActionKind = "idle"
	ActWorkAt         ActionKind = "work_at"
	ActReturnToHub    ActionKind = "return_to_hub"
	ActGatherHere     ActionKind = "gather_here"
	ActFinishTask     ActionKind = "finish_task"
	ActAssignSequence ActionKind = "assign_sequence" // macro layer only
	ActFleeToHub      ActionKind = "flee_to_hub"
)

// ValidActionKinds is the closed, versioned kind set.
var ValidActionKinds = map[ActionKind]bool{
	ActIdle:           true,
	ActWorkAt:         true,
	ActReturnToHub:    true,
	ActGatherHere:     true,
	ActFinishTask:     true,
	ActAssignSequence: true,
	ActFleeToHub:      true,
}

// Action is the effect a fired rule requests. Payload fields by Kind:
//
//	idle            -
//	work_at         Node (destination node id)
//	return_to_hub   -
//	gather_here     Gatherable (index into the node's gatherables)
//	finish_task     -
//	assign_sequence Sequence (task sequence id; macro only)
//	flee_to_hub     -
type Action struct {
	Kind       ActionKind `json:"kind"`
	Sequence   string     `json:"sequence,omitempty"`
	Node       string     `json:"node,omitempty"`
	Gatherable int        `json:"gatherable,omitempty"`
}

// Detail renders the action for decision-log entries.
func (a Action) Detail() string {
	switch a.Kind {
	case ActAssignSequence:
		return fmt.Sprintf("assign_sequence(%s)", a.Sequence)
	case ActWorkAt:
		return fmt.Sprintf("work_at(%s)", a.Node)
	case ActGatherHere:
		return fmt.Sprintf("gather_here(%d)", a.Gatherable)
	default:
		return string(a.Kind)
	}
}
