package sim

// EventKind identifies a state-change event produced by the mechanical
// tick. The engine routes these to the macro/micro trigger model.
type EventKind string

const (
	EventArrived            EventKind = "arrived_at_node"
	EventInventoryChanged   EventKind = "inventory_changed"
	EventBankChanged        EventKind = "bank_changed"
	EventSkillLeveled       EventKind = "skill_leveled"
	EventRunnerStateChanged EventKind = "runner_state_changed"
	EventDepositComplete    EventKind = "deposit_complete"
)

// Event records one state change during a tick. Node carries the node id
// for arrival events; Item and Skill are filled where they apply.
type Event struct {
	Kind     EventKind
	RunnerID string
	Node     string
	Item     string
	Skill    int
}
