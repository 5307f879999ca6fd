package rules

import "fmt"

// ConditionKind discriminates the closed condition union.
type ConditionKind string

const (
	CondAlways            ConditionKind = "always"
	CondInventoryFull     ConditionKind = "inventory_full"
	CondInventorySlots    ConditionKind = "inventory_slots"
	CondInventoryContains ConditionKind = "inventory_contains"
	CondBankContains      ConditionKind = "bank_contains"
	CondSkillLevel        ConditionKind = "skill_level"
	CondAtNode            ConditionKind = "at_node"
	CondRunnerStateIs     ConditionKind = "runner_state_is"
	CondSelfHP            ConditionKind = "self_hp"
)

// ValidConditionKinds is the closed, versioned kind set. Combat variants
// extend this map and the Evaluate switch when they land.
var ValidConditionKinds = map[ConditionKind]bool{
	CondAlways:            true,
	CondInventoryFull:     true,
	CondInventorySlots:    true,
	CondInventoryContains: true,
	CondBankContains:      true,
	CondSkillLevel:        true,
	CondAtNode:            true,
	CondRunnerStateIs:     true,
	CondSelfHP:            true,
}

// Condition is one boolean check over live state. Immutable value type;
// which payload fields are meaningful depends on Kind:
//
//	always            -
//	inventory_full    -
//	inventory_slots   Op, Value (free slots)
//	inventory_contains Item, Op, Value
//	bank_contains     Item, Op, Value
//	skill_level       Enum (skill id), Op, Value
//	at_node           Item (node id)
//	runner_state_is   Enum (state id)
//	self_hp           Op, Value
type Condition struct {
	Kind  ConditionKind `json:"kind"`
	Op    Operator      `json:"op"`
	Value int           `json:"value"`
	Item  string        `json:"item,omitempty"`
	Enum  int           `json:"enum,omitempty"`
}

// Always is the unconditional terminal condition.
func Always() Condition {
	return Condition{Kind: CondAlways}
}

// Evaluate checks the condition against live state. Pure: no side
// effects, no memoization, nothing read outside the view.
func Evaluate(c Condition, v StateView) bool {
	switch c.Kind {
	case CondAlways:
		return true
	case CondInventoryFull:
		return v.InventoryFull()
	case CondInventorySlots:
		return c.Op.Compare(v.InventoryFreeSlots(), c.Value)
	case CondInventoryContains:
		return c.Op.Compare(v.InventoryCount(c.Item), c.Value)
	case CondBankContains:
		return c.Op.Compare(v.BankCount(c.Item), c.Value)
	case CondSkillLevel:
		return c.Op.Compare(v.SkillLevel(c.Enum), c.Value)
	case CondAtNode:
		return v.NodeID() == c.Item
	case CondRunnerStateIs:
		return v.RunnerState() == c.Enum
	case CondSelfHP:
		return c.Op.Compare(v.HP(), c.Value)
	default:
		// Unknown kinds never hold; the compiler rejects them upstream.
		return false
	}
}

// Describe renders the condition with the live values that made it hold
// (or fail), for decision-log snapshots. The output embeds observed
// state, not a restatement of the rule's static text.
func Describe(c Condition, v StateView) string {
	switch c.Kind {
	case CondAlways:
		return "always"
	case CondInventoryFull:
		return fmt.Sprintf("inventory_full=%v", v.InventoryFull())
	case CondInventorySlots:
		return fmt.Sprintf("inventory_slots=%d %s %d", v.InventoryFreeSlots(), c.Op, c.Value)
	case CondInventoryContains:
		return fmt.Sprintf("inventory(%s)=%d %s %d", c.Item, v.InventoryCount(c.Item), c.Op, c.Value)
	case CondBankContains:
		return fmt.Sprintf("bank(%s)=%d %s %d", c.Item, v.BankCount(c.Item), c.Op, c.Value)
	case CondSkillLevel:
		return fmt.Sprintf("skill(%d)=%d %s %d", c.Enum, v.SkillLevel(c.Enum), c.Op, c.Value)
	case CondAtNode:
		return fmt.Sprintf("at_node(%s)=%v", c.Item, v.NodeID() == c.Item)
	case CondRunnerStateIs:
		return fmt.Sprintf("runner_state=%d (want %d)", v.RunnerState(), c.Enum)
	case CondSelfHP:
		return fmt.Sprintf("hp=%d %s %d", v.HP(), c.Op, c.Value)
	default:
		return fmt.Sprintf("unknown(%s)", c.Kind)
	}
}
