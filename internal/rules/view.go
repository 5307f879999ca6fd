package rules

// StateView is the read-only window a condition evaluates against. It is
// always backed by live simulation state; implementations must not cache
// or snapshot values between evaluation passes.
//
// Enum-valued accessors (SkillLevel's skill argument, RunnerState's
// result) use the simulation's integer identifiers; this package treats
// them as opaque.
type StateView interface {
	// InventoryCount returns how many of the item the runner carries.
	InventoryCount(item string) int

	// InventoryFreeSlots returns the number of unoccupied inventory slots.
	InventoryFreeSlots() int

	// InventoryFull reports whether every inventory slot is occupied.
	InventoryFull() bool

	// BankCount returns how many of the item the shared bank holds.
	BankCount(item string) int

	// SkillLevel returns the runner's current level in the given skill.
	SkillLevel(skill int) int

	// NodeID returns the id of the node the runner currently occupies.
	NodeID() string

	// RunnerState returns the runner's mechanical sub-state identifier.
	RunnerState() int

	// HP returns the runner's current hit points.
	HP() int
}
