package engine

import (
	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// runnerView adapts one runner plus the world to rules.StateView. Every
// accessor reads live state at call time; nothing is cached, so a
// condition can never observe a stale value.
type runnerView struct {
	w *sim.World
	r *sim.Runner
}

var _ rules.StateView = runnerView{}

func (v runnerView) InventoryCount(item string) int { return v.r.Inventory.Count(item) }
func (v runnerView) InventoryFreeSlots() int        { return v.r.Inventory.FreeSlots() }
func (v runnerView) InventoryFull() bool            { return v.r.Inventory.Full() }
func (v runnerView) BankCount(item string) int      { return v.w.Bank[item] }
func (v runnerView) SkillLevel(skill int) int       { return v.r.Skill(skill).Level }
func (v runnerView) NodeID() string                 { return v.r.NodeID }
func (v runnerView) RunnerState() int               { return int(v.r.State) }
func (v runnerView) HP() int                        { return v.r.HP }
