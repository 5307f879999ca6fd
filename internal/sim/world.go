package sim

import "fmt"

// defaultTravelTicks applies when a node pair has no explicit cost.
const defaultTravelTicks = 10

// depositTicks is how long unloading a full inventory takes at the hub.
const depositTicks = 3

// Gatherable is one resource-production slot on a node, selected by
// index from gather_here actions.
type Gatherable struct {
	Item  string `json:"item"`
	Ticks int    `json:"ticks"`
	Skill int    `json:"skill"`
	XP    int    `json:"xp"`
}

// Node is one world location. Travel maps destination node ids to
// abstract tick costs; pathfinding is not modeled here.
type Node struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Hub         bool           `json:"hub"`
	Gatherables []Gatherable   `json:"gatherables,omitempty"`
	Travel      map[string]int `json:"travel,omitempty"`
}

// World owns all live simulation state: the tick counter, nodes, the
// shared bank, and runners in creation order.
type World struct {
	Tick  int64
	Nodes map[string]*Node
	Bank  map[string]int

	runners []*Runner
	byID    map[string]*Runner
}

func NewWorld() *World {
	return &World{
		Nodes: make(map[string]*Node),
		Bank:  make(map[string]int),
		byID:  make(map[string]*Runner),
	}
}

// GameTime renders the tick as in-game day/clock time (one tick is one
// in-game minute).
func (w *World) GameTime() string {
	minutes := w.Tick % (24 * 60)
	return fmt.Sprintf("d%02d %02d:%02d", w.Tick/(24*60)+1, minutes/60, minutes%60)
}

func (w *World) AddNode(n *Node) { w.Nodes[n.ID] = n }

// Hub returns the first hub node, or nil when the world has none.
func (w *World) Hub() *Node {
	for _, n := range w.Nodes {
		if n.Hub {
			return n
		}
	}
	return nil
}

// AddRunner registers a runner, assigning its creation-order index.
func (w *World) AddRunner(r *Runner) {
	r.Creation = len(w.runners)
	w.runners = append(w.runners, r)
	w.byID[r.ID] = r
}

// Runners returns runners in creation order. Callers must not reorder.
func (w *World) Runners() []*Runner { return w.runners }

func (w *World) RunnerByID(id string) *Runner { return w.byID[id] }

// TravelCost returns the tick cost from one node to another.
func (w *World) TravelCost(from, to string) int {
	if n, ok := w.Nodes[from]; ok {
		if cost, ok := n.Travel[to]; ok {
			return cost
		}
	}
	return defaultTravelTicks
}

// SetDestination starts travel toward a node. Already being there is a
// no-op success. Unknown destinations are rejected for the caller to
// surface as a configuration warning.
func (w *World) SetDestination(r *Runner, node string) error {
	if _, ok := w.Nodes[node]; !ok {
		return fmt.Errorf("node %q does not exist", node)
	}
	if r.NodeID == node && r.State != StateTraveling {
		return nil
	}
	if r.State == StateTraveling && r.DestNodeID == node {
		return nil
	}
	r.StopWork()
	r.State = StateTraveling
	r.DestNodeID = node
	r.TravelRemaining = w.TravelCost(r.NodeID, node)
	return nil
}

// BeginGather starts (or continues) gathering at the given gatherable
// index of the runner's current node. Re-issuing the same index while
// already gathering keeps accrued progress.
func (w *World) BeginGather(r *Runner, index int) error {
	n, ok := w.Nodes[r.NodeID]
	if !ok {
		return fmt.Errorf("runner %s is at unknown node %q", r.ID, r.NodeID)
	}
	if index < 0 || index >= len(n.Gatherables) {
		return fmt.Errorf("node %q has no gatherable %d", r.NodeID, index)
	}
	if r.State == StateGathering && r.GatherIndex == index {
		return nil
	}
	if r.Inventory.Full() {
		return fmt.Errorf("runner %s inventory is full", r.ID)
	}
	r.StopWork()
	r.State = StateGathering
	r.GatherIndex = index
	r.GatherProgress = 0
	return nil
}

// BeginDeposit starts unloading the inventory into the bank. Only valid
// at a hub node. An empty inventory deposits instantly next tick.
func (w *World) BeginDeposit(r *Runner) error {
	n, ok := w.Nodes[r.NodeID]
	if !ok || !n.Hub {
		return fmt.Errorf("runner %s is not at a hub node", r.ID)
	}
	if r.State == StateDepositing {
		return nil
	}
	r.StopWork()
	r.State = StateDepositing
	r.DepositRemaining = depositTicks
	return nil
}

// Advance moves the simulation one tick: increments the clock and
// progresses every runner's mechanical operation, collecting the
// state-change events the evaluation scheduler triggers on. Runners
// advance in creation order so event order is deterministic.
func (w *World) Advance() []Event {
	w.Tick++
	var events []Event
	for _, r := range w.runners {
		events = append(events, w.advanceRunner(r)...)
	}
	return events
}

func (w *World) advanceRunner(r *Runner) []Event {
	switch r.State {
	case StateTraveling:
		return w.advanceTravel(r)
	case StateGathering:
		return w.advanceGather(r)
	case StateDepositing:
		return w.advanceDeposit(r)
	default:
		return nil
	}
}

func (w *World) advanceTravel(r *Runner) []Event {
	r.TravelRemaining--
	if r.TravelRemaining > 0 {
		return nil
	}
	r.NodeID = r.DestNodeID
	r.DestNodeID = ""
	r.State = StateIdle
	return []Event{
		{Kind: EventArrived, RunnerID: r.ID, Node: r.NodeID},
		{Kind: EventRunnerStateChanged, RunnerID: r.ID},
	}
}

func (w *World) advanceGather(r *Runner) []Event {
	n := w.Nodes[r.NodeID]
	if n == nil || r.GatherIndex >= len(n.Gatherables) {
		// Node or gatherable vanished under the runner; stop and let the
		// rules re-decide.
		r.StopWork()
		return []Event{{Kind: EventRunnerStateChanged, RunnerID: r.ID}}
	}
	g := n.Gatherables[r.GatherIndex]

	r.GatherProgress++
	if r.GatherProgress < g.Ticks {
		return nil
	}
	r.GatherProgress = 0

	if !r.Inventory.Add(g.Item) {
		r.StopWork()
		return []Event{{Kind: EventRunnerStateChanged, RunnerID: r.ID}}
	}

	events := []Event{{Kind: EventInventoryChanged, RunnerID: r.ID, Item: g.Item}}

	s := r.Skill(g.Skill)
	s.XP += g.XP
	if level := 1 + s.XP/xpPerLevel; level > s.Level {
		s.Level = level
		events = append(events, Event{Kind: EventSkillLeveled, RunnerID: r.ID, Skill: g.Skill})
	}
	return events
}

func (w *World) advanceDeposit(r *Runner) []Event {
	r.DepositRemaining--
	if r.DepositRemaining > 0 {
		return nil
	}
	for item, n := range r.Inventory.Drain() {
		w.Bank[item] += n
	}
	r.State = StateIdle
	return []Event{
		{Kind: EventBankChanged, RunnerID: r.ID},
		{Kind: EventInventoryChanged, RunnerID: r.ID},
		{Kind: EventDepositComplete, RunnerID: r.ID},
		{Kind: EventRunnerStateChanged, RunnerID: r.ID},
	}
}
