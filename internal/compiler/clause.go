package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emberfall/overseer/internal/rules"
	"github.com/emberfall/overseer/internal/sim"
)

// Condition and action clauses are compact strings, e.g.
//
//	when: ["at(mine)", "bank(iron_ore) < 50"]
//	then: "gather(0)"
//
// comparePattern matches `head(arg) op value` with the argument part
// optional: `bank(iron_ore) >= 50`, `hp < 30`.
var comparePattern = regexp.MustCompile(`^(\w+)(?:\(([^)]*)\))?\s*(>=|<=|==|!=|>|<|=)\s*(-?\d+)$`)

// refPattern matches `head(arg)` with no comparison: `at(mine)`.
var refPattern = regexp.MustCompile(`^(\w+)\(([^)]*)\)$`)

var skillNames = map[string]int{
	"mining":      sim.SkillMining,
	"woodcutting": sim.SkillWoodcutting,
	"fishing":     sim.SkillFishing,
}

var stateNames = map[string]int{
	"idle":       int(sim.StateIdle),
	"traveling":  int(sim.StateTraveling),
	"gathering":  int(sim.StateGathering),
	"depositing": int(sim.StateDepositing),
}

// parseCondition compiles one when-clause string.
func parseCondition(s string) (rules.Condition, error) {
	s = strings.TrimSpace(s)

	switch s {
	case "always":
		return rules.Always(), nil
	case "inventory_full":
		return rules.Condition{Kind: rules.CondInventoryFull}, nil
	}

	if m := comparePattern.FindStringSubmatch(s); m != nil {
		head, arg := m[1], m[2]
		opText := m[3]
		if opText == "==" {
			opText = "="
		}
		op, err := rules.ParseOperator(opText)
		if err != nil {
			return rules.Condition{}, err
		}
		value, err := strconv.Atoi(m[4])
		if err != nil {
			return rules.Condition{}, fmt.Errorf("invalid value %q", m[4])
		}

		switch head {
		case "free_slots":
			return rules.Condition{Kind: rules.CondInventorySlots, Op: op, Value: value}, nil
		case "hp":
			return rules.Condition{Kind: rules.CondSelfHP, Op: op, Value: value}, nil
		case "inventory":
			if arg == "" {
				return rules.Condition{}, fmt.Errorf("inventory() requires an item")
			}
			return rules.Condition{Kind: rules.CondInventoryContains, Op: op, Value: value, Item: arg}, nil
		case "bank":
			if arg == "" {
				return rules.Condition{}, fmt.Errorf("bank() requires an item")
			}
			return rules.Condition{Kind: rules.CondBankContains, Op: op, Value: value, Item: arg}, nil
		case "skill":
			id, err := parseSkill(arg)
			if err != nil {
				return rules.Condition{}, err
			}
			return rules.Condition{Kind: rules.CondSkillLevel, Op: op, Value: value, Enum: id}, nil
		}
		return rules.Condition{}, fmt.Errorf("unknown condition %q", head)
	}

	if m := refPattern.FindStringSubmatch(s); m != nil {
		head, arg := m[1], m[2]
		switch head {
		case "at":
			if arg == "" {
				return rules.Condition{}, fmt.Errorf("at() requires a node id")
			}
			return rules.Condition{Kind: rules.CondAtNode, Item: arg}, nil
		case "state":
			id, ok := stateNames[arg]
			if !ok {
				return rules.Condition{}, fmt.Errorf("unknown runner state %q", arg)
			}
			return rules.Condition{Kind: rules.CondRunnerStateIs, Enum: id}, nil
		}
		return rules.Condition{}, fmt.Errorf("unknown condition %q", head)
	}

	return rules.Condition{}, fmt.Errorf("cannot parse condition %q", s)
}

// parseAction compiles one then-clause string.
func parseAction(s string) (rules.Action, error) {
	s = strings.TrimSpace(s)

	switch s {
	case "idle":
		return rules.Action{Kind: rules.ActIdle}, nil
	case "return_to_hub":
		return rules.Action{Kind: rules.ActReturnToHub}, nil
	case "flee_to_hub":
		return rules.Action{Kind: rules.ActFleeToHub}, nil
	case "finish_task":
		return rules.Action{Kind: rules.ActFinishTask}, nil
	}

	if m := refPattern.FindStringSubmatch(s); m != nil {
		head, arg := m[1], m[2]
		switch head {
		case "gather":
			idx, err := strconv.Atoi(arg)
			if err != nil {
				return rules.Action{}, fmt.Errorf("gather() requires a gatherable index, got %q", arg)
			}
			return rules.Action{Kind: rules.ActGatherHere, Gatherable: idx}, nil
		case "work_at":
			if arg == "" {
				return rules.Action{}, fmt.Errorf("work_at() requires a node id")
			}
			return rules.Action{Kind: rules.ActWorkAt, Node: arg}, nil
		case "assign":
			if arg == "" {
				return rules.Action{}, fmt.Errorf("assign() requires a sequence id")
			}
			return rules.Action{Kind: rules.ActAssignSequence, Sequence: arg}, nil
		}
		return rules.Action{}, fmt.Errorf("unknown action %q", head)
	}

	return rules.Action{}, fmt.Errorf("cannot parse action %q", s)
}

func parseSkill(arg string) (int, error) {
	if id, ok := skillNames[arg]; ok {
		return id, nil
	}
	if id, err := strconv.Atoi(arg); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("unknown skill %q", arg)
}
