package rules

import (
	"encoding/json"
	"fmt"
)

// Operator is a numeric comparison used by threshold conditions.
type Operator int

const (
	GT Operator = iota
	GTE
	LT
	LTE
	EQ
	NEQ
)

var operatorNames = map[Operator]string{
	GT:  ">",
	GTE: ">=",
	LT:  "<",
	LTE: "<=",
	EQ:  "=",
	NEQ: "!=",
}

// ParseOperator parses the authoring form of an operator (">", ">=", ...).
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name == s {
			return op, nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

// Compare applies the operator to (a, b), e.g. GTE.Compare(3, 2) == true.
func (o Operator) Compare(a, b int) bool {
	switch o {
	case GT:
		return a > b
	case GTE:
		return a >= b
	case LT:
		return a < b
	case LTE:
		return a <= b
	case EQ:
		return a == b
	case NEQ:
		return a != b
	default:
		return false
	}
}

// String returns the authoring form. Unknown operators render as "?".
func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return "?"
}

// MarshalJSON serializes the authoring form so persisted entities stay
// readable and stable across operator renumbering.
func (o Operator) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON accepts the authoring form.
func (o *Operator) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOperator(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
