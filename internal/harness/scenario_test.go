package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
profile: |
  ruleset: "idle_all": {
  	category: "macro"
  	rules: [{then: "idle"}]
  }
world:
  nodes:
    - id: hub
      hub: true
runners:
  - id: r1
    node: hub
ticks: 1
`

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.World.Nodes, 1)
	assert.True(t, s.World.Nodes[0].Hub)
	require.Len(t, s.Runners, 1)
	assert.Equal(t, 1, s.Ticks)
}

func TestParseScenarioRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"no name", "profile: x\nticks: 1", "requires a name"},
		{"no profile", "name: x\nticks: 1", "profile is required"},
		{
			"no nodes",
			"name: x\nprofile: y\nticks: 1\nrunners: [{id: r1, node: hub}]",
			"at least one node",
		},
		{
			"no runners",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}]}",
			"at least one runner",
		},
		{
			"zero ticks",
			"name: x\nprofile: y\nworld: {nodes: [{id: hub}]}\nrunners: [{id: r1, node: hub}]",
			"ticks must be positive",
		},
		{
			"runner at unknown node",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}]}\nrunners: [{id: r1, node: mars}]",
			`unknown node "mars"`,
		},
		{
			"duplicate node",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}, {id: hub}]}\nrunners: [{id: r1, node: hub}]",
			"duplicate node",
		},
		{
			"duplicate runner",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}]}\nrunners: [{id: r1, node: hub}, {id: r1, node: hub}]",
			"duplicate runner",
		},
		{
			"unknown assertion type",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}]}\nrunners: [{id: r1, node: hub}]\nassertions: [{type: psychic}]",
			`unknown assertion type "psychic"`,
		},
		{
			"assertion against unknown runner",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}]}\nrunners: [{id: r1, node: hub}]\nassertions: [{type: runner_state, runner: r2}]",
			`unknown runner "r2"`,
		},
		{
			"bad journal layer",
			"name: x\nprofile: y\nticks: 1\nworld: {nodes: [{id: hub}]}\nrunners: [{id: r1, node: hub}]\nassertions: [{type: journal_contains, layer: meso}]",
			"layer must be macro or micro",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarioFromFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/assign_and_travel.yaml")
	require.NoError(t, err)
	assert.Equal(t, "assign_and_travel", s.Name)
	assert.Contains(t, s.Profile, `sequence: "head_to_mine"`)
	assert.Len(t, s.Assertions, 3)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	assert.Error(t, err)
}
