package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inputs() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"traffic_density": {"low": 0.2, "medium": 0.7, "high": 0.0},
		"avg_speed":       {"low": 0.6, "medium": 0.4, "high": 0.0},
	}
}

func TestLeafStrength(t *testing.T) {
	e := Expr{Var: "traffic_density", Term: "medium"}
	s, ok := e.strength(inputs())
	require.True(t, ok)
	assert.Equal(t, 0.7, s)
}

func TestAllTakesMinimum(t *testing.T) {
	e := Expr{All: []Expr{
		{Var: "traffic_density", Term: "medium"},
		{Var: "avg_speed", Term: "low"},
	}}
	s, ok := e.strength(inputs())
	require.True(t, ok)
	assert.Equal(t, 0.6, s)
}

func TestAnyTakesMaximum(t *testing.T) {
	e := Expr{Any: []Expr{
		{Var: "traffic_density", Term: "low"},
		{Var: "avg_speed", Term: "low"},
	}}
	s, ok := e.strength(inputs())
	require.True(t, ok)
	assert.Equal(t, 0.6, s)
}

func TestNestedExpression(t *testing.T) {
	// (density medium AND (speed low OR speed medium))
	e := Expr{All: []Expr{
		{Var: "traffic_density", Term: "medium"},
		{Any: []Expr{
			{Var: "avg_speed", Term: "low"},
			{Var: "avg_speed", Term: "medium"},
		}},
	}}
	s, ok := e.strength(inputs())
	require.True(t, ok)
	assert.Equal(t, 0.6, s)
}

func TestMissingVariableAnywhereFailsWholeExpression(t *testing.T) {
	e := Expr{All: []Expr{
		{Var: "traffic_density", Term: "medium"},
		{Var: "incident", Term: "major"},
	}}
	_, ok := e.strength(inputs())
	assert.False(t, ok)

	// Same for OR nodes: absence is not zero, it poisons the expression.
	e = Expr{Any: []Expr{
		{Var: "traffic_density", Term: "low"},
		{Var: "incident", Term: "major"},
	}}
	_, ok = e.strength(inputs())
	assert.False(t, ok)
}

func TestLeaves(t *testing.T) {
	e := Expr{All: []Expr{
		{Var: "a", Term: "x"},
		{Any: []Expr{
			{Var: "b", Term: "y"},
			{Var: "c", Term: "z"},
		}},
	}}
	leaves := e.Leaves(nil)
	require.Len(t, leaves, 3)
	assert.Equal(t, "a", leaves[0].Var)
	assert.Equal(t, "c", leaves[2].Var)
}

func TestEvaluateSkipsRulesWithAbsentVariables(t *testing.T) {
	g := Group{
		Name:       "incidents",
		BaseWeight: 1,
		Rules: []Rule{
			{When: Expr{Var: "incident", Term: "major"}, Then: "low", Weight: 1},
			{When: Expr{Var: "traffic_density", Term: "high"}, Then: "low", Weight: 1},
		},
	}

	acts := Evaluate(g, inputs())

	// The incident rule was skipped entirely, but the density rule did
	// fire with strength zero, so "low" is present with activation 0.
	require.Contains(t, acts, "low")
	assert.Equal(t, 0.0, acts["low"])
}

func TestEvaluateAbstainsWhenNothingFires(t *testing.T) {
	g := Group{
		Name:       "incidents",
		BaseWeight: 1,
		Rules: []Rule{
			{When: Expr{Var: "incident", Term: "major"}, Then: "low", Weight: 1},
		},
	}

	acts := Evaluate(g, inputs())
	assert.Empty(t, acts)
}

func TestEvaluateAppliesRuleWeight(t *testing.T) {
	g := Group{
		Name:       "congestion",
		BaseWeight: 1,
		Rules: []Rule{
			{When: Expr{Var: "traffic_density", Term: "medium"}, Then: "medium", Weight: 0.5},
		},
	}

	acts := Evaluate(g, inputs())
	assert.InDelta(t, 0.35, acts["medium"], 1e-9)
}

func TestEvaluateClampsActivation(t *testing.T) {
	g := Group{
		Name:       "congestion",
		BaseWeight: 1,
		Rules: []Rule{
			{When: Expr{Var: "traffic_density", Term: "medium"}, Then: "medium", Weight: 3},
		},
	}

	acts := Evaluate(g, inputs())
	assert.Equal(t, 1.0, acts["medium"])
}

func TestEvaluateCombinesSameTermByMaximum(t *testing.T) {
	g := Group{
		Name:       "congestion",
		BaseWeight: 1,
		Rules: []Rule{
			{When: Expr{Var: "traffic_density", Term: "low"}, Then: "high", Weight: 1},
			{When: Expr{Var: "avg_speed", Term: "medium"}, Then: "high", Weight: 1},
		},
	}

	acts := Evaluate(g, inputs())
	assert.Equal(t, 0.4, acts["high"])
}
