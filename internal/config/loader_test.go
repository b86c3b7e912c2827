package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficfuzz/route-advisor/internal/errors"
)

const validYAML = `
variables:
  - name: traffic_density
    domain: [0, 200]
    terms:
      - { name: low, shape: trapezoid, points: [0, 0, 20, 60] }
      - { name: medium, shape: triangle, points: [40, 90, 140] }
      - { name: high, shape: trapezoid, points: [100, 140, 200, 200] }
  - name: incident
    terms:
      - { name: none, shape: triangle, points: [0, 0, 2] }
      - { name: major, shape: triangle, points: [5, 8, 10] }

output:
  name: route_score
  terms:
    - { name: low, value: 15 }
    - { name: medium, value: 50 }
    - { name: high, value: 85 }

groups:
  - name: congestion
    base_weight: 1.0
    rules:
      - when: { var: traffic_density, term: low }
        then: high
      - when:
          any:
            - { var: traffic_density, term: high }
            - { var: incident, term: major }
        then: low
        weight: 0.9
  - name: incidents
    rules:
      - when: { var: incident, term: none }
        then: high

day_parts:
  - name: night
    start: "20:00"
    end: "06:00"
    multipliers:
      incidents: 1.3
  - name: day
    start: "06:00"
    end: "20:00"

confidence_threshold: 0.3
neutral_score: 50
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseValidConfig(t *testing.T) {
	snap, err := Parse(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "route_score", snap.OutputVariable)
	assert.Len(t, snap.OutputTerms, 3)
	assert.Len(t, snap.Groups, 2)
	assert.Equal(t, 0.3, snap.ConfidenceThreshold)
	assert.Equal(t, 50.0, snap.NeutralScore)

	v, ok := snap.Model.Variable("traffic_density")
	require.True(t, ok)
	assert.Equal(t, 0.0, v.Min)
	assert.Equal(t, 200.0, v.Max)

	// Defaults: group without base_weight gets 1.0, rule without weight 1.0.
	assert.Equal(t, 1.0, snap.Groups[1].BaseWeight)
	assert.Equal(t, 1.0, snap.Groups[1].Rules[0].Weight)
	assert.Equal(t, 0.9, snap.Groups[0].Rules[1].Weight)
}

func TestParseDomainDefaultsToPointExtremes(t *testing.T) {
	snap, err := Parse(writeConfig(t, validYAML))
	require.NoError(t, err)

	v, ok := snap.Model.Variable("incident")
	require.True(t, ok)
	assert.Equal(t, 0.0, v.Min)
	assert.Equal(t, 10.0, v.Max)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestParseMalformedYAML(t *testing.T) {
	_, err := Parse(writeConfig(t, "variables: ["))
	require.Error(t, err)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestParseRejections(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		errPart string
	}{
		{
			name: "no variables",
			yaml: `
variables: []
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "at least one linguistic variable",
		},
		{
			name: "unknown shape",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: gaussian, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "unknown membership shape",
		},
		{
			name: "wrong triangle arity",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2, 3] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "triangle requires 3 points",
		},
		{
			name: "decreasing points",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [2, 1, 3] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "non-decreasing",
		},
		{
			name: "rule references undefined variable",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: y, term: a }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: `undefined variable "y"`,
		},
		{
			name: "rule references undefined term",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: b }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: `undefined term "b"`,
		},
		{
			name: "rule consequent not an output term",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: zz }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "undefined output term",
		},
		{
			name: "antecedent with two forms",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups:
  - name: g
    rules:
      - when:
          var: x
          term: a
          all: [{ var: x, term: a }]
        then: a
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "exactly one of var, all, any",
		},
		{
			name: "non-positive rule weight",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a, weight: 0 }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
`,
			errPart: "weight must be positive",
		},
		{
			name: "day parts leave a gap",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts:
  - { name: am, start: "00:00", end: "12:00" }
  - { name: pm, start: "13:00", end: "24:00" }
`,
			errPart: "gap",
		},
		{
			name: "day parts overlap",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts:
  - { name: am, start: "00:00", end: "13:00" }
  - { name: pm, start: "12:00", end: "24:00" }
`,
			errPart: "overlap",
		},
		{
			name: "multiplier for unknown group",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts:
  - name: d
    start: "00:00"
    end: "24:00"
    multipliers: { nonexistent: 1.5 }
`,
			errPart: "undefined rule group",
		},
		{
			name: "invalid clock value",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts: [{ name: d, start: "25:00", end: "24:00" }]
`,
			errPart: "invalid start",
		},
		{
			name: "threshold above one",
			yaml: `
variables:
  - name: x
    terms: [{ name: a, shape: triangle, points: [0, 1, 2] }]
output: { name: s, terms: [{ name: a, value: 1 }] }
groups: [{ name: g, rules: [{ when: { var: x, term: a }, then: a }] }]
day_parts: [{ name: d, start: "00:00", end: "24:00" }]
confidence_threshold: 1.5
`,
			errPart: "confidence_threshold",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, tc.yaml))
			require.Error(t, err)
			assert.True(t, errors.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tc.errPart)
		})
	}
}

func TestSnapshotOutputValue(t *testing.T) {
	snap, err := Parse(writeConfig(t, validYAML))
	require.NoError(t, err)

	v, ok := snap.OutputValue("medium")
	require.True(t, ok)
	assert.Equal(t, 50.0, v)

	_, ok = snap.OutputValue("nonexistent")
	assert.False(t, ok)
}

func TestStoreReloadSwapsSnapshot(t *testing.T) {
	path := writeConfig(t, validYAML)

	store, err := NewStore(path)
	require.NoError(t, err)
	first := store.Snapshot()
	require.NotNil(t, first)

	require.NoError(t, os.WriteFile(path, []byte(validYAML+"\n"), 0o644))

	snap, err := store.Reload()
	require.NoError(t, err)
	assert.NotSame(t, first, snap)
	assert.Same(t, snap, store.Snapshot())
}

func TestStoreReloadKeepsOldSnapshotOnFailure(t *testing.T) {
	path := writeConfig(t, validYAML)

	store, err := NewStore(path)
	require.NoError(t, err)
	before := store.Snapshot()

	require.NoError(t, os.WriteFile(path, []byte("variables: ["), 0o644))

	_, err = store.Reload()
	require.Error(t, err)
	assert.Same(t, before, store.Snapshot())
}
