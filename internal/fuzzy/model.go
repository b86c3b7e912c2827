package fuzzy

// Term is one linguistic category of a variable, e.g. "high" congestion.
type Term struct {
	Name string
	MF   MembershipFunc
}

// Variable is a named signal dimension with an ordered set of fuzzy terms.
// Crisp values outside [Min,Max] are clamped to the domain boundary before
// membership evaluation, so membership is total over all of float64.
type Variable struct {
	Name  string
	Min   float64
	Max   float64
	Terms []Term
}

// Membership returns the degree of the crisp value in the named term.
// The second return is false when the term is not declared on the variable.
func (v Variable) Membership(term string, x float64) (float64, bool) {
	for _, t := range v.Terms {
		if t.Name == term {
			return t.MF(clip(x, v.Min, v.Max)), true
		}
	}
	return 0, false
}

// Model holds the read-only linguistic variables used during evaluation.
// It is built once at configuration load and never mutated afterwards.
type Model struct {
	variables map[string]Variable
}

// NewModel creates a model from the configured variables.
func NewModel(vars []Variable) *Model {
	m := &Model{variables: make(map[string]Variable, len(vars))}
	for _, v := range vars {
		m.variables[v.Name] = v
	}
	return m
}

// Variable looks up a variable by name.
func (m *Model) Variable(name string) (Variable, bool) {
	v, ok := m.variables[name]
	return v, ok
}

// Fuzzify maps crisp signal readings to membership degrees for every term of
// each matching variable. Signals with no matching variable are ignored, so
// partial input degrades gracefully instead of failing. Pure function of the
// signals and the model.
func (m *Model) Fuzzify(signals map[string]float64) map[string]map[string]float64 {
	out := make(map[string]map[string]float64, len(signals))
	for name, value := range signals {
		v, ok := m.variables[name]
		if !ok {
			continue
		}
		degrees := make(map[string]float64, len(v.Terms))
		for _, t := range v.Terms {
			degrees[t.Name] = t.MF(clip(value, v.Min, v.Max))
		}
		out[name] = degrees
	}
	return out
}
