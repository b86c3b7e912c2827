package rules

// Rule is a single IF-THEN fuzzy rule: when the antecedent holds to some
// degree, the consequent output term is activated in proportion.
type Rule struct {
	When   Expr
	Then   string
	Weight float64
}

// Group is a named collection of rules acting as one voter in the delta
// voting scheme.
type Group struct {
	Name       string
	BaseWeight float64
	Rules      []Rule
}

// Activations maps output fuzzy terms to activation strengths in [0,1].
// Terms no rule touched are absent, which is distinct from an activation of
// zero: absence means no evidence, zero means evidence against.
type Activations map[string]float64

// Evaluate runs every rule in the group against the fuzzified inputs and
// returns one activation per consequent term the group's rules touched.
//
// A rule whose antecedent references a variable absent from the inputs
// contributes nothing. Each firing rule contributes its antecedent strength
// times its weight, clamped to [0,1]; rules targeting the same term combine
// by maximum, the standard fuzzy OR across rules.
func Evaluate(g Group, inputs map[string]map[string]float64) Activations {
	out := make(Activations)
	for _, r := range g.Rules {
		s, ok := r.When.strength(inputs)
		if !ok {
			continue
		}
		a := s * r.Weight
		if a < 0 {
			a = 0
		}
		if a > 1 {
			a = 1
		}
		if cur, seen := out[r.Then]; !seen || a > cur {
			out[r.Then] = a
		}
	}
	return out
}
