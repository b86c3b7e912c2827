package rules

// Expr is a node in a rule's antecedent expression tree. Exactly one of the
// three forms is set: a leaf referencing a (variable, term) pair, an All node
// (fuzzy AND, minimum of children) or an Any node (fuzzy OR, maximum of
// children).
type Expr struct {
	Var  string
	Term string
	All  []Expr
	Any  []Expr
}

// IsLeaf reports whether the node references a (variable, term) pair directly.
func (e Expr) IsLeaf() bool {
	return e.Var != ""
}

// Leaves appends every (variable, term) leaf under the node to dst.
func (e Expr) Leaves(dst []Expr) []Expr {
	if e.IsLeaf() {
		return append(dst, e)
	}
	for _, c := range e.All {
		dst = c.Leaves(dst)
	}
	for _, c := range e.Any {
		dst = c.Leaves(dst)
	}
	return dst
}

// strength evaluates the node against fuzzified inputs. The second return is
// false when any referenced variable is absent from the inputs; the caller
// then treats the whole rule as strength 0 rather than failing.
func (e Expr) strength(inputs map[string]map[string]float64) (float64, bool) {
	if e.IsLeaf() {
		degrees, ok := inputs[e.Var]
		if !ok {
			return 0, false
		}
		d, ok := degrees[e.Term]
		if !ok {
			return 0, false
		}
		return d, true
	}
	if len(e.All) > 0 {
		min := 1.0
		for _, c := range e.All {
			s, ok := c.strength(inputs)
			if !ok {
				return 0, false
			}
			if s < min {
				min = s
			}
		}
		return min, true
	}
	if len(e.Any) > 0 {
		max := 0.0
		for _, c := range e.Any {
			s, ok := c.strength(inputs)
			if !ok {
				return 0, false
			}
			if s > max {
				max = s
			}
		}
		return max, true
	}
	return 0, false
}
