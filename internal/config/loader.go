package config

import (
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/trafficfuzz/route-advisor/internal/daypart"
	apperrors "github.com/trafficfuzz/route-advisor/internal/errors"
	"github.com/trafficfuzz/route-advisor/internal/fuzzy"
	"github.com/trafficfuzz/route-advisor/internal/rules"
)

const defaultNeutralScore = 50

// Parse reads, unmarshals and validates a configuration file. Any
// inconsistency is a configuration error that names the failing constraint;
// the pipeline must never run against a partially valid configuration.
func Parse(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %s", path), err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to parse config file %s", path), err)
	}

	return compile(&raw)
}

func compile(raw *rawConfig) (*Snapshot, error) {
	vars, err := compileVariables(raw.Variables)
	if err != nil {
		return nil, err
	}

	outName, outTerms, err := compileOutput(raw.Output)
	if err != nil {
		return nil, err
	}

	groups, err := compileGroups(raw.Groups, raw.Variables, outTerms)
	if err != nil {
		return nil, err
	}

	table, err := compileDayParts(raw.DayParts, groups)
	if err != nil {
		return nil, err
	}

	if raw.ConfidenceThreshold < 0 || raw.ConfidenceThreshold > 1 {
		return nil, apperrors.NewConfigurationErrorf("confidence_threshold must lie in [0,1], got %v", raw.ConfidenceThreshold)
	}

	neutral := float64(defaultNeutralScore)
	if raw.NeutralScore != nil {
		neutral = *raw.NeutralScore
	}

	return &Snapshot{
		Model:               fuzzy.NewModel(vars),
		Groups:              groups,
		DayParts:            table,
		OutputVariable:      outName,
		OutputTerms:         outTerms,
		ConfidenceThreshold: raw.ConfidenceThreshold,
		NeutralScore:        neutral,
	}, nil
}

func compileVariables(rawVars []rawVariable) ([]fuzzy.Variable, error) {
	if len(rawVars) == 0 {
		return nil, apperrors.NewConfigurationErrorf("at least one linguistic variable is required")
	}

	seen := make(map[string]bool, len(rawVars))
	vars := make([]fuzzy.Variable, 0, len(rawVars))
	for _, rv := range rawVars {
		if rv.Name == "" {
			return nil, apperrors.NewConfigurationErrorf("variable with empty name")
		}
		if seen[rv.Name] {
			return nil, apperrors.NewConfigurationErrorf("duplicate variable %q", rv.Name)
		}
		seen[rv.Name] = true

		if len(rv.Terms) == 0 {
			return nil, apperrors.NewConfigurationErrorf("variable %q declares no terms", rv.Name)
		}

		v := fuzzy.Variable{Name: rv.Name}
		termSeen := make(map[string]bool, len(rv.Terms))
		lo, hi := 0.0, 0.0
		first := true
		for _, rt := range rv.Terms {
			if rt.Name == "" {
				return nil, apperrors.NewConfigurationErrorf("variable %q has a term with empty name", rv.Name)
			}
			if termSeen[rt.Name] {
				return nil, apperrors.NewConfigurationErrorf("variable %q: duplicate term %q", rv.Name, rt.Name)
			}
			termSeen[rt.Name] = true

			mf, err := compileMembership(rv.Name, rt)
			if err != nil {
				return nil, err
			}
			v.Terms = append(v.Terms, fuzzy.Term{Name: rt.Name, MF: mf})

			for _, p := range rt.Points {
				if first || p < lo {
					lo = p
				}
				if first || p > hi {
					hi = p
				}
				first = false
			}
		}

		switch len(rv.Domain) {
		case 0:
			v.Min, v.Max = lo, hi
		case 2:
			if rv.Domain[0] >= rv.Domain[1] {
				return nil, apperrors.NewConfigurationErrorf("variable %q: domain min must be below max", rv.Name)
			}
			v.Min, v.Max = rv.Domain[0], rv.Domain[1]
		default:
			return nil, apperrors.NewConfigurationErrorf("variable %q: domain must be [min, max]", rv.Name)
		}

		vars = append(vars, v)
	}
	return vars, nil
}

func compileMembership(variable string, rt rawTerm) (fuzzy.MembershipFunc, error) {
	for i := 1; i < len(rt.Points); i++ {
		if rt.Points[i] < rt.Points[i-1] {
			return nil, apperrors.NewConfigurationErrorf(
				"variable %q term %q: membership points must be non-decreasing", variable, rt.Name)
		}
	}

	switch rt.Shape {
	case "triangle":
		if len(rt.Points) != 3 {
			return nil, apperrors.NewConfigurationErrorf(
				"variable %q term %q: triangle requires 3 points, got %d", variable, rt.Name, len(rt.Points))
		}
		return fuzzy.Triangle(rt.Points[0], rt.Points[1], rt.Points[2]), nil
	case "trapezoid":
		if len(rt.Points) != 4 {
			return nil, apperrors.NewConfigurationErrorf(
				"variable %q term %q: trapezoid requires 4 points, got %d", variable, rt.Name, len(rt.Points))
		}
		return fuzzy.Trapezoid(rt.Points[0], rt.Points[1], rt.Points[2], rt.Points[3]), nil
	default:
		return nil, apperrors.NewConfigurationErrorf(
			"variable %q term %q: unknown membership shape %q", variable, rt.Name, rt.Shape)
	}
}

func compileOutput(raw rawOutput) (string, []OutputTerm, error) {
	if raw.Name == "" {
		return "", nil, apperrors.NewConfigurationErrorf("output variable name is required")
	}
	if len(raw.Terms) == 0 {
		return "", nil, apperrors.NewConfigurationErrorf("output variable %q declares no terms", raw.Name)
	}

	seen := make(map[string]bool, len(raw.Terms))
	terms := make([]OutputTerm, 0, len(raw.Terms))
	for _, rt := range raw.Terms {
		if rt.Name == "" {
			return "", nil, apperrors.NewConfigurationErrorf("output variable %q has a term with empty name", raw.Name)
		}
		if seen[rt.Name] {
			return "", nil, apperrors.NewConfigurationErrorf("output variable %q: duplicate term %q", raw.Name, rt.Name)
		}
		seen[rt.Name] = true
		terms = append(terms, OutputTerm{Name: rt.Name, Value: rt.Value})
	}
	return raw.Name, terms, nil
}

func compileGroups(rawGroups []rawGroup, rawVars []rawVariable, outTerms []OutputTerm) ([]rules.Group, error) {
	if len(rawGroups) == 0 {
		return nil, apperrors.NewConfigurationErrorf("at least one rule group is required")
	}

	declaredTerms := make(map[string]map[string]bool, len(rawVars))
	for _, rv := range rawVars {
		terms := make(map[string]bool, len(rv.Terms))
		for _, rt := range rv.Terms {
			terms[rt.Name] = true
		}
		declaredTerms[rv.Name] = terms
	}
	outDeclared := make(map[string]bool, len(outTerms))
	for _, t := range outTerms {
		outDeclared[t.Name] = true
	}

	seen := make(map[string]bool, len(rawGroups))
	groups := make([]rules.Group, 0, len(rawGroups))
	for _, rg := range rawGroups {
		if rg.Name == "" {
			return nil, apperrors.NewConfigurationErrorf("rule group with empty name")
		}
		if seen[rg.Name] {
			return nil, apperrors.NewConfigurationErrorf("duplicate rule group %q", rg.Name)
		}
		seen[rg.Name] = true

		base := 1.0
		if rg.BaseWeight != nil {
			base = *rg.BaseWeight
		}
		if base <= 0 {
			return nil, apperrors.NewConfigurationErrorf("rule group %q: base_weight must be positive, got %v", rg.Name, base)
		}

		if len(rg.Rules) == 0 {
			return nil, apperrors.NewConfigurationErrorf("rule group %q declares no rules", rg.Name)
		}

		g := rules.Group{Name: rg.Name, BaseWeight: base}
		for i, rr := range rg.Rules {
			weight := 1.0
			if rr.Weight != nil {
				weight = *rr.Weight
			}
			if weight <= 0 {
				return nil, apperrors.NewConfigurationErrorf("rule group %q rule %d: weight must be positive, got %v", rg.Name, i, weight)
			}

			if rr.Then == "" {
				return nil, apperrors.NewConfigurationErrorf("rule group %q rule %d: consequent term is required", rg.Name, i)
			}
			if !outDeclared[rr.Then] {
				return nil, apperrors.NewConfigurationErrorf("rule group %q rule %d: undefined output term %q", rg.Name, i, rr.Then)
			}

			expr, err := compileExpr(rg.Name, i, rr.When, declaredTerms)
			if err != nil {
				return nil, err
			}

			g.Rules = append(g.Rules, rules.Rule{When: expr, Then: rr.Then, Weight: weight})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func compileExpr(group string, rule int, raw rawExpr, declared map[string]map[string]bool) (rules.Expr, error) {
	forms := 0
	if raw.Var != "" {
		forms++
	}
	if len(raw.All) > 0 {
		forms++
	}
	if len(raw.Any) > 0 {
		forms++
	}
	if forms != 1 {
		return rules.Expr{}, apperrors.NewConfigurationErrorf(
			"rule group %q rule %d: antecedent node must be exactly one of var, all, any", group, rule)
	}

	if raw.Var != "" {
		terms, ok := declared[raw.Var]
		if !ok {
			return rules.Expr{}, apperrors.NewConfigurationErrorf(
				"rule group %q rule %d: undefined variable %q", group, rule, raw.Var)
		}
		if !terms[raw.Term] {
			return rules.Expr{}, apperrors.NewConfigurationErrorf(
				"rule group %q rule %d: undefined term %q on variable %q", group, rule, raw.Term, raw.Var)
		}
		return rules.Expr{Var: raw.Var, Term: raw.Term}, nil
	}

	compileChildren := func(rawChildren []rawExpr) ([]rules.Expr, error) {
		children := make([]rules.Expr, 0, len(rawChildren))
		for _, rc := range rawChildren {
			child, err := compileExpr(group, rule, rc, declared)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return children, nil
	}

	if len(raw.All) > 0 {
		children, err := compileChildren(raw.All)
		if err != nil {
			return rules.Expr{}, err
		}
		return rules.Expr{All: children}, nil
	}

	children, err := compileChildren(raw.Any)
	if err != nil {
		return rules.Expr{}, err
	}
	return rules.Expr{Any: children}, nil
}

func compileDayParts(rawParts []rawDayPart, groups []rules.Group) (*daypart.Table, error) {
	if len(rawParts) == 0 {
		return nil, apperrors.NewConfigurationErrorf("at least one day_parts bucket is required")
	}

	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g.Name] = true
	}

	buckets := make([]daypart.Bucket, 0, len(rawParts))
	for _, rp := range rawParts {
		if rp.Name == "" {
			return nil, apperrors.NewConfigurationErrorf("day-part bucket with empty name")
		}
		start, err := parseClock(rp.Start)
		if err != nil {
			return nil, apperrors.NewConfigurationErrorf("day-part bucket %q: invalid start %q", rp.Name, rp.Start)
		}
		end, err := parseClock(rp.End)
		if err != nil {
			return nil, apperrors.NewConfigurationErrorf("day-part bucket %q: invalid end %q", rp.Name, rp.End)
		}
		for group := range rp.Multipliers {
			if !known[group] {
				return nil, apperrors.NewConfigurationErrorf("day-part bucket %q: multiplier references undefined rule group %q", rp.Name, group)
			}
		}
		buckets = append(buckets, daypart.Bucket{
			Name:        rp.Name,
			Start:       start,
			End:         end % (24 * 60),
			Multipliers: rp.Multipliers,
		})
	}

	table, err := daypart.NewTable(buckets)
	if err != nil {
		return nil, apperrors.NewConfigurationError(err.Error(), err)
	}
	return table, nil
}

// parseClock converts "HH:MM" to minutes since midnight. "24:00" maps to
// minute 1440 so end-of-day boundaries read naturally in config files.
func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, err
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock value %q out of range", s)
	}
	return h*60 + m, nil
}

// Store holds the current configuration snapshot behind an atomic pointer so
// a reload swaps the whole reference and concurrent evaluations never
// observe a torn configuration.
type Store struct {
	path string
	snap atomic.Pointer[Snapshot]
}

// NewStore parses the config file at path and returns a store holding it.
func NewStore(path string) (*Store, error) {
	snap, err := Parse(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path}
	s.snap.Store(snap)
	return s, nil
}

// Snapshot returns the current immutable configuration.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Reload reparses the config file and atomically swaps the snapshot. On
// failure the previous snapshot stays in place.
func (s *Store) Reload() (*Snapshot, error) {
	snap, err := Parse(s.path)
	if err != nil {
		return nil, err
	}
	s.snap.Store(snap)
	return snap, nil
}
