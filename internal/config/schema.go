package config

// Raw YAML document shapes. These are parse-time only; Compile turns them
// into the read-only Snapshot the pipeline evaluates against.

type rawConfig struct {
	Variables           []rawVariable `yaml:"variables"`
	Output              rawOutput     `yaml:"output"`
	Groups              []rawGroup    `yaml:"groups"`
	DayParts            []rawDayPart  `yaml:"day_parts"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	NeutralScore        *float64      `yaml:"neutral_score"`
}

type rawVariable struct {
	Name   string    `yaml:"name"`
	Domain []float64 `yaml:"domain,omitempty"`
	Terms  []rawTerm `yaml:"terms"`
}

type rawTerm struct {
	Name   string    `yaml:"name"`
	Shape  string    `yaml:"shape"`
	Points []float64 `yaml:"points"`
}

type rawOutput struct {
	Name  string          `yaml:"name"`
	Terms []rawOutputTerm `yaml:"terms"`
}

type rawOutputTerm struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
}

type rawGroup struct {
	Name       string    `yaml:"name"`
	BaseWeight *float64  `yaml:"base_weight"`
	Rules      []rawRule `yaml:"rules"`
}

type rawRule struct {
	When   rawExpr  `yaml:"when"`
	Then   string   `yaml:"then"`
	Weight *float64 `yaml:"weight"`
}

type rawExpr struct {
	Var  string    `yaml:"var,omitempty"`
	Term string    `yaml:"term,omitempty"`
	All  []rawExpr `yaml:"all,omitempty"`
	Any  []rawExpr `yaml:"any,omitempty"`
}

type rawDayPart struct {
	Name        string             `yaml:"name"`
	Start       string             `yaml:"start"`
	End         string             `yaml:"end"`
	Multipliers map[string]float64 `yaml:"multipliers,omitempty"`
}
