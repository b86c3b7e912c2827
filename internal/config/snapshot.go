package config

import (
	"github.com/trafficfuzz/route-advisor/internal/daypart"
	"github.com/trafficfuzz/route-advisor/internal/fuzzy"
	"github.com/trafficfuzz/route-advisor/internal/rules"
)

// OutputTerm pairs an output fuzzy term with the representative crisp value
// used during defuzzification.
type OutputTerm struct {
	Name  string
	Value float64
}

// Snapshot is one immutable, fully validated configuration. Every evaluation
// holds the snapshot pointer it started with, so a concurrent reload can
// never expose a half-updated configuration to an in-flight request.
type Snapshot struct {
	Model               *fuzzy.Model
	Groups              []rules.Group
	DayParts            *daypart.Table
	OutputVariable      string
	OutputTerms         []OutputTerm
	ConfidenceThreshold float64
	NeutralScore        float64
}

// OutputValue returns the representative value for an output term.
func (s *Snapshot) OutputValue(term string) (float64, bool) {
	for _, t := range s.OutputTerms {
		if t.Name == term {
			return t.Value, true
		}
	}
	return 0, false
}
