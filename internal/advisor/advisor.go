package advisor

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/trafficfuzz/route-advisor/internal/config"
	"github.com/trafficfuzz/route-advisor/internal/errors"
	"github.com/trafficfuzz/route-advisor/internal/rules"
	"github.com/trafficfuzz/route-advisor/internal/voting"
)

// Request carries everything one advisory request needs: the candidate
// routes, the crisp signals known per route, and the wall-clock instant that
// drives time-of-day weighting.
type Request struct {
	Routes    []string
	Signals   map[string]map[string]float64
	Timestamp time.Time
}

// Decision is the crisp outcome for a single route. Activations keeps the
// resolved per-term output for explainability.
type Decision struct {
	RouteID     string
	Score       float64
	Rank        int
	Activations voting.Resolved
}

// Advisor orchestrates the full pipeline: fuzzify, infer per rule group,
// weight by time of day, resolve the votes and defuzzify into a crisp score.
// It holds no mutable per-request state; every evaluation reads one
// configuration snapshot end to end.
type Advisor struct {
	store *config.Store
}

// New creates an advisor bound to a configuration store.
func New(store *config.Store) *Advisor {
	return &Advisor{store: store}
}

// Advise evaluates every candidate route and returns decisions ordered most
// recommended first. Routes with missing signals or no firing rules are
// never excluded; they fall back to absence propagation and the configured
// neutral score. Only malformed request shapes are rejected.
func (a *Advisor) Advise(req Request) ([]Decision, error) {
	if len(req.Routes) == 0 {
		return nil, errors.NewValidationError("advisory request must name at least one candidate route")
	}
	for _, id := range req.Routes {
		if id == "" {
			return nil, errors.NewValidationError("advisory request contains an empty route identifier")
		}
		if len(req.Signals[id]) == 0 {
			return nil, errors.NewValidationError(fmt.Sprintf("route %q carries no signals", id))
		}
	}

	snap := a.store.Snapshot()

	// Route evaluations are independent and side-effect-free, so they run
	// in parallel. Each goroutine writes only its own slot.
	decisions := make([]Decision, len(req.Routes))
	var wg sync.WaitGroup
	for i, id := range req.Routes {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			decisions[i] = evaluateRoute(snap, id, req.Signals[id], req.Timestamp)
		}(i, id)
	}
	wg.Wait()

	// Rank by descending score; ties break by route identifier so output
	// stays deterministic.
	sort.Slice(decisions, func(i, j int) bool {
		if decisions[i].Score != decisions[j].Score {
			return decisions[i].Score > decisions[j].Score
		}
		return decisions[i].RouteID < decisions[j].RouteID
	})
	for i := range decisions {
		decisions[i].Rank = i + 1
	}
	return decisions, nil
}

// evaluateRoute runs one route through the pipeline in its fixed order:
// fuzzify, infer, resolve, defuzzify.
func evaluateRoute(snap *config.Snapshot, id string, signals map[string]float64, ts time.Time) Decision {
	inputs := snap.Model.Fuzzify(signals)

	votes := make([]voting.Vote, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		acts := rules.Evaluate(g, inputs)
		if len(acts) == 0 {
			// The whole group abstains; it casts no vote at all.
			continue
		}
		votes = append(votes, voting.Vote{
			Voter:       g.Name,
			Weight:      snap.DayParts.WeightFor(g.Name, g.BaseWeight, ts),
			Activations: acts,
		})
	}

	resolved := voting.Resolver{Threshold: snap.ConfidenceThreshold}.Resolve(votes)

	return Decision{
		RouteID:     id,
		Score:       Defuzzify(snap, resolved),
		Activations: resolved,
	}
}

// Defuzzify collapses a resolved fuzzy output into a crisp score: the mean
// of each term's representative value weighted by its resolved activation.
// An empty output, or one with no activation mass, yields the configured
// neutral score so a route with no evidence is still ranked rather than
// dropped.
func Defuzzify(snap *config.Snapshot, resolved voting.Resolved) float64 {
	var num, den float64
	for term, act := range resolved {
		v, ok := snap.OutputValue(term)
		if !ok {
			continue
		}
		num += v * act
		den += act
	}
	if den == 0 {
		return snap.NeutralScore
	}
	return num / den
}
