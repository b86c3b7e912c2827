package voting

import (
	"github.com/trafficfuzz/route-advisor/internal/rules"
)

// Vote is one voter's output annotated with the voter's effective weight
// after time-of-day adaptation.
type Vote struct {
	Voter       string
	Weight      float64
	Activations rules.Activations
}

// Resolved maps output terms to aggregated activations in [0,1]. Terms no
// voter reported stay absent, so true abstention propagates downstream.
type Resolved map[string]float64

// Resolver reconciles conflicting votes per output term using confidence
// deltas rather than plain majority.
type Resolver struct {
	// Threshold is the minimum gap between the two strongest weighted
	// activations for the majority to win outright. Below it the term is
	// treated as a genuine conflict and averaged instead.
	Threshold float64
}

// report is one voter's weighted activation for a single term.
type report struct {
	weight   float64
	weighted float64
}

// Resolve aggregates all votes into one activation per output term.
//
// For each term, voters that reported it contribute their weighted
// activation (weight times activation, clamped to [0,1]); voters that did
// not report it abstain and are excluded. The delta between the strongest
// and second-strongest weighted activation decides the path: at or above
// the threshold the strongest wins, below it the resolved value is a
// weight-biased average of all reporting voters. An exact tie gives delta 0
// and always takes the averaging path. Resolve never fails: with no votes,
// or no reported terms, the result is simply empty.
func (r Resolver) Resolve(votes []Vote) Resolved {
	byTerm := make(map[string][]report)
	for _, v := range votes {
		for term, a := range v.Activations {
			wa := v.Weight * a
			if wa < 0 {
				wa = 0
			}
			if wa > 1 {
				wa = 1
			}
			byTerm[term] = append(byTerm[term], report{weight: v.Weight, weighted: wa})
		}
	}

	out := make(Resolved, len(byTerm))
	for term, reports := range byTerm {
		if len(reports) == 1 {
			out[term] = reports[0].weighted
			continue
		}

		best, second := topTwo(reports)
		if best-second >= r.Threshold {
			out[term] = best
			continue
		}

		// Close conflict: average every reporting voter's weighted
		// activation, biased toward higher-weight voters.
		var num, den float64
		for _, rep := range reports {
			num += rep.weight * rep.weighted
			den += rep.weight
		}
		if den > 0 {
			out[term] = num / den
		}
	}
	return out
}

func topTwo(reports []report) (best, second float64) {
	for _, rep := range reports {
		if rep.weighted > best {
			second = best
			best = rep.weighted
		} else if rep.weighted > second {
			second = rep.weighted
		}
	}
	return best, second
}
