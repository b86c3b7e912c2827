package types

import "time"

// AdviseRequest is the input boundary of an advisory request. Signals maps
// route identifiers to crisp signal readings; missing signals are simply
// absent keys, which is what lets the pipeline degrade gracefully instead of
// requiring null placeholders.
type AdviseRequest struct {
	Routes    []string                      `json:"routes" binding:"required"`
	Signals   map[string]map[string]float64 `json:"signals" binding:"required"`
	Timestamp time.Time                     `json:"timestamp"`
}

// RouteAdvice is one ranked recommendation. TermActivations carries the
// resolved fuzzy output so callers can see why confidence was high or low.
type RouteAdvice struct {
	RouteID         string             `json:"route_id"`
	Score           float64            `json:"score"`
	Rank            int                `json:"rank"`
	TermActivations map[string]float64 `json:"term_activations"`
}
