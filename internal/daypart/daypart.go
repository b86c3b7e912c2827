package daypart

import (
	"fmt"
	"sort"
	"time"
)

const minutesPerDay = 24 * 60

// Bucket is one named slice of the daily cycle. Start and End are minutes
// since midnight forming the half-open interval [Start,End); End at or
// before Start wraps past midnight. Multipliers scale rule-group weights
// while the bucket is active; groups without an entry keep multiplier 1.
type Bucket struct {
	Name        string
	Start       int
	End         int
	Multipliers map[string]float64
}

func (b Bucket) contains(minute int) bool {
	if b.Start < b.End {
		return minute >= b.Start && minute < b.End
	}
	return minute >= b.Start || minute < b.End
}

// Table maps wall-clock instants to buckets. Built once at configuration
// load, read-only afterwards.
type Table struct {
	buckets []Bucket
}

// NewTable validates that the buckets tile the full 24-hour cycle with no
// gaps and no overlaps, then returns the table. Validation failures are
// configuration errors and abort the load.
func NewTable(buckets []Bucket) (*Table, error) {
	if len(buckets) == 0 {
		return nil, fmt.Errorf("at least one day-part bucket is required")
	}

	type span struct {
		start, end int
		name       string
	}
	var spans []span
	for _, b := range buckets {
		if b.Start < 0 || b.Start >= minutesPerDay || b.End < 0 || b.End > minutesPerDay {
			return nil, fmt.Errorf("bucket %q: boundaries must lie within the day", b.Name)
		}
		for group, m := range b.Multipliers {
			if m <= 0 {
				return nil, fmt.Errorf("bucket %q: multiplier for group %q must be positive, got %v", b.Name, group, m)
			}
		}
		if b.Start < b.End {
			spans = append(spans, span{b.Start, b.End, b.Name})
		} else {
			// Wraps past midnight; split at the day boundary.
			spans = append(spans, span{b.Start, minutesPerDay, b.Name})
			if b.End > 0 {
				spans = append(spans, span{0, b.End, b.Name})
			}
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	cursor := 0
	for _, s := range spans {
		if s.start > cursor {
			return nil, fmt.Errorf("day-part buckets leave a gap starting at %s", minuteClock(cursor))
		}
		if s.start < cursor {
			return nil, fmt.Errorf("day-part bucket %q overlaps at %s", s.name, minuteClock(s.start))
		}
		cursor = s.end
	}
	if cursor != minutesPerDay {
		return nil, fmt.Errorf("day-part buckets leave a gap starting at %s", minuteClock(cursor))
	}

	return &Table{buckets: buckets}, nil
}

// BucketFor returns the bucket active at the given instant.
func (t *Table) BucketFor(ts time.Time) Bucket {
	minute := ts.Hour()*60 + ts.Minute()
	for _, b := range t.buckets {
		if b.contains(minute) {
			return b
		}
	}
	// Unreachable after tiling validation.
	return t.buckets[0]
}

// WeightFor returns the effective weight for a rule group at the given
// instant: the group's base weight scaled by the active bucket's multiplier.
func (t *Table) WeightFor(group string, base float64, ts time.Time) float64 {
	b := t.BucketFor(ts)
	if m, ok := b.Multipliers[group]; ok {
		return base * m
	}
	return base
}

func minuteClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
