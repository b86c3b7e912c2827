package fuzzy

// MembershipFunc maps a crisp value to a membership degree in [0,1] for one term.
type MembershipFunc func(x float64) float64

// Triangle builds a triangular membership function with breakpoints a <= b <= c.
// Degree is 0 outside [a,c], 1 at b, and linear on the slopes. A degenerate
// slope (a == b or b == c) acts as a shoulder: the flat side holds degree 1.
func Triangle(a, b, c float64) MembershipFunc {
	return func(x float64) float64 {
		if x < a || x > c {
			return 0
		}
		if x == b {
			return 1
		}
		if x < b {
			if b == a {
				return 1
			}
			return (x - a) / (b - a)
		}
		if c == b {
			return 1
		}
		return (c - x) / (c - b)
	}
}

// Trapezoid builds a trapezoidal membership function with breakpoints
// a <= b <= c <= d. Degree is 0 outside [a,d], 1 on the plateau [b,c], and
// linear on the slopes.
func Trapezoid(a, b, c, d float64) MembershipFunc {
	return func(x float64) float64 {
		if x < a || x > d {
			return 0
		}
		if x >= b && x <= c {
			return 1
		}
		if x < b {
			if b == a {
				return 1
			}
			return (x - a) / (b - a)
		}
		if d == c {
			return 1
		}
		return (d - x) / (d - c)
	}
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
