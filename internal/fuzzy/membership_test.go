package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriangle(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"below left breakpoint", -5, 0},
		{"at left breakpoint", 0, 0},
		{"midway up the slope", 5, 0.5},
		{"at peak", 10, 1},
		{"midway down the slope", 15, 0.5},
		{"at right breakpoint", 20, 0},
		{"above right breakpoint", 25, 0},
	}

	mf := Triangle(0, 10, 20)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, mf(tt.x), 1e-9)
		})
	}
}

func TestTriangleDegenerateSlopes(t *testing.T) {
	// Left shoulder: a == b means the left side holds full degree.
	left := Triangle(0, 0, 10)
	assert.Equal(t, 1.0, left(0))
	assert.InDelta(t, 0.5, left(5), 1e-9)
	assert.Equal(t, 0.0, left(10))

	// Right shoulder: b == c means the right side holds full degree.
	right := Triangle(0, 10, 10)
	assert.Equal(t, 0.0, right(0))
	assert.InDelta(t, 0.5, right(5), 1e-9)
	assert.Equal(t, 1.0, right(10))

	// Singleton: all breakpoints equal.
	point := Triangle(1, 1, 1)
	assert.Equal(t, 1.0, point(1))
	assert.Equal(t, 0.0, point(0.999))
	assert.Equal(t, 0.0, point(1.001))
}

func TestTrapezoid(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		expected float64
	}{
		{"below support", -1, 0},
		{"at left foot", 0, 0},
		{"on rising slope", 10, 0.5},
		{"at plateau start", 20, 1},
		{"on plateau", 40, 1},
		{"at plateau end", 60, 1},
		{"on falling slope", 80, 0.5},
		{"at right foot", 100, 0},
		{"above support", 150, 0},
	}

	mf := Trapezoid(0, 20, 60, 100)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, mf(tt.x), 1e-9)
		})
	}
}

func TestTrapezoidShoulders(t *testing.T) {
	// Open left shoulder the way boundary terms are usually written.
	low := Trapezoid(0, 0, 20, 60)
	assert.Equal(t, 1.0, low(0))
	assert.Equal(t, 1.0, low(20))
	assert.InDelta(t, 0.5, low(40), 1e-9)
	assert.Equal(t, 0.0, low(60))

	// Open right shoulder.
	high := Trapezoid(100, 140, 200, 200)
	assert.Equal(t, 0.0, high(100))
	assert.InDelta(t, 0.5, high(120), 1e-9)
	assert.Equal(t, 1.0, high(140))
	assert.Equal(t, 1.0, high(200))
}

func TestMembershipStaysInUnitInterval(t *testing.T) {
	mfs := []MembershipFunc{
		Triangle(0, 10, 20),
		Triangle(5, 5, 5),
		Trapezoid(0, 0, 20, 60),
		Trapezoid(-10, 0, 0, 10),
	}

	for _, mf := range mfs {
		for x := -50.0; x <= 250.0; x += 0.5 {
			d := mf(x)
			assert.GreaterOrEqual(t, d, 0.0)
			assert.LessOrEqual(t, d, 1.0)
		}
	}
}
