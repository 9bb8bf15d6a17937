package board

import "testing"

func TestSquareDistance(t *testing.T) {
	cases := []struct {
		a, b Square
		want int
	}{
		{E1, E1, 0},
		{A1, H1, 7},
		{A1, A8, 7},
		{A1, H8, 7}, // Chebyshev, not Manhattan
		{E1, E8, 7},
		{D4, E5, 1},
	}
	for _, c := range cases {
		if got := c.a.Distance(c.b); got != c.want {
			t.Errorf("%s.Distance(%s) = %d, want %d", c.a, c.b, got, c.want)
		}
		if got := c.b.Distance(c.a); got != c.want {
			t.Errorf("%s.Distance(%s) = %d, want %d (not symmetric)", c.b, c.a, got, c.want)
		}
	}
}

func TestSquareEdgeDistance(t *testing.T) {
	cases := []struct {
		sq   Square
		want int
	}{
		{A1, 0},
		{H8, 0},
		{E1, 0},
		{D4, 3},
		{E5, 3},
		{C3, 2},
	}
	for _, c := range cases {
		if got := c.sq.EdgeDistance(); got != c.want {
			t.Errorf("%s.EdgeDistance() = %d, want %d", c.sq, got, c.want)
		}
	}
}
