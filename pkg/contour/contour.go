// Package contour traces the borders of a binary bitmap with the Suzuki-Abe border
// following algorithm (8-connectivity, full outer/hole hierarchy).
package contour

import "math"

type Point struct {
	X, Y int
}

type Kind int

const (
	Outer Kind = iota
	Hole
)

func (k Kind) String() string {
	if k == Hole {
		return "hole"
	}
	return "outer"
}

type Contour struct {
	Points []Point
	Kind   Kind
	// Parent is the index of the enclosing contour, or -1 for top-level borders.
	Parent int
}

// neighbors lists the 8 offsets (di, dj) counter-clockwise starting east.
var neighbors = [8][2]int{
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
}

func direction(di, dj int) int {
	for d, n := range neighbors {
		if n[0] == di && n[1] == dj {
			return d
		}
	}
	panic("contour: not a neighbor offset")
}

type border struct {
	kind   Kind
	parent int // border number, 0 for none
}

// Find returns every border of b in raster-scan discovery order.
// Points are pixel coordinates of border pixels, in following order and unsimplified.
func Find(b *Bitmap) []Contour {
	w, h := b.Width+2, b.Height+2

	// padded copy: the frame is background
	f := make([]int32, w*h)
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			if b.Pix[y*b.Width+x] {
				f[(y+1)*w+x+1] = 1
			}
		}
	}
	at := func(i, j int) int32 { return f[i*w+j] }
	set := func(i, j int, v int32) { f[i*w+j] = v }

	// border number 1 is the frame, a hole
	borders := []border{{}, {kind: Hole}}
	var contours []Contour

	nbd := int32(1)
	for i := 1; i < h-1; i++ {
		lnbd := int32(1)
		for j := 1; j < w-1; j++ {
			v := at(i, j)
			if v == 0 {
				continue
			}

			var (
				kind   Kind
				i2, j2 int
				start  bool
			)
			switch {
			case v == 1 && at(i, j-1) == 0:
				kind, i2, j2, start = Outer, i, j-1, true
			case v >= 1 && at(i, j+1) == 0:
				kind, i2, j2, start = Hole, i, j+1, true
				if v > 1 {
					lnbd = v
				}
			}

			if start {
				nbd++

				prev := borders[lnbd]
				parent := int(lnbd)
				if prev.kind == kind {
					parent = prev.parent
				}
				borders = append(borders, border{kind: kind, parent: parent})

				points := follow(at, set, nbd, i, j, i2, j2)
				contours = append(contours, Contour{Points: points, Kind: kind, Parent: parent - 2})
			}

			if v := at(i, j); v != 1 {
				lnbd = abs32(v)
			}
		}
	}

	for k := range contours {
		if contours[k].Parent < 0 {
			contours[k].Parent = -1
		}
	}

	return contours
}

func follow(at func(i, j int) int32, set func(i, j int, v int32), nbd int32, i, j, i2, j2 int) []Point {
	// 3.1: clockwise from (i2, j2) for the first non-zero neighbor
	d0 := direction(i2-i, j2-j)
	i1, j1, found := 0, 0, false
	for k := 0; k < 8; k++ {
		d := (d0 - k + 8) % 8
		ni, nj := i+neighbors[d][0], j+neighbors[d][1]
		if at(ni, nj) != 0 {
			i1, j1, found = ni, nj, true
			break
		}
	}
	if !found {
		set(i, j, -nbd)
		return []Point{{X: j - 1, Y: i - 1}}
	}

	var points []Point
	i2, j2 = i1, j1
	i3, j3 := i, j
	for {
		points = append(points, Point{X: j3 - 1, Y: i3 - 1})

		// 3.3: counter-clockwise, starting after (i2, j2)
		d0 = direction(i2-i3, j2-j3)
		eastZero := false
		var i4, j4 int
		for k := 1; k <= 8; k++ {
			d := (d0 + k) % 8
			ni, nj := i3+neighbors[d][0], j3+neighbors[d][1]
			if at(ni, nj) != 0 {
				i4, j4 = ni, nj
				break
			}
			if d == 0 {
				eastZero = true
			}
		}

		// 3.4
		switch {
		case eastZero:
			set(i3, j3, -nbd)
		case at(i3, j3) == 1:
			set(i3, j3, nbd)
		}

		// 3.5
		if i4 == i && j4 == j && i3 == i1 && j3 == j1 {
			return points
		}
		i2, j2 = i3, j3
		i3, j3 = i4, j4
	}
}

// Simplify drops points interior to straight horizontal, vertical or diagonal runs,
// treating pts as a closed chain.
func Simplify(pts []Point) []Point {
	n := len(pts)
	if n < 3 {
		return append([]Point(nil), pts...)
	}

	out := make([]Point, 0, n)
	for k := 0; k < n; k++ {
		prev, cur, next := pts[(k-1+n)%n], pts[k], pts[(k+1)%n]
		inX, inY := sign(cur.X-prev.X), sign(cur.Y-prev.Y)
		outX, outY := sign(next.X-cur.X), sign(next.Y-cur.Y)
		if inX == outX && inY == outY {
			continue
		}
		out = append(out, cur)
	}

	return out
}

// Area is the absolute shoelace area of the closed polygon pts.
func Area(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}

	var s int
	for k := 0; k < n; k++ {
		p, q := pts[k], pts[(k+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}

	return math.Abs(float64(s)) / 2
}

// Largest returns the index of the contour with the greatest area, the first on ties,
// or -1 when cs is empty.
func Largest(cs []Contour) int {
	best, bestArea := -1, -1.0
	for k, c := range cs {
		if a := Area(c.Points); a > bestArea {
			best, bestArea = k, a
		}
	}
	return best
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
