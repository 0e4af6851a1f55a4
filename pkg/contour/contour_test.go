package contour

import (
	"image"
	"image/color"
	"reflect"
	"testing"
)

// bitmapOf builds a bitmap from rows of '#' (foreground) and '.' (background).
func bitmapOf(t *testing.T, rows ...string) *Bitmap {
	t.Helper()
	b := NewBitmap(len(rows[0]), len(rows))
	for y, row := range rows {
		if len(row) != b.Width {
			t.Fatalf("row %d has width %d, want %d", y, len(row), b.Width)
		}
		for x, c := range row {
			b.Set(x, y, c == '#')
		}
	}
	return b
}

func TestFindSquare(t *testing.T) {
	b := bitmapOf(t,
		"....",
		".##.",
		".##.",
		"....",
	)

	cs := Find(b)
	if len(cs) != 1 {
		t.Fatalf("Find returned %d contours, want 1", len(cs))
	}

	c := cs[0]
	if c.Kind != Outer || c.Parent != -1 {
		t.Errorf("contour kind=%s parent=%d, want outer/-1", c.Kind, c.Parent)
	}

	want := []Point{{1, 1}, {1, 2}, {2, 2}, {2, 1}}
	if !reflect.DeepEqual(c.Points, want) {
		t.Errorf("points = %v, want %v", c.Points, want)
	}
	if a := Area(c.Points); a != 1 {
		t.Errorf("Area = %v, want 1", a)
	}
}

func TestFindSinglePixel(t *testing.T) {
	b := bitmapOf(t,
		"...",
		".#.",
		"...",
	)

	cs := Find(b)
	if len(cs) != 1 {
		t.Fatalf("Find returned %d contours, want 1", len(cs))
	}
	if !reflect.DeepEqual(cs[0].Points, []Point{{1, 1}}) {
		t.Errorf("points = %v, want [{1 1}]", cs[0].Points)
	}
}

func TestFindHierarchy(t *testing.T) {
	b := bitmapOf(t,
		"#######",
		"#.....#",
		"#.###.#",
		"#.#.#.#",
		"#.###.#",
		"#.....#",
		"#######",
	)

	cs := Find(b)

	want := []struct {
		kind   Kind
		parent int
	}{
		{Outer, -1}, // frame ring
		{Hole, 0},   // inside the frame ring
		{Outer, 1},  // inner ring
		{Hole, 2},   // single hole pixel
	}
	if len(cs) != len(want) {
		t.Fatalf("Find returned %d contours, want %d", len(cs), len(want))
	}
	for k, w := range want {
		if cs[k].Kind != w.kind || cs[k].Parent != w.parent {
			t.Errorf("contour %d = %s/%d, want %s/%d", k, cs[k].Kind, cs[k].Parent, w.kind, w.parent)
		}
	}

	if got := Largest(cs); got != 0 {
		t.Errorf("Largest = %d, want 0", got)
	}
}

func TestFindTwoComponents(t *testing.T) {
	b := bitmapOf(t,
		"##..#",
		"##..#",
		".....",
	)

	cs := Find(b)
	if len(cs) != 2 {
		t.Fatalf("Find returned %d contours, want 2", len(cs))
	}
	for k, c := range cs {
		if c.Kind != Outer || c.Parent != -1 {
			t.Errorf("contour %d = %s/%d, want outer/-1", k, c.Kind, c.Parent)
		}
	}
}

func TestFindEmpty(t *testing.T) {
	if cs := Find(NewBitmap(3, 3)); len(cs) != 0 {
		t.Errorf("Find(empty) = %v, want none", cs)
	}
}

func TestSimplify(t *testing.T) {
	tests := []struct {
		name string
		in   []Point
		want []Point
	}{
		{
			name: "horizontal line",
			in:   []Point{{0, 0}, {1, 0}, {2, 0}, {1, 0}},
			want: []Point{{0, 0}, {2, 0}},
		},
		{
			name: "square perimeter",
			in: []Point{
				{0, 0}, {0, 1}, {0, 2}, {1, 2}, {2, 2}, {2, 1}, {2, 0}, {1, 0},
			},
			want: []Point{{0, 0}, {0, 2}, {2, 2}, {2, 0}},
		},
		{
			name: "diagonal",
			in:   []Point{{0, 0}, {1, 1}, {2, 2}, {1, 1}},
			want: []Point{{0, 0}, {2, 2}},
		},
		{
			name: "short",
			in:   []Point{{3, 4}},
			want: []Point{{3, 4}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Simplify(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Simplify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArea(t *testing.T) {
	square := []Point{{0, 0}, {0, 4}, {4, 4}, {4, 0}}
	if a := Area(square); a != 16 {
		t.Errorf("Area(square) = %v, want 16", a)
	}

	reversed := []Point{{4, 0}, {4, 4}, {0, 4}, {0, 0}}
	if a := Area(reversed); a != 16 {
		t.Errorf("Area(reversed) = %v, want 16", a)
	}

	if a := Area([]Point{{0, 0}, {5, 0}}); a != 0 {
		t.Errorf("Area(segment) = %v, want 0", a)
	}
}

func TestLargestFirstOnTies(t *testing.T) {
	sq := []Point{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	cs := []Contour{{Points: sq}, {Points: sq}}
	if got := Largest(cs); got != 0 {
		t.Errorf("Largest = %d, want 0", got)
	}
	if got := Largest(nil); got != -1 {
		t.Errorf("Largest(nil) = %d, want -1", got)
	}
}

func TestThreshold(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 1))
	img.SetGray(0, 0, color.Gray{Y: 126})
	img.SetGray(1, 0, color.Gray{Y: 127})
	img.SetGray(2, 0, color.Gray{Y: 255})

	b := Threshold(img, 127)
	want := []bool{false, true, true}
	if !reflect.DeepEqual(b.Pix, want) {
		t.Errorf("Threshold(gray) = %v, want %v", b.Pix, want)
	}

	rgba := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	rgba.Set(0, 0, color.NRGBA{A: 255})
	rgba.Set(1, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	b = Threshold(rgba, 127)
	if !reflect.DeepEqual(b.Pix, []bool{false, true}) {
		t.Errorf("Threshold(rgba) = %v, want [false true]", b.Pix)
	}
}

func TestUniform(t *testing.T) {
	if !NewBitmap(2, 2).Uniform() {
		t.Error("blank bitmap is not uniform")
	}

	b := bitmapOf(t, "#.")
	if b.Uniform() {
		t.Error("mixed bitmap is uniform")
	}

	if !bitmapOf(t, "##", "##").Uniform() {
		t.Error("full bitmap is not uniform")
	}
}
