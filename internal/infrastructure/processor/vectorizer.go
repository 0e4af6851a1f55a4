package processor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/contour"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/imagetype"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	svg "github.com/ajstarks/svgo"
)

// Threshold is the luminance at or above which a pixel is foreground.
const Threshold = 127

type Vectorizer struct{}

func NewVectorizer() *Vectorizer {
	return &Vectorizer{}
}

// Vectorize traces every border of the thresholded raster except the largest one and
// fills them black. Rasters without usable borders are emitted pixel by pixel.
func (v *Vectorizer) Vectorize(ctx context.Context, data []byte) ([]byte, error) {
	contentType, ok := imagetype.Detect(data)
	if !ok {
		return nil, fmt.Errorf("Vectorizer - Vectorize - imagetype.Detect(%s): %w", contentType, errs.ErrUnsupportedType)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("Vectorizer - Vectorize: %w", err)
	}

	bm := contour.Threshold(img, Threshold)
	contours := contour.Find(bm)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Vectorizer - Vectorize: %w", err)
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(bm.Width, bm.Height)

	if len(contours) == 0 || bm.Uniform() {
		drawPixels(canvas, bm)
	} else {
		drawContours(canvas, contours)
	}

	canvas.End()

	return buf.Bytes(), nil
}

func drawContours(canvas *svg.SVG, contours []contour.Contour) {
	outermost := contour.Largest(contours)

	for k, c := range contours {
		if k == outermost {
			continue
		}

		pts := contour.Simplify(c.Points)
		if first, last := pts[0], pts[len(pts)-1]; first != last {
			pts = append(pts, first)
		}

		xs := make([]int, len(pts))
		ys := make([]int, len(pts))
		for i, p := range pts {
			xs[i], ys[i] = p.X, p.Y
		}

		canvas.Polygon(xs, ys, `fill="black"`, `stroke="black"`)
	}
}

func drawPixels(canvas *svg.SVG, bm *contour.Bitmap) {
	for y := 0; y < bm.Height; y++ {
		for x := 0; x < bm.Width; x++ {
			fill := `fill="white"`
			if bm.At(x, y) {
				fill = `fill="black"`
			}
			canvas.Rect(x, y, 1, 1, fill)
		}
	}
}
