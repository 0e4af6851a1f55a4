package testsupport

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// SquaresPNG encodes a black w x h canvas with white filled rectangles.
func SquaresPNG(t testing.TB, w, h int, rects ...image.Rectangle) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, squares(w, h, rects)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	return buf.Bytes()
}

// SquaresJPEG is SquaresPNG encoded as a high quality JPEG.
func SquaresJPEG(t testing.TB, w, h int, rects ...image.Rectangle) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, squares(w, h, rects), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}

	return buf.Bytes()
}

func squares(w, h int, rects []image.Rectangle) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}
