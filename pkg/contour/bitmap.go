package contour

import (
	"image"
	"image/color"
)

// Bitmap is a binary raster; true marks a foreground pixel.
type Bitmap struct {
	Width  int
	Height int
	Pix    []bool
}

func NewBitmap(width, height int) *Bitmap {
	return &Bitmap{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// At reports whether (x, y) is foreground. Pixels outside the bitmap are background.
func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Pix[y*b.Width+x]
}

func (b *Bitmap) Set(x, y int, v bool) {
	b.Pix[y*b.Width+x] = v
}

// Uniform reports whether every pixel has the same value.
func (b *Bitmap) Uniform() bool {
	if len(b.Pix) == 0 {
		return true
	}
	for _, p := range b.Pix[1:] {
		if p != b.Pix[0] {
			return false
		}
	}
	return true
}

// Threshold binarizes img: pixels whose luminance is at least level become foreground.
func Threshold(img image.Image, level uint8) *Bitmap {
	bounds := img.Bounds()
	b := NewBitmap(bounds.Dx(), bounds.Dy())

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < b.Height; y++ {
			off := gray.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			row := gray.Pix[off : off+b.Width]
			for x, v := range row {
				b.Pix[y*b.Width+x] = v >= level
			}
		}
		return b
	}

	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			b.Pix[y*b.Width+x] = g.Y >= level
		}
	}

	return b
}
