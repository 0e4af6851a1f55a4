package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/andreyxaxa/Image-Vectorizer/pkg/imagetype"
	"github.com/andreyxaxa/Image-Vectorizer/pkg/types/errs"
	"github.com/disintegration/imaging"
)

// Images narrower or shorter than this are not downscaled below their own size.
const minSide = 100

type Preprocessor struct{}

func NewPreprocessor() *Preprocessor {
	return &Preprocessor{}
}

// Preprocess halves the raster (never below minSide px per axis and never upscaling),
// converts it to single-channel grayscale and re-encodes it in its original format.
func (p *Preprocessor) Preprocess(ctx context.Context, data []byte) ([]byte, error) {
	contentType, ok := imagetype.Detect(data)
	if !ok {
		return nil, fmt.Errorf("Preprocessor - Preprocess - imagetype.Detect(%s): %w", contentType, errs.ErrUnsupportedType)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("Preprocessor - Preprocess: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Preprocessor - Preprocess: %w", err)
	}

	b := img.Bounds()
	resized := imaging.Resize(img, targetSide(b.Dx()), targetSide(b.Dy()), imaging.Lanczos)

	res, err := encodeImage(toGray(resized), contentType)
	if err != nil {
		return nil, fmt.Errorf("Preprocessor - Preprocess: %w", err)
	}

	return res, nil
}

func targetSide(n int) int {
	return max(n/2, min(n, minSide))
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	return gray
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

func encodeImage(img image.Image, contentType string) ([]byte, error) {
	var buf bytes.Buffer
	var format imaging.Format

	switch contentType {
	case imagetype.JPEG:
		format = imaging.JPEG
	case imagetype.PNG:
		format = imaging.PNG
	default:
		return nil, fmt.Errorf("encodeImage(%s): %w", contentType, errs.ErrUnsupportedType)
	}

	err := imaging.Encode(&buf, img, format)
	if err != nil {
		return nil, fmt.Errorf("encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
