// Package imagetype recognizes the raster formats accepted for conversion by their
// container header, never by file name.
package imagetype

import "github.com/gabriel-vasile/mimetype"

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	SVG  = "image/svg+xml"
)

// Detect returns the content type of data and whether it is a supported raster.
func Detect(data []byte) (string, bool) {
	mt := mimetype.Detect(data)

	switch {
	case mt.Is(JPEG):
		return JPEG, true
	case mt.Is(PNG):
		return PNG, true
	}

	return mt.String(), false
}
