// Package objectkey generates blob store keys of the form
// {TYPE}/{YYYYMMDD}/{unixmillis}-{rand5}-{rand3}-{rand1}.{ext}.
package objectkey

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const digits = "0123456789"

// New returns a fresh key for a file with extension ext, dated by now (UTC).
func New(ext string, now time.Time) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	now = now.UTC()

	return fmt.Sprintf("%s/%s/%d-%s-%s-%s.%s",
		strings.ToUpper(ext),
		now.Format("20060102"),
		now.UnixMilli(),
		randomDigits(5),
		randomDigits(3),
		randomDigits(1),
		ext,
	)
}

// Ext maps a raster content type to the file extension used in keys.
func Ext(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/svg+xml":
		return "svg"
	}
	return "bin"
}

func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)

	limit := big.NewInt(int64(len(digits)))
	for range n {
		i, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		b.WriteByte(digits[i.Int64()])
	}

	return b.String()
}
