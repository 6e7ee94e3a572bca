package testgen

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// GeneratePNG writes a small solid color PNG image and returns its path.
func GeneratePNG(t *testing.T, dir, filename string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	blue := color.RGBA{0, 100, 200, 255}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, blue)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode PNG: %v", err)
	}
	return WriteFile(t, dir, filename, buf.Bytes())
}
