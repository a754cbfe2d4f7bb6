package snapshot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"pixelflut/internal/pixmap"
)

// Save encodes the canvas's current contents as a PNG and writes it to
// path. Save reads the canvas concurrently with any connection still
// writing to it, so the saved image may show a mix of old and new pixels
// for whatever writes race the save — the same tolerance the canvas
// already requires of any other reader.
func Save(pix *pixmap.Pixmap, path string) error {
	width, height := pix.Dimensions()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := pix.Get(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: a})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	return f.Close()
}

// Load decodes a PNG at path and writes its pixels onto pix, clipping to
// whichever of the two is smaller in each dimension (a snapshot taken on a
// differently-sized canvas is not an error, just partially applied).
func Load(pix *pixmap.Pixmap, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return fmt.Errorf("snapshot: decode %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := pix.Dimensions()
	maxX := bounds.Dx()
	if width < maxX {
		maxX = width
	}
	maxY := bounds.Dy()
	if height < maxY {
		maxY = height
	}

	for y := 0; y < maxY; y++ {
		for x := 0; x < maxX; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			pix.Set(x, y, uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8))
		}
	}
	return nil
}
