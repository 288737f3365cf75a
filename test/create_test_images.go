package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// createTestImage creates a test image with specified dimensions and color
func createTestImage(width, height int, bgColor color.NRGBA) *image.NRGBA {
	img := imaging.New(width, height, bgColor)

	// Checkerboard tiles make scaling artifacts easy to spot
	white := imaging.New(25, 25, color.NRGBA{255, 255, 255, 255})
	for y := 0; y < height; y += 50 {
		for x := 0; x < width; x += 50 {
			if (x/50+y/50)%2 == 0 {
				img = imaging.Paste(img, white, image.Pt(x, y))
			}
		}
	}

	return img
}

func saveAs(img image.Image, path string, format imaging.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return imaging.Encode(f, img, format, imaging.JPEGQuality(90))
}

// withOrientation inserts an APP1 Exif segment holding only the Orientation tag
func withOrientation(jpegData []byte, orientation int) []byte {
	tiff := []byte{
		'M', 'M', 0, 42, 0, 0, 0, 8,
		0, 1,
		0x01, 0x12, 0, 3, 0, 0, 0, 1, 0, byte(orientation), 0, 0,
		0, 0, 0, 0,
	}
	payload := append([]byte("Exif\x00\x00"), tiff...)
	n := len(payload) + 2

	out := append([]byte{}, jpegData[:2]...)
	out = append(out, 0xFF, 0xE1, byte(n>>8), byte(n))
	out = append(out, payload...)
	return append(out, jpegData[2:]...)
}

// saveRotated writes a landscape JPEG tagged as rotated 90 degrees clockwise,
// so it should come out portrait after conversion
func saveRotated(path string) error {
	var buf bytes.Buffer
	img := createTestImage(1600, 900, color.NRGBA{255, 128, 0, 255})
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return err
	}
	return os.WriteFile(path, withOrientation(buf.Bytes(), 6), 0644)
}

func main() {
	dir := "input"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fmt.Println("failed to create directory:", err)
		os.Exit(1)
	}

	testImages := []struct {
		name   string
		width  int
		height int
		color  color.NRGBA
		format imaging.Format
	}{
		// Wider than the default max width of 800
		{"photo.JPG", 1920, 1080, color.NRGBA{255, 0, 0, 255}, imaging.JPEG},
		{"panorama.jpeg", 3000, 1000, color.NRGBA{0, 255, 0, 255}, imaging.JPEG},
		{"large.png", 2560, 1440, color.NRGBA{255, 0, 255, 255}, imaging.PNG},

		// Already small enough, kept at original size
		{"diagram.png", 640, 480, color.NRGBA{64, 64, 64, 255}, imaging.PNG},
		{"thumb.jpg", 320, 240, color.NRGBA{192, 192, 192, 255}, imaging.JPEG},

		// No recognized extension; the name is kept as-is
		{"scan", 1024, 768, color.NRGBA{0, 0, 255, 255}, imaging.PNG},
	}

	for _, ti := range testImages {
		path := filepath.Join(dir, ti.name)
		if err := saveAs(createTestImage(ti.width, ti.height, ti.color), path, ti.format); err != nil {
			fmt.Printf("failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("  - %s (%dx%d)\n", ti.name, ti.width, ti.height)
	}

	if err := saveRotated(filepath.Join(dir, "rotated.jpg")); err != nil {
		fmt.Println("failed to write rotated.jpg:", err)
		os.Exit(1)
	}
	fmt.Println("  - rotated.jpg (1600x900, EXIF orientation 6, upright 900x1600)")

	// Not an image at all; expected to show up as a failed file
	if err := os.WriteFile(filepath.Join(dir, "notes.png"), []byte("not an image"), 0644); err != nil {
		fmt.Println("failed to write notes.png:", err)
		os.Exit(1)
	}
	fmt.Println("  - notes.png (invalid)")

	fmt.Println("Test images created in", dir)
}
