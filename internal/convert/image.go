package convert

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"regexp"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/rwcarlsen/goexif/exif"
)

// OutputExt is the extension given to every converted file.
const OutputExt = ".webp"

var (
	// ErrUnsupportedFormat is returned when the input is neither JPEG nor PNG.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrInvalidMaxWidth is returned for a max width that is not a positive pixel count.
	ErrInvalidMaxWidth = errors.New("max width must be greater than 0")
)

var inputExtPattern = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)

// DeriveName swaps a recognized input extension for OutputExt.
// Names without a .jpg, .jpeg or .png suffix are returned unchanged.
func DeriveName(name string) string {
	return inputExtPattern.ReplaceAllString(name, OutputExt)
}

// ValidateMaxWidth checks a user supplied max width.
func ValidateMaxWidth(maxWidth int) error {
	if maxWidth <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidMaxWidth, maxWidth)
	}
	return nil
}

// TargetSize calculates the output dimensions for an image of w x h.
// Images no wider than maxWidth keep their size; wider ones are scaled down
// so the width is exactly maxWidth.
func TargetSize(w, h, maxWidth int) (int, int) {
	if maxWidth <= 0 || w <= maxWidth {
		return w, h
	}

	newHeight := int(math.Round(float64(h) * float64(maxWidth) / float64(w)))
	if newHeight < 1 {
		newHeight = 1
	}
	return maxWidth, newHeight
}

// Decode decodes JPEG or PNG data, sniffing the format from the content.
func Decode(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if format != "jpeg" && format != "png" {
		return nil, format, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, format, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	return img, format, nil
}

// Resize scales src to exactly newWidth x newHeight.
func Resize(src image.Image, newWidth, newHeight int) image.Image {
	b := src.Bounds()
	if b.Dx() == newWidth && b.Dy() == newHeight {
		return src
	}
	// Lanczos3 gives the best quality for photo downscaling
	return resize.Resize(uint(newWidth), uint(newHeight), src, resize.Lanczos3)
}

// orientation reads the EXIF Orientation tag, returning 1 when absent.
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// applyOrientation returns img transformed upright for the given EXIF orientation.
func applyOrientation(img image.Image, o int) image.Image {
	switch o {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		// 90 degrees clockwise
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}
