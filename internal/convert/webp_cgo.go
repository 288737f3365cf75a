//go:build cgo
// +build cgo

package convert

import (
	"context"
	"image"
	"io"

	"github.com/chai2010/webp"
)

// nativeEncoder encodes lossy WebP through libwebp
type nativeEncoder struct{}

func (nativeEncoder) Encode(ctx context.Context, w io.Writer, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: Quality})
}

// newNativeEncoder returns the libwebp encoder
func newNativeEncoder() (Encoder, error) {
	return nativeEncoder{}, nil
}

// isNativeSupported returns true if the libwebp encoder is compiled in
func isNativeSupported() bool {
	return true
}
