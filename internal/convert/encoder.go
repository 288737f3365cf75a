package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Encoder kinds accepted by NewEncoder.
const (
	EncoderAuto   = "auto"
	EncoderNative = "native"
	EncoderFFmpeg = "ffmpeg"
)

// NewEncoder returns the WebP encoder of the given kind. "auto" picks the
// native encoder when it is compiled in and falls back to ffmpeg otherwise.
func NewEncoder(kind, ffmpegPath string) (Encoder, error) {
	switch strings.ToLower(kind) {
	case "", EncoderAuto:
		if isNativeSupported() {
			return newNativeEncoder()
		}
		return &FFmpegEncoder{Path: ffmpegPath}, nil
	case EncoderNative:
		return newNativeEncoder()
	case EncoderFFmpeg:
		return &FFmpegEncoder{Path: ffmpegPath}, nil
	default:
		return nil, fmt.Errorf("unknown encoder %q", kind)
	}
}

// FFmpegEncoder encodes WebP by piping a PNG frame through ffmpeg's libwebp.
type FFmpegEncoder struct {
	// Path to the ffmpeg binary; empty uses ffmpeg from PATH.
	Path string
}

func (e *FFmpegEncoder) Encode(ctx context.Context, w io.Writer, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var frame bytes.Buffer
	if err := png.Encode(&frame, img); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	kwargs := ffmpeg.KwArgs{
		"c:v":      "libwebp",
		"quality":  strconv.Itoa(Quality),
		"lossless": "0",
		"f":        "webp",
	}

	var out, stderr bytes.Buffer
	stream := ffmpeg.Input("pipe:", ffmpeg.KwArgs{"f": "png_pipe"}).
		Output("pipe:", kwargs).
		WithInput(&frame).
		WithOutput(&out).
		WithErrorOutput(&stderr)
	if e.Path != "" {
		stream = stream.SetFfmpegPath(e.Path)
	}

	if err := stream.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if out.Len() == 0 {
		return fmt.Errorf("ffmpeg produced no output")
	}

	_, err := w.Write(out.Bytes())
	return err
}
