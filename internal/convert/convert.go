// Package convert turns uploaded JPEG and PNG files into width-capped WebP images.
package convert

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
)

// Quality is the fixed lossy quality on the encoder's 0-100 scale.
const Quality = 80

// File is an uploaded file read into memory.
type File struct {
	Name string
	Data []byte
}

// Result is one successfully converted image.
type Result struct {
	Name         string
	Data         []byte
	Width        int
	Height       int
	SourceWidth  int
	SourceHeight int
}

// Failure records a file that could not be converted.
type Failure struct {
	Name string
	Err  error
}

// BatchReport collects the outcome of ConvertBatch. Results are in completion order.
type BatchReport struct {
	Results  []Result
	Failures []Failure
}

// Encoder writes img to w in the output format.
type Encoder interface {
	Encode(ctx context.Context, w io.Writer, img image.Image) error
}

// EncoderFunc adapts a function to the Encoder interface.
type EncoderFunc func(ctx context.Context, w io.Writer, img image.Image) error

// Encode calls f.
func (f EncoderFunc) Encode(ctx context.Context, w io.Writer, img image.Image) error {
	return f(ctx, w, img)
}

// Converter runs the per-file pipeline.
type Converter struct {
	enc    Encoder
	logger *slog.Logger
}

// NewConverter returns a Converter encoding with enc.
func NewConverter(enc Encoder, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{enc: enc, logger: logger}
}

// Convert decodes f, scales it down to maxWidth if needed and encodes it.
func (c *Converter) Convert(ctx context.Context, f File, maxWidth int) (Result, error) {
	return c.convert(ctx, f, func() int { return maxWidth })
}

func (c *Converter) convert(ctx context.Context, f File, maxWidth func() int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	img, format, err := Decode(f.Data)
	if err != nil {
		return Result{}, err
	}
	if format == "jpeg" {
		img = applyOrientation(img, orientation(f.Data))
	}

	bounds := img.Bounds()
	originalWidth, originalHeight := bounds.Dx(), bounds.Dy()

	// read the width only now so edits made while earlier steps ran take effect
	mw := maxWidth()
	if err := ValidateMaxWidth(mw); err != nil {
		return Result{}, err
	}
	newWidth, newHeight := TargetSize(originalWidth, originalHeight, mw)
	resized := Resize(img, newWidth, newHeight)

	var buf bytes.Buffer
	if err := c.enc.Encode(ctx, &buf, resized); err != nil {
		return Result{}, fmt.Errorf("failed to encode image: %w", err)
	}

	res := Result{
		Name:         DeriveName(f.Name),
		Data:         buf.Bytes(),
		Width:        newWidth,
		Height:       newHeight,
		SourceWidth:  originalWidth,
		SourceHeight: originalHeight,
	}

	ratio := 0.0
	if len(f.Data) > 0 {
		ratio = float64(len(res.Data)) / float64(len(f.Data))
	}
	c.logger.Info("Processing completed",
		"file", f.Name,
		"from", fmt.Sprintf("%dx%d", originalWidth, originalHeight),
		"to", fmt.Sprintf("%dx%d", newWidth, newHeight),
		"input_bytes", len(f.Data),
		"output_bytes", len(res.Data),
		"ratio", fmt.Sprintf("%.2f", ratio))
	return res, nil
}

// ConvertBatch converts every file concurrently and returns once all of them
// have settled. maxWidth is called when each file reaches its resize step.
// onResult, if non-nil, is called once per success as it completes.
func (c *Converter) ConvertBatch(ctx context.Context, files []File, maxWidth func() int, onResult func(Result)) BatchReport {
	var (
		report BatchReport
		mu     sync.Mutex
		wg     sync.WaitGroup
	)
	if len(files) == 0 {
		return report
	}

	for _, f := range files {
		wg.Add(1)
		go func(f File) {
			defer wg.Done()
			res, err := c.convert(ctx, f, maxWidth)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("Skipping file", "file", f.Name, "error", err)
				report.Failures = append(report.Failures, Failure{Name: f.Name, Err: err})
				return
			}
			report.Results = append(report.Results, res)
			if onResult != nil {
				onResult(res)
			}
		}(f)
	}
	wg.Wait()

	c.logger.Debug("Batch settled", "files", len(files), "converted", len(report.Results), "failed", len(report.Failures))
	return report
}
