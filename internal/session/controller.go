// Package session owns the state of one converter page: the current max width,
// the converted images and the busy flags shown while work is in flight.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"webpMini/internal/archive"
	"webpMini/internal/blobstore"
	"webpMini/internal/convert"
)

// DefaultMaxWidth is the max width a new session starts with.
const DefaultMaxWidth = 800

const contentTypeWebP = "image/webp"

// ErrNothingToExport is returned by Export before any image has been converted.
var ErrNothingToExport = errors.New("no converted images to export")

// ConvertedImage is one entry of the results collection.
type ConvertedImage struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int    `json:"size"`
}

// FailedFile describes an upload from the last batch that produced no image.
type FailedFile struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// State is a point-in-time copy of the session for rendering.
type State struct {
	Images    []ConvertedImage `json:"images"`
	Failures  []FailedFile     `json:"failures"`
	FileCount int              `json:"file_count"`
	Loading   bool             `json:"loading"`
	Zipping   bool             `json:"zipping"`
	MaxWidth  int              `json:"max_width"`
}

// Controller is the single owner of session state. It is safe for concurrent use.
type Controller struct {
	conv   *convert.Converter
	store  *blobstore.Store
	logger *slog.Logger

	// OnLoadingChange, if set, is called each time the loading state flips.
	// Calls are serialized with the flip itself, so the argument always
	// matches Snapshot().Loading while the hook runs. The hook must not
	// start an upload.
	OnLoadingChange func(loading bool)

	// hookMu orders loading transitions with their hook calls
	hookMu sync.Mutex

	mu        sync.Mutex
	maxWidth  int
	results   []ConvertedImage
	failures  []FailedFile
	fileCount int
	inFlight  int
	zipping   bool

	batches sync.WaitGroup
}

// New creates a Controller. A maxWidth of 0 selects DefaultMaxWidth.
func New(conv *convert.Converter, store *blobstore.Store, maxWidth int, logger *slog.Logger) (*Controller, error) {
	if maxWidth == 0 {
		maxWidth = DefaultMaxWidth
	}
	if err := convert.ValidateMaxWidth(maxWidth); err != nil {
		return nil, err
	}
	if store == nil {
		store = blobstore.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		conv:     conv,
		store:    store,
		logger:   logger,
		maxWidth: maxWidth,
	}, nil
}

// MaxWidth returns the width new resize steps will use.
func (c *Controller) MaxWidth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxWidth
}

// SetMaxWidth changes the width used by conversions that have not reached
// their resize step yet.
func (c *Controller) SetMaxWidth(n int) error {
	if err := convert.ValidateMaxWidth(n); err != nil {
		return err
	}
	c.mu.Lock()
	c.maxWidth = n
	c.mu.Unlock()
	c.logger.Debug("Max width changed", "max_width", n)
	return nil
}

// Upload starts converting files in the background. An empty selection is
// a no-op. ctx bounds the batch, not the call.
func (c *Controller) Upload(ctx context.Context, files []convert.File) error {
	if len(files) == 0 {
		return nil
	}

	c.hookMu.Lock()
	c.mu.Lock()
	c.fileCount = len(files)
	c.inFlight++
	started := c.inFlight == 1
	c.mu.Unlock()
	if started {
		c.notifyLoading(true)
	}
	c.hookMu.Unlock()

	c.logger.Info("Processing images", "files", len(files))
	c.batches.Add(1)
	go c.runBatch(ctx, files)
	return nil
}

func (c *Controller) runBatch(ctx context.Context, files []convert.File) {
	defer c.batches.Done()

	report := c.conv.ConvertBatch(ctx, files, c.MaxWidth, c.appendResult)

	failed := make([]FailedFile, 0, len(report.Failures))
	for _, f := range report.Failures {
		failed = append(failed, FailedFile{Name: f.Name, Error: f.Err.Error()})
	}

	c.logger.Info("Batch finished", "converted", len(report.Results), "failed", len(report.Failures))

	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.mu.Lock()
	c.failures = failed
	c.inFlight--
	finished := c.inFlight == 0
	c.mu.Unlock()
	if finished {
		c.notifyLoading(false)
	}
}

func (c *Controller) appendResult(r convert.Result) {
	id := c.store.Put(r.Name, contentTypeWebP, r.Data)
	img := ConvertedImage{
		ID:     id,
		Name:   r.Name,
		URL:    blobstore.URL(id),
		Width:  r.Width,
		Height: r.Height,
		Size:   len(r.Data),
	}

	c.mu.Lock()
	c.results = append(c.results, img)
	c.mu.Unlock()
}

func (c *Controller) notifyLoading(loading bool) {
	if c.OnLoadingChange != nil {
		c.OnLoadingChange(loading)
	}
}

// Wait blocks until every started batch has settled.
func (c *Controller) Wait() {
	c.batches.Wait()
}

// Blob returns the encoded bytes behind a result handle.
func (c *Controller) Blob(id string) (blobstore.Blob, error) {
	return c.store.Get(id)
}

// Export writes every current result to w as a zip archive.
func (c *Controller) Export(ctx context.Context, w io.Writer) error {
	c.mu.Lock()
	if len(c.results) == 0 {
		c.mu.Unlock()
		return ErrNothingToExport
	}
	entries := make([]archive.Entry, 0, len(c.results))
	for _, r := range c.results {
		entries = append(entries, archive.Entry{Name: r.Name, Ref: r.ID})
	}
	c.zipping = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.zipping = false
		c.mu.Unlock()
	}()

	err := archive.Write(ctx, w, entries, func(ref string) ([]byte, error) {
		b, err := c.store.Get(ref)
		if err != nil {
			return nil, err
		}
		return b.Data, nil
	})
	if err != nil {
		c.logger.Error("Failed to create archive", "error", err)
		return fmt.Errorf("export: %w", err)
	}
	c.logger.Info("Archive created", "entries", len(entries))
	return nil
}

// Clear releases every stored image and empties the results.
func (c *Controller) Clear() {
	c.mu.Lock()
	results := c.results
	c.results = nil
	c.failures = nil
	c.fileCount = 0
	c.mu.Unlock()

	for _, r := range results {
		c.store.Revoke(r.ID)
	}
	c.logger.Info("Session cleared", "released", len(results))
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Images:    append([]ConvertedImage(nil), c.results...),
		Failures:  append([]FailedFile(nil), c.failures...),
		FileCount: c.fileCount,
		Loading:   c.inFlight > 0,
		Zipping:   c.zipping,
		MaxWidth:  c.maxWidth,
	}
}
