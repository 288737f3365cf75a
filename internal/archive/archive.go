// Package archive packages converted images into a single zip download.
package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"time"
)

// FileName is the name the archive is offered under.
const FileName = "images.zip"

// Entry names one file of the archive and the handle its bytes are fetched from.
type Entry struct {
	Name string
	Ref  string
}

// Fetcher returns the bytes behind a handle.
type Fetcher func(ref string) ([]byte, error)

// Write fetches every entry and writes them to w as a zip archive.
// Entries sharing a name collapse into one file holding the last entry's bytes,
// placed where the name first appeared.
func Write(ctx context.Context, w io.Writer, entries []Entry, fetch Fetcher) error {
	var order []string
	files := make(map[string][]byte, len(entries))

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := fetch(e.Ref)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", e.Name, err)
		}
		if _, ok := files[e.Name]; !ok {
			order = append(order, e.Name)
		}
		files[e.Name] = data
	}

	zw := zip.NewWriter(w)
	now := time.Now()
	for _, name := range order {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
		if _, err := fw.Write(files[name]); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}
