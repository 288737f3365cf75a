// Package web serves the converter page and its downloads.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"webpMini/internal/archive"
	"webpMini/internal/blobstore"
	"webpMini/internal/convert"
	"webpMini/internal/session"
)

// multipartMemory is how much of an upload is kept in memory before spilling to disk.
const multipartMemory = 32 << 20

// Server handles page and download requests for one session
type Server struct {
	ctl       *session.Controller
	logger    *slog.Logger
	maxUpload int64
	tmpl      *template.Template

	// batches outlive the upload request, so they run under this context
	baseCtx context.Context
}

// NewServer creates a page server. baseCtx bounds background conversions.
func NewServer(baseCtx context.Context, ctl *session.Controller, maxUpload int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ctl:       ctl,
		logger:    logger,
		maxUpload: maxUpload,
		tmpl:      template.Must(template.New("page").Parse(pageTemplate)),
		baseCtx:   baseCtx,
	}
}

// Handler returns the routes of the page
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("POST /settings", s.handleSettings)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("POST /clear", s.handleClear)
	mux.HandleFunc("GET "+blobstore.PathPrefix+"{id}", s.handleBlob)
	mux.HandleFunc("GET /"+archive.FileName, s.handleArchive)
	return mux
}

// handlePage renders the converter page
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, s.ctl.Snapshot()); err != nil {
		s.logger.Error("Failed to render page", "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.ctl.Snapshot()); err != nil {
		s.logger.Warn("Failed to write state", "error", err)
	}
}

// handleSettings updates the max width
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.applyMaxWidth(r.FormValue("maxWidth")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) applyMaxWidth(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%w: %q is not a whole number", convert.ErrInvalidMaxWidth, raw)
	}
	return s.ctl.SetMaxWidth(n)
}

// handleUpload reads the selected files and starts converting them
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	if err := s.applyMaxWidth(r.FormValue("maxWidth")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	files := make([]convert.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.logger.Warn("Failed to open upload", "file", fh.Filename, "error", err)
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.logger.Warn("Failed to read upload", "file", fh.Filename, "error", err)
			continue
		}
		files = append(files, convert.File{Name: fh.Filename, Data: data})
	}

	if err := s.ctl.Upload(s.baseCtx, files); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.ctl.Clear()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleBlob serves one converted image, as an attachment when ?download=1
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	b, err := s.ctl.Blob(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b.Data)))
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": b.Name}))
	}
	w.Write(b.Data)
}

// handleArchive packages every result into images.zip
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	err := s.ctl.Export(r.Context(), &buf)
	if errors.Is(err, session.ErrNothingToExport) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to create archive", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": archive.FileName}))
	w.Write(buf.Bytes())
}
