package web

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"webpMini/internal/convert"
	"webpMini/internal/session"
)

var fakeEncoder = convert.EncoderFunc(func(ctx context.Context, w io.Writer, img image.Image) error {
	b := img.Bounds()
	_, err := fmt.Fprintf(w, "WEBP %dx%d", b.Dx(), b.Dy())
	return err
})

func newTestServer(t *testing.T, maxUpload int64) (*Server, *session.Controller) {
	t.Helper()
	ctl, err := session.New(convert.NewConverter(fakeEncoder, nil), nil, 0, nil)
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return NewServer(context.Background(), ctl, maxUpload, nil), ctl
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func uploadRequest(t *testing.T, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func getState(t *testing.T, h http.Handler) session.State {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /state: %d", rec.Code)
	}
	var st session.State
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return st
}

func TestPageRenders(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Image to WEBP Converter") || !strings.Contains(body, `value="800"`) {
		t.Error("page missing title or default max width")
	}
	if strings.Contains(body, "Download All as ZIP") {
		t.Error("archive button shown before any conversion")
	}
}

func TestUploadAndDownload(t *testing.T) {
	s, ctl := newTestServer(t, 1<<20)
	h := s.Handler()

	req := uploadRequest(t, map[string]string{"maxWidth": "100"}, map[string][]byte{
		"a.png":   pngBytes(t, 200, 100),
		"b.PNG":   pngBytes(t, 50, 40),
		"bad.jpg": []byte("nope"),
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	ctl.Wait()

	st := getState(t, h)
	if st.MaxWidth != 100 || st.FileCount != 3 || st.Loading {
		t.Errorf("unexpected state %+v", st)
	}
	if len(st.Images) != 2 || len(st.Failures) != 1 {
		t.Fatalf("images=%d failures=%d", len(st.Images), len(st.Failures))
	}

	var a session.ConvertedImage
	for _, img := range st.Images {
		if img.Name == "a.webp" {
			a = img
		}
	}
	if a.Width != 100 || a.Height != 50 {
		t.Errorf("a.webp is %dx%d", a.Width, a.Height)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, a.URL+"?download=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("blob status %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "image/webp" {
		t.Errorf("Content-Type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "a.webp") {
		t.Errorf("Content-Disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if rec.Body.String() != "WEBP 100x50" {
		t.Errorf("blob body %q", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images.zip", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "images.zip") {
		t.Errorf("Content-Disposition %q", rec.Header().Get("Content-Disposition"))
	}
	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	if len(zr.File) != 2 {
		t.Errorf("archive has %d files", len(zr.File))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(rec.Body.String(), "Download All as ZIP") {
		t.Error("archive button missing after conversion")
	}
	if !strings.Contains(rec.Body.String(), "bad.jpg") {
		t.Error("failed file not listed")
	}
}

func TestArchiveEmpty(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images.zip", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestUnknownBlob(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/blob/does-not-exist", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	s, ctl := newTestServer(t, 1<<20)
	h := s.Handler()

	for _, v := range []string{"0", "-3", "12.5", "abc"} {
		req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader(url.Values{"maxWidth": {v}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("maxWidth=%q: status %d, want 400", v, rec.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/settings", strings.NewReader("maxWidth=640"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	if ctl.MaxWidth() != 640 {
		t.Errorf("MaxWidth = %d", ctl.MaxWidth())
	}
}

func TestUploadNoFiles(t *testing.T) {
	s, ctl := newTestServer(t, 1<<20)
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, nil, nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	ctl.Wait()

	st := getState(t, h)
	if st.FileCount != 0 || st.Loading || len(st.Images) != 0 {
		t.Errorf("empty upload changed state: %+v", st)
	}
}

func TestUploadTooLarge(t *testing.T) {
	s, _ := newTestServer(t, 512)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, nil, map[string][]byte{"big.png": bytes.Repeat([]byte("x"), 4096)}))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status %d, want 413", rec.Code)
	}
}

func TestClear(t *testing.T) {
	s, ctl := newTestServer(t, 1<<20)
	h := s.Handler()

	h.ServeHTTP(httptest.NewRecorder(), uploadRequest(t, nil, map[string][]byte{"a.png": pngBytes(t, 10, 10)}))
	ctl.Wait()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/clear", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d", rec.Code)
	}
	if st := getState(t, h); len(st.Images) != 0 {
		t.Errorf("images left after clear: %d", len(st.Images))
	}
}

func TestPageShowsZippingState(t *testing.T) {
	s, _ := newTestServer(t, 1<<20)
	st := session.State{
		Images:   []session.ConvertedImage{{ID: "1", Name: "a.webp", URL: "/blob/1"}},
		MaxWidth: 800,
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, st); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	idle := buf.String()
	if !strings.Contains(idle, "Download All as ZIP") || strings.Contains(idle, `class="button success disabled"`) {
		t.Error("idle page should offer an enabled archive button")
	}
	if !strings.Contains(idle, "return zipStarted(this)") {
		t.Error("archive button does not switch to the busy state on click")
	}

	st.Zipping = true
	buf.Reset()
	if err := s.tmpl.Execute(&buf, st); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	busy := buf.String()
	if !strings.Contains(busy, `class="button success disabled"`) || !strings.Contains(busy, "Creating ZIP...") {
		t.Error("busy page should show a disabled Creating ZIP... button")
	}
	if !strings.Contains(busy, `watchZip(document.getElementById("zip"))`) {
		t.Error("busy page does not poll for the end of the export")
	}
}
