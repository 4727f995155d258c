package upload

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func multipartRequest(t *testing.T, fields map[string]string, fileField, filename string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField() unexpected error: %v", err)
		}
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		if err != nil {
			t.Fatalf("CreateFormFile() unexpected error: %v", err)
		}
		fw.Write(content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestReceiveStoresAndRemoves(t *testing.T) {
	dir := t.TempDir()
	req := multipartRequest(t, map[string]string{"description": "fern"}, "file", "leaf.png", []byte("pixels"))

	f, err := Receive(req, "file", dir)
	if err != nil {
		t.Fatalf("Receive() unexpected error: %v", err)
	}
	if f.Filename != "leaf.png" || f.Size != 6 {
		t.Errorf("Receive() = %+v", f)
	}
	if !strings.HasSuffix(f.Path, ".png") {
		t.Errorf("temp path %q lost the extension", f.Path)
	}

	got, err := os.ReadFile(f.Path)
	if err != nil || string(got) != "pixels" {
		t.Fatalf("temp file content = %q, %v", got, err)
	}

	path := f.Path
	if err := f.Close(); err != nil {
		t.Fatalf("Close() unexpected error: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file still exists after Close(): %v", err)
	}
	if err := f.Close(); err != nil {
		t.Errorf("second Close() unexpected error: %v", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("upload dir has %d leftover entries", len(entries))
	}
}

func TestReceiveWithoutFile(t *testing.T) {
	req := multipartRequest(t, map[string]string{"description": "fern"}, "", "", nil)

	if _, err := Receive(req, "file", t.TempDir()); !errors.Is(err, ErrNoFile) {
		t.Fatalf("Receive() error = %v, want ErrNoFile", err)
	}
	if d := Field(req, "description"); d == nil || *d != "fern" {
		t.Errorf("Field(description) = %v, want fern", d)
	}
}

func TestReceiveNotMultipart(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")

	if _, err := Receive(req, "file", t.TempDir()); !errors.Is(err, ErrNoFile) {
		t.Fatalf("Receive() error = %v, want ErrNoFile", err)
	}
}

func TestFieldAbsentVersusEmpty(t *testing.T) {
	req := multipartRequest(t, map[string]string{"health_status": ""}, "", "", nil)
	if err := ParseForm(req); err != nil {
		t.Fatalf("ParseForm() unexpected error: %v", err)
	}

	if v := Field(req, "health_status"); v == nil || *v != "" {
		t.Errorf("Field(health_status) = %v, want empty string", v)
	}
	if v := Field(req, "description"); v != nil {
		t.Errorf("Field(description) = %q, want nil", *v)
	}
}
