// Package upload receives multipart image uploads into scoped temp files.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// memoryLimit is how much of a multipart body is kept in memory while parsing.
const memoryLimit = 1 << 20

var ErrNoFile = errors.New("no file uploaded")

// File is an uploaded file copied to a temp path. Close removes it together
// with any spill files the multipart parser created.
type File struct {
	Path     string
	Filename string
	Size     int64

	form *multipart.Form
}

// Close removes the temp file. It is safe to call more than once.
func (f *File) Close() error {
	var errs []error
	if f.Path != "" {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
		f.Path = ""
	}
	if f.form != nil {
		errs = append(errs, f.form.RemoveAll())
		f.form = nil
	}
	return errors.Join(errs...)
}

// ParseForm parses a multipart body once. A body that is not multipart is not
// an error; the request then simply carries no fields or files.
func ParseForm(r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}
	err := r.ParseMultipartForm(memoryLimit)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

// Receive copies the multipart part named field into a new temp file under
// dir. ErrNoFile is returned when the request carries no such part. The
// caller must Close the returned File.
func Receive(r *http.Request, field, dir string) (*File, error) {
	if err := ParseForm(r); err != nil {
		return nil, err
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, ErrNoFile
	}

	header := r.MultipartForm.File[field][0]
	src, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	f := &File{Path: dst.Name(), Filename: filepath.Base(header.Filename), form: r.MultipartForm}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store upload: %w", err)
	}
	f.Size = n

	return f, nil
}

// Field returns the form value for key, or nil when the field was not sent.
func Field(r *http.Request, key string) *string {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
