package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Form is a fully built multipart body. It is buffered so the size is
// known before the call starts.
type Form struct {
	body        []byte
	contentType string
}

// NewForm runs build against a fresh multipart writer and closes it.
func NewForm(build func(w *multipart.Writer) error) (*Form, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := build(w); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return &Form{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

// FileForm builds a form with a single file part.
func FileForm(field, filename string, r io.Reader) (*Form, error) {
	return NewForm(func(w *multipart.Writer) error {
		part, err := w.CreateFormFile(field, filename)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, r); err != nil {
			return fmt.Errorf("copy %s: %w", filename, err)
		}
		return nil
	})
}

func (f *Form) ContentType() string {
	return f.contentType
}

func (f *Form) Len() int {
	return len(f.body)
}
