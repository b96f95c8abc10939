// Package extraction turns image and PDF reservation lists into normalized reservations
// using an external document-understanding model.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingCredentials means no API key is configured for the extraction provider
	ErrMissingCredentials = errors.New("extraction provider API key is not configured")
	// ErrContentBlocked means the provider refused the document on safety grounds
	ErrContentBlocked = errors.New("document was blocked by the provider safety filter")
	// ErrMalformedResponse means the response could not be repaired into any candidate
	ErrMalformedResponse = errors.New("extraction response is not valid JSON")
	// ErrUnsupportedDocument means the provider cannot read this MIME type
	ErrUnsupportedDocument = errors.New("document type is not supported by the provider")
)

// TransientError marks a failure worth retrying (rate limit, overload, 5xx, timeout)
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient extraction failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsRetryableStatus reports whether an HTTP status from a provider is worth retrying
func IsRetryableStatus(code int) bool {
	return code == 408 || code == 429 || code >= 500
}

// Document is a non-CSV input file
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Extractor sends one document to a model and returns its raw text response
type Extractor interface {
	Name() string
	Extract(ctx context.Context, doc Document) (string, error)
}

var mimeByExt = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
}

// DetectMIMEType maps a file name to a MIME type the extraction path accepts.
// ok is false for anything that is not an image or PDF.
func DetectMIMEType(name string) (string, bool) {
	mime, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]
	return mime, ok
}
