package common

import "errors"

var (
	ErrUnauthenticated   = errors.New("authentication required or invalid credentials")
	ErrBadRequest        = errors.New("bad request")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileTooLarge      = errors.New("file exceeds the upload size limit")
	ErrEmptyBatch        = errors.New("no files to import")
)
