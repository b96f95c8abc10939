// Package sniffer provides automatic detection of reservation CSV exports.
// It tokenizes the file, identifies the delimiter and classifies the header row into a known dialect.
package sniffer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	ErrEmptyFile           = errors.New("file is empty")
	ErrUnrecognizedHeader  = errors.New("header does not match any known reservation export")
	ErrUndecodableEncoding = errors.New("file encoding could not be decoded")
)

// FileConfig holds the detected configuration for a reservation CSV file
type FileConfig struct {
	Delimiter   rune       // The field delimiter ('\t', ';', ',')
	Dialect     Dialect    // Detected export dialect
	Headers     []string   // Cleaned header names
	Columns     ColumnMap  // Field -> column index for the dialect
	Fingerprint string     // SHA256 hash of normalized headers
	Rows        [][]string // Tokenized data rows (quotes still in place)
}

// Decode converts raw file bytes to text. Spreadsheet tools on Windows tend to save
// CSV as Windows-1252, so invalid UTF-8 is decoded with that charset.
func Decode(data []byte) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", ErrUndecodableEncoding
	}
	return string(decoded), nil
}

// DetectConfig tokenizes a CSV export and classifies its header row
func DetectConfig(data []byte) (*FileConfig, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	text, err := Decode(data)
	if err != nil {
		return nil, err
	}

	rows := SplitRows(text)
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headerLine := StripBOM(rows[0])
	delimiter := DetectDelimiter(headerLine)

	headers := SplitFields(headerLine, delimiter)
	for i, h := range headers {
		headers[i] = CleanValue(h)
	}

	dialect, err := DetectDialect(headers)
	if err != nil {
		return nil, err
	}

	dataRows := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		dataRows = append(dataRows, SplitFields(row, delimiter))
	}

	return &FileConfig{
		Delimiter:   delimiter,
		Dialect:     dialect,
		Headers:     headers,
		Columns:     MapColumns(dialect, headers),
		Fingerprint: generateFingerprint(headers),
		Rows:        dataRows,
	}, nil
}

// generateFingerprint creates a stable hash from header names
func generateFingerprint(headers []string) string {
	var normalized []string
	for _, h := range headers {
		clean := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return unicode.ToLower(r)
			}
			return -1
		}, h)
		if clean != "" {
			normalized = append(normalized, clean)
		}
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}
