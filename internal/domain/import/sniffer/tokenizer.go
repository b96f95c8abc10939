package sniffer

import "strings"

const byteOrderMark = "\uFEFF"

// SplitRows splits decoded text into logical rows. Newlines inside quoted values stay
// part of the row; rows whose trimmed content is empty are dropped.
func SplitRows(text string) []string {
	var (
		rows     []string
		current  strings.Builder
		inQuotes bool
	)

	flush := func() {
		row := current.String()
		current.Reset()
		if strings.TrimSpace(row) == "" {
			return
		}
		rows = append(rows, strings.TrimRight(row, "\r"))
	}

	for _, r := range text {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == '\n' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return rows
}

// SplitFields splits one logical row on delimiter, ignoring delimiters inside quotes.
// Fields are trimmed; quote characters are left in place.
func SplitFields(row string, delimiter rune) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range row {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			current.WriteRune(r)
		case r == delimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))

	return fields
}

// DetectDelimiter inspects the header line only: tab, then semicolon, then comma.
// Semicolon exports often carry commas inside free text, so comma is the last resort.
func DetectDelimiter(header string) rune {
	switch {
	case strings.ContainsRune(header, '\t'):
		return '\t'
	case strings.ContainsRune(header, ';'):
		return ';'
	default:
		return ','
	}
}

// StripBOM removes a leading UTF-8 byte-order mark.
func StripBOM(s string) string {
	return strings.TrimPrefix(s, byteOrderMark)
}

// CleanValue removes the literal quote characters the tokenizer leaves in place.
func CleanValue(v string) string {
	return strings.TrimSpace(strings.ReplaceAll(v, `"`, ""))
}
