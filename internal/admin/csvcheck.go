package admin

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
)

var (
	ErrEmptyCSV      = errors.New("CSV file is empty")
	ErrMissingColumn = errors.New("CSV must contain 'date' and 'value' columns")
)

// CheckCSV looks at the header row only; the rows themselves are parsed by the backend.
func CheckCSV(data []byte) error {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return ErrEmptyCSV
	}
	var hasDate, hasValue bool
	for _, h := range header {
		switch strings.TrimSpace(h) {
		case "date":
			hasDate = true
		case "value":
			hasValue = true
		}
	}
	if !hasDate || !hasValue {
		return ErrMissingColumn
	}
	return nil
}
