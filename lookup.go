package reshape

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Lookup maps short indicator codes to display titles. Built once per
// source dataset, read-only afterwards.
type Lookup struct {
	titles map[string]string
}

// NewLookup returns a Lookup over the given code to title mapping.
func NewLookup(titles map[string]string) *Lookup {
	m := make(map[string]string, len(titles))
	for code, title := range titles {
		m[code] = title
	}
	return &Lookup{titles: m}
}

// ReadLookupCSV reads a two-column code,title file. A first record equal to
// the literal header "code,title" is skipped.
func ReadLookupCSV(r io.Reader) (*Lookup, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	titles := make(map[string]string)
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read lookup record: %w", err)
		}

		if first {
			first = false
			if record[0] == "code" && record[1] == "title" {
				continue
			}
		}

		titles[record[0]] = record[1]
	}

	return &Lookup{titles: titles}, nil
}

// Title returns the display title for a code.
func (l *Lookup) Title(code string) (string, bool) {
	title, ok := l.titles[code]
	return title, ok
}

// Len returns the number of known codes.
func (l *Lookup) Len() int {
	return len(l.titles)
}

// Annotate attaches the display title for the table's measurement code as
// table-level metadata.
func (l *Lookup) Annotate(t *Table) error {
	title, ok := l.titles[t.Code]
	if !ok {
		return &UnknownIndicatorError{Code: t.Code}
	}
	t.Title = title
	return nil
}
