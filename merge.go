package reshape

import (
	"fmt"
	"strings"
)

type mergeKey string

func makeMergeKey(row *TableRow) mergeKey {
	return mergeKey(strings.Join(row.Key, "\x1f"))
}

// MergeTables concatenates tables sharing one schema, typically chunks of
// the same measurement read from separate source files. Tables must agree
// on code, key columns and value column; a key tuple appearing twice is an
// error.
func MergeTables(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, nil
	}

	first := tables[0]
	result := &Table{
		Name:        first.Name,
		Code:        first.Code,
		Title:       first.Title,
		KeyColumns:  first.KeyColumns,
		ValueColumn: first.ValueColumn,
		Rows:        make([]*TableRow, 0, len(tables)*len(first.Rows)),
	}

	index := make(map[mergeKey]bool)

	for i := range tables {
		t := tables[i]

		if err := sameSchema(first, t); err != nil {
			return nil, err
		}

		for j := range t.Rows {
			key := makeMergeKey(t.Rows[j])
			if index[key] {
				return nil, &DuplicateKeyError{Key: t.Rows[j].Key}
			}

			index[key] = true
			result.Rows = append(result.Rows, t.Rows[j])
		}
	}

	return result, nil
}

func sameSchema(a, b *Table) error {
	if a.Code != b.Code {
		return fmt.Errorf("cannot merge tables with codes %q and %q", a.Code, b.Code)
	}
	if a.ValueColumn != b.ValueColumn {
		return fmt.Errorf("cannot merge tables with value columns %q and %q", a.ValueColumn, b.ValueColumn)
	}
	if len(a.KeyColumns) != len(b.KeyColumns) {
		return fmt.Errorf("cannot merge tables with %d and %d key columns", len(a.KeyColumns), len(b.KeyColumns))
	}
	for i := range a.KeyColumns {
		if a.KeyColumns[i] != b.KeyColumns[i] {
			return fmt.Errorf("cannot merge tables with key columns %q and %q",
				a.KeyColumns[i], b.KeyColumns[i])
		}
	}
	return nil
}
