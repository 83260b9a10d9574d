package reshape

import "strconv"

// Row is a single record of a source table, keyed by column name.
// An absent key and an empty cell both mean null.
type Row map[string]string

// ValueKind tells which of the value columns a row populated.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueNumber
	ValueText
)

// Value is a single measurement value, either numeric or textual.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
}

func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case ValueText:
		return v.Text
	}
	return ""
}

// Dimension declares one categorical axis of a source table as a pair of
// source columns: TypeColumn marks whether the axis applies to a row and
// ValueColumn holds the axis value.
type Dimension struct {
	// Name of the key column in reshaped output, e.g. "year".
	Name string
	// TypeColumn is the source column naming the axis, e.g. "TimeDimType".
	TypeColumn string
	// ValueColumn is the source column holding the axis value, e.g. "TimeDim".
	ValueColumn string
}

// Variant is one supported combination of dimensions with a fixed output
// schema. Declaring variants up front replaces run-time shape inference with
// a closed enumeration that can be validated before any row is processed.
type Variant struct {
	// Name suffixes the output table name for this combination.
	Name string
	// Keys lists dimension names, in output key order. Empty means the
	// global single-row shape with no key columns.
	Keys []string
}

// SourceSpec describes the shape of one source table.
type SourceSpec struct {
	// IndicatorColumn holds the measurement identifier.
	IndicatorColumn string
	// NumericColumn and TextColumn hold the measurement value. At most one
	// of them may be populated per row.
	NumericColumn string
	TextColumn    string

	Dimensions []Dimension

	// Variants enumerates the supported dimension combinations. When empty,
	// combinations are inferred from the data.
	Variants []Variant
}

// TableRow is one reshaped row: key values aligned with Table.KeyColumns
// plus the measurement value.
type TableRow struct {
	Key   []string
	Value Value
}

// Table is one reshaped output table with a composite key and a single
// value column.
type Table struct {
	// Name uniquely identifies the table within one reshape call.
	Name string
	// Code is the measurement identifier the table was built from.
	Code string
	// Title is display metadata attached by a Lookup, never a data column.
	Title string

	KeyColumns  []string
	ValueColumn string
	Rows        []*TableRow
}

// KeyIndex returns the position of a key column, or -1.
func (t *Table) KeyIndex(name string) int {
	for i, k := range t.KeyColumns {
		if k == name {
			return i
		}
	}
	return -1
}
