package reshape

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DefaultValueColumn names the value column of reshaped tables.
const DefaultValueColumn = "value"

// Reshaper splits one wide source table into long tables, one per
// combination of populated dimensions.
type Reshaper struct {
	spec *SourceSpec

	conflictPolicy  ConflictPolicy
	keepEmptyGroups bool
	logger          *zap.Logger
}

// NewReshaper returns a new instance of Reshaper.
func NewReshaper(spec *SourceSpec, opts ...ReshaperOption) *Reshaper {
	r := &Reshaper{
		spec:           spec,
		conflictPolicy: ConflictAbort,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

type group struct {
	keys []string // active dimension names, declared order
	rows []int    // indices into the input rows
}

// Reshape partitions rows by which dimension-type columns are populated and
// produces one table per partition. Rows must all carry the same measurement
// identifier.
func (r *Reshaper) Reshape(rows []Row) ([]*Table, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	code, err := r.indicatorCode(rows)
	if err != nil {
		return nil, err
	}

	groups := r.partition(rows)

	tables := make([]*Table, 0, len(groups))
	for _, g := range groups {
		keyColumns := g.keys
		variantName := ""

		if len(r.spec.Variants) > 0 {
			variant, ok := matchVariant(r.spec.Variants, g.keys)
			if !ok {
				return nil, &UnknownVariantError{Keys: g.keys}
			}
			keyColumns = variant.Keys
			variantName = variant.Name
		}

		table := &Table{
			Code:        code,
			KeyColumns:  keyColumns,
			ValueColumn: DefaultValueColumn,
		}

		empty := true
		for _, i := range g.rows {
			value, err := r.rowValue(rows[i], i)
			if err != nil {
				if _, conflict := err.(*ConflictingValueError); conflict && r.conflictPolicy == ConflictSkip {
					r.logger.Warn("skip row with conflicting value",
						zap.Int("row", i), zap.String("code", code))
					continue
				}
				return nil, err
			}
			if value.Kind != ValueEmpty {
				empty = false
			}

			key := make([]string, len(keyColumns))
			for j, name := range keyColumns {
				key[j] = cell(rows[i], r.dimensionValueColumn(name))
			}
			table.Rows = append(table.Rows, &TableRow{Key: key, Value: value})
		}

		if empty && !r.keepEmptyGroups {
			r.logger.Info("drop empty group",
				zap.String("code", code),
				zap.Strings("dimensions", g.keys),
				zap.Int("rows", len(g.rows)))
			continue
		}

		table.Name = tableName(code, variantName, keyColumns, len(groups) > 1)
		tables = append(tables, table)
	}

	return tables, nil
}

// indicatorCode verifies the single-measurement precondition and returns
// the one code.
func (r *Reshaper) indicatorCode(rows []Row) (string, error) {
	seen := make(map[string]bool)
	codes := make([]string, 0, 1)

	for _, row := range rows {
		code := cell(row, r.spec.IndicatorColumn)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}

	if len(codes) != 1 {
		sort.Strings(codes)
		return "", &AmbiguousIndicatorError{Codes: codes}
	}

	return codes[0], nil
}

// partition groups row indices by the set of populated dimension-type
// columns. Groups come back sorted by their key-column list so repeated
// runs produce identical output.
func (r *Reshaper) partition(rows []Row) []*group {
	index := make(map[string]*group)
	for i, row := range rows {
		keys := make([]string, 0, len(r.spec.Dimensions))
		for _, d := range r.spec.Dimensions {
			if cell(row, d.TypeColumn) != "" {
				keys = append(keys, d.Name)
			}
		}

		mask := strings.Join(keys, "\x1f")
		g, ok := index[mask]
		if !ok {
			g = &group{keys: keys}
			index[mask] = g
		}
		g.rows = append(g.rows, i)
	}

	groups := make([]*group, 0, len(index))
	for _, g := range index {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.Join(groups[i].keys, "\x1f") < strings.Join(groups[j].keys, "\x1f")
	})

	return groups
}

// rowValue picks the populated value column of a row.
func (r *Reshaper) rowValue(row Row, index int) (Value, error) {
	num := cell(row, r.spec.NumericColumn)
	text := cell(row, r.spec.TextColumn)

	if num != "" && text != "" {
		return Value{}, &ConflictingValueError{Row: index, Number: num, Text: text}
	}

	if num != "" {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return Value{}, fmt.Errorf("row %d: failed to parse numeric value %q: %w", index, num, err)
		}
		return Value{Kind: ValueNumber, Number: f}, nil
	}

	if text != "" {
		return Value{Kind: ValueText, Text: text}, nil
	}

	return Value{}, nil
}

func (r *Reshaper) dimensionValueColumn(name string) string {
	for _, d := range r.spec.Dimensions {
		if d.Name == name {
			return d.ValueColumn
		}
	}
	return ""
}

// matchVariant finds the declared variant covering exactly the given
// dimension names, order-insensitive.
func matchVariant(variants []Variant, keys []string) (*Variant, bool) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	for i := range variants {
		v := &variants[i]
		if len(v.Keys) != len(keys) {
			continue
		}
		ok := true
		for _, k := range v.Keys {
			if !want[k] {
				ok = false
				break
			}
		}
		if ok {
			return v, true
		}
	}

	return nil, false
}

// tableName builds a stable table name. A single group keeps the bare code;
// multiple shapes cannot share one flat name, so each gets either its
// variant name or a hash of its sorted key-column list.
func tableName(code, variant string, keyColumns []string, disambiguate bool) string {
	name := sanitizeName(code)
	if !disambiguate {
		return name
	}
	if variant != "" {
		return name + "_" + sanitizeName(variant)
	}
	return name + "_" + keyHash(keyColumns)
}

func keyHash(keyColumns []string) string {
	sorted := make([]string, len(keyColumns))
	copy(sorted, keyColumns)
	sort.Strings(sorted)

	h := fnv.New32a()
	h.Write([]byte(strings.Join(sorted, "\x1f")))
	return fmt.Sprintf("%08x", h.Sum32())
}

func sanitizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// cell returns a normalized cell value, "" meaning null.
func cell(row Row, column string) string {
	if column == "" {
		return ""
	}
	v := strings.TrimSpace(row[column])
	switch v {
	case "null", "NULL", "N/A", "n/a":
		return ""
	}
	return v
}
