package reshape

import (
	"go.uber.org/zap"
)

type factorKey struct {
	country string
	year    string
}

// Factors holds conversion factors (purchasing-power parity, deflators)
// keyed by country and optionally year.
type Factors struct {
	m map[factorKey]float64
}

// NewFactors returns an empty factor set.
func NewFactors() *Factors {
	return &Factors{m: make(map[factorKey]float64)}
}

// Set registers a factor. An empty year means the factor applies to every
// year of the country.
func (f *Factors) Set(country, year string, factor float64) {
	f.m[factorKey{country: country, year: year}] = factor
}

// Get resolves a factor, preferring a year-specific entry over a
// country-wide one. Factors must be positive, anything else counts as
// missing.
func (f *Factors) Get(country, year string) (float64, bool) {
	if v, ok := f.m[factorKey{country: country, year: year}]; ok && v > 0 {
		return v, true
	}
	if v, ok := f.m[factorKey{country: country}]; ok && v > 0 {
		return v, true
	}
	return 0, false
}

// Normalizer divides nominal monetary values by a conversion factor looked
// up from the table's country and year key columns.
type Normalizer struct {
	factors    *Factors
	countryKey string
	yearKey    string

	policy MissingFactorPolicy
	logger *zap.Logger
}

// NewNormalizer returns a new instance of Normalizer. countryKey names the
// key column holding countries; yearKey may be empty when factors do not
// vary by year.
func NewNormalizer(factors *Factors, countryKey, yearKey string, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{
		factors:    factors,
		countryKey: countryKey,
		yearKey:    yearKey,
		policy:     MissingAbort,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize returns a new table with every numeric value divided by its
// matching factor. Textual and empty values pass through untouched. The
// input table is not modified.
func (n *Normalizer) Normalize(t *Table) (*Table, error) {
	countryIdx := t.KeyIndex(n.countryKey)
	yearIdx := -1
	if n.yearKey != "" {
		yearIdx = t.KeyIndex(n.yearKey)
	}

	out := &Table{
		Name:        t.Name,
		Code:        t.Code,
		Title:       t.Title,
		KeyColumns:  t.KeyColumns,
		ValueColumn: t.ValueColumn,
		Rows:        make([]*TableRow, 0, len(t.Rows)),
	}

	for _, row := range t.Rows {
		if row.Value.Kind != ValueNumber {
			out.Rows = append(out.Rows, row)
			continue
		}

		country, year := "", ""
		if countryIdx >= 0 {
			country = row.Key[countryIdx]
		}
		if yearIdx >= 0 {
			year = row.Key[yearIdx]
		}

		factor, ok := n.factors.Get(country, year)
		if !ok {
			switch n.policy {
			case MissingDrop:
				n.logger.Warn("drop row without conversion factor",
					zap.String("table", t.Name),
					zap.String("country", country),
					zap.String("year", year))
				continue

			case MissingKeep:
				n.logger.Warn("keep unconverted row without conversion factor",
					zap.String("table", t.Name),
					zap.String("country", country),
					zap.String("year", year))
				out.Rows = append(out.Rows, row)
				continue

			default:
				return nil, &MissingConversionFactorError{Country: country, Year: year}
			}
		}

		out.Rows = append(out.Rows, &TableRow{
			Key: row.Key,
			Value: Value{
				Kind:   ValueNumber,
				Number: row.Value.Number / factor,
			},
		})
	}

	return out, nil
}
