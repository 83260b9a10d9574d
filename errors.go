package reshape

import (
	"fmt"
	"strings"
)

// AmbiguousIndicatorError reports a source table carrying more than one
// distinct measurement identifier. The reshaper processes one measurement
// per call.
type AmbiguousIndicatorError struct {
	Codes []string
}

func (e *AmbiguousIndicatorError) Error() string {
	return fmt.Sprintf("ambiguous indicator: expected one code, got %d: %s",
		len(e.Codes), strings.Join(e.Codes, ", "))
}

// ConflictingValueError reports a row populating both the numeric and the
// textual value column.
type ConflictingValueError struct {
	Row    int
	Number string
	Text   string
}

func (e *ConflictingValueError) Error() string {
	return fmt.Sprintf("conflicting value in row %d: numeric %q and textual %q both set",
		e.Row, e.Number, e.Text)
}

// UnknownVariantError reports a group of rows whose active dimensions match
// no declared variant.
type UnknownVariantError struct {
	Keys []string
}

func (e *UnknownVariantError) Error() string {
	if len(e.Keys) == 0 {
		return "unknown variant: no declared variant for the global shape"
	}
	return fmt.Sprintf("unknown variant: no declared variant for dimensions [%s]",
		strings.Join(e.Keys, ", "))
}

// UnknownIndicatorError reports a measurement code missing from a Lookup.
type UnknownIndicatorError struct {
	Code string
}

func (e *UnknownIndicatorError) Error() string {
	return fmt.Sprintf("unknown indicator code %q", e.Code)
}

// MissingConversionFactorError reports a row for which no conversion factor
// exists under the MissingAbort policy.
type MissingConversionFactorError struct {
	Country string
	Year    string
}

func (e *MissingConversionFactorError) Error() string {
	if e.Year == "" {
		return fmt.Sprintf("missing conversion factor for country %q", e.Country)
	}
	return fmt.Sprintf("missing conversion factor for country %q, year %s", e.Country, e.Year)
}

// DuplicateKeyError reports the same key tuple appearing in more than one
// table passed to MergeTables.
type DuplicateKeyError struct {
	Key []string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key [%s]", strings.Join(e.Key, ", "))
}
