package reshape

// ConflictPolicy decides what happens when a row populates both the numeric
// and the textual value column. There is no silent default behavior: abort
// surfaces the row as an error, skip drops it and logs it.
type ConflictPolicy string

const (
	ConflictAbort ConflictPolicy = "abort"
	ConflictSkip  ConflictPolicy = "skip"
)

// MissingFactorPolicy decides what happens when no conversion factor exists
// for a row's country/year key.
type MissingFactorPolicy string

const (
	// MissingAbort fails the whole normalization.
	MissingAbort MissingFactorPolicy = "abort"
	// MissingDrop removes the row and logs it.
	MissingDrop MissingFactorPolicy = "drop"
	// MissingKeep passes the value through unconverted and logs it.
	MissingKeep MissingFactorPolicy = "keep"
)
