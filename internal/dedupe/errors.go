package dedupe

import "github.com/rotisserie/eris"

var (
	// ErrMissingID is returned when an operation needs a record identifier
	// and the record has none.
	ErrMissingID = eris.New("dedupe: record has no id")

	// ErrMissingName is returned for a candidate whose name has nothing
	// left after normalization.
	ErrMissingName = eris.New("dedupe: record has no usable name")

	// ErrNotFound is returned when the merge target is not in the store.
	ErrNotFound = eris.New("dedupe: record not found")

	// ErrInvalidConfig is returned for configurations that violate the
	// threshold ordering or range rules.
	ErrInvalidConfig = eris.New("dedupe: invalid config")
)
