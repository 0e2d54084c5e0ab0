package market

import "fmt"

// InvalidConfigurationError rejects an out-of-range input parameter before any grouping or I/O.
type InvalidConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("invalid %s=%v: %s", e.Field, e.Value, e.Reason)
}

// NormalizationWarning records one swap record that was skipped. It never aborts a batch.
type NormalizationWarning struct {
	Index  int
	Reason string
}

func (w NormalizationWarning) Error() string {
	return fmt.Sprintf("swap record #%d skipped: %s", w.Index, w.Reason)
}
