package ingest

import "fmt"

// DataError marks malformed statement data or an unusable value in a row.
// It aborts the whole run; blank rows are skipped instead and never produce
// a DataError.
type DataError struct {
	Msg string
	Err error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *DataError) Unwrap() error { return e.Err }

func dataErrorf(format string, args ...interface{}) error {
	return &DataError{Msg: fmt.Sprintf(format, args...)}
}
