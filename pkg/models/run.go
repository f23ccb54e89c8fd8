package models

import (
	"encoding/json"
	"errors"
)

// TimestampLayout is the layout of run timestamps and watermarks. It is
// fixed width, so lexical order matches chronological order.
const TimestampLayout = "2006-01-02 15:04:05.000000"

var (
	// ErrInvalid marks reference data that cannot be resolved, such as an
	// unknown currency code. It aborts the run.
	ErrInvalid = errors.New("invalid reference data")

	// ErrMissingConfig marks an absent environment or run-context value.
	ErrMissingConfig = errors.New("missing required configuration")
)

// RunEvent is passed from the extraction stage to the transformation stage,
// and from the transformation stage downstream.
type RunEvent struct {
	HasNewRows      map[string]bool `json:"HasNewRows"`
	LastCheckedTime string          `json:"LastCheckedTime"`
}

// AnyNewRows reports whether at least one table has new rows.
func (e RunEvent) AnyNewRows() bool {
	for _, v := range e.HasNewRows {
		if v {
			return true
		}
	}
	return false
}

// LoadRunEvent parses a run event from its JSON form.
func LoadRunEvent(data []byte) (*RunEvent, error) {
	var e RunEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.HasNewRows == nil {
		e.HasNewRows = map[string]bool{}
	}
	return &e, nil
}

// RunError is the structured value returned when a run aborts.
type RunError struct {
	Stage string `json:"-"`
	Err   error  `json:"-"`
}

func (e *RunError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

func (e *RunError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{"Error found": e.Err.Error()})
}
