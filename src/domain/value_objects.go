package domain

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	ErrAuthorNotFound = errors.New("author not found")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)

// olidPattern is the shape of every Open Library identifier: OL, digits,
// one uppercase type letter (A authors, W works, M editions).
var olidPattern = regexp.MustCompile(`^OL\d+[A-Z]$`)

// IsValidOLID reports whether s is a well formed Open Library identifier
// such as OL1000057A.
func IsValidOLID(s string) bool {
	return olidPattern.MatchString(s)
}

// ############################################################
// ################ DUMP INGESTION ERRORS #####################
// ############################################################

// ParseError describes a dump line whose structure is broken: wrong
// column count or a payload that does not decode as a JSON object.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse record: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("parse record: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FormatError describes a payload value that is present but not in any
// shape we know how to read.
type FormatError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("format field %q value %q: %s", e.Field, e.Value, e.Reason)
}

// ############################################################
// ################## IMPORT RUN REPORTING ####################
// ############################################################

// ImportReport summarizes a finished import run. Counters are totals for
// the whole run, including lines consumed before a failure stopped it.
type ImportReport struct {
	RunID     string
	File      string
	Lines     int64
	Malformed int64
	Dropped   int64
	Resumed   int64
	Submitted int64
	Batches   int64
	Elapsed   time.Duration
}

// Checkpoint marks how far an import of a given dump file got: Records is
// the contiguous count of records acknowledged by every backend, measured
// from the top of the file.
type Checkpoint struct {
	File    string    `json:"file"`
	Records int64     `json:"records"`
	RunID   string    `json:"run_id"`
	SavedAt time.Time `json:"saved_at"`
}
