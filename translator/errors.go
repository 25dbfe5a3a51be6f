package translator

import (
	"fmt"

	"github.com/notargets/gmshtranslate/readers"
)

// FormatError: a marker is never found or a count line does not parse. Fatal
// both at construction and during Parse.
type FormatError = readers.FormatError

// StructuralError describes a single malformed element record. It is reported
// and the record is skipped; processing continues.
type StructuralError struct {
	Line    int
	Element int
	Reason  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("line %d: element %d: %s", e.Line, e.Element, e.Reason)
}

// ConsistencyError means the file disagrees with itself or with what was
// recorded when the index was built. It aborts the pass.
type ConsistencyError struct {
	Line       int
	Section    string
	Reason     string
	Want, Have int
}

func (e *ConsistencyError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Section, e.Reason)
	}
	return fmt.Sprintf("line %d: %s: count %d does not match %d recorded at indexing",
		e.Line, e.Section, e.Have, e.Want)
}
