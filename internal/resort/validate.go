package resort

import (
	"fmt"
	"strings"
)

// Field names used in validation errors and persisted columns.
const (
	FieldName    = "name"
	FieldHighest = "highest"
	FieldLowest  = "lowest"
	FieldDrop    = "diff"
)

// ValidationError reports the first field of a RawRecord that failed validation.
type ValidationError struct {
	Field string
	Name  string
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("incorrectly formatted %q", e.Field)
	}
	return fmt.Sprintf("incorrectly formatted %q on %s", e.Field, e.Name)
}

// Validate promotes raw into a Record. Fields are checked in persisted column
// order and the first missing or non-numeric one is reported. There are no
// range checks: zero and negative elevations are accepted.
func Validate(raw RawRecord) (Record, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Record{}, &ValidationError{Field: FieldName}
	}
	checks := []struct {
		field string
		value *float64
	}{
		{FieldHighest, raw.Highest},
		{FieldLowest, raw.Lowest},
		{FieldDrop, raw.Drop},
	}
	for _, c := range checks {
		if !isNumber(c.value) {
			return Record{}, &ValidationError{Field: c.field, Name: name}
		}
	}
	return Record{
		Name:    name,
		Highest: *raw.Highest,
		Lowest:  *raw.Lowest,
		Drop:    *raw.Drop,
	}, nil
}
