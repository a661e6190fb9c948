package harness

import "fmt"

// Mismatch is one expectation the scenario did not meet.
type Mismatch struct {
	Locale   string
	Key      string // empty for locale-level mismatches
	Field    string // "birth", "previous", "record" or "newer"
	Expected string
	Actual   string
}

// Error implements the error interface.
func (m Mismatch) Error() string {
	if m.Key == "" {
		return fmt.Sprintf("%s: %s: expected %s, got %s", m.Locale, m.Field, m.Expected, m.Actual)
	}
	return fmt.Sprintf("%s %s: %s: expected %s, got %s", m.Locale, m.Key, m.Field, m.Expected, m.Actual)
}
