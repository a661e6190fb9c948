package ir

// ItemKey identifies one localizable data point within a locale's dataset.
// Keys are opaque; only their exact text matters.
type ItemKey string

// BirthRecord is the resolution result for one ItemKey in one locale.
//
// Birth is the oldest version at which Current was already in effect without
// change since. Previous is the first differing value found scanning from the
// newest release toward the oldest, or Absent if the value never diverged.
//
// Fields are unexported so a record cannot change after resolution.
type BirthRecord struct {
	birth    Version
	current  Value
	previous Value
}

// NewBirthRecord builds an immutable birth record.
func NewBirthRecord(birth Version, current, previous Value) BirthRecord {
	return BirthRecord{birth: birth, current: current, previous: previous}
}

// Birth returns the birth version.
func (r BirthRecord) Birth() Version {
	return r.birth
}

// Current returns the value at the newest release.
func (r BirthRecord) Current() Value {
	return r.current
}

// Previous returns the value that preceded Current, or Absent.
func (r BirthRecord) Previous() Value {
	return r.previous
}
