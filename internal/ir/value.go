package ir

// AbsentSymbol renders an absent value in text reports.
// It is non-ASCII so it can never be confused with an empty or literal token.
const AbsentSymbol = "∅"

// Value is the text of an item at one release, or absent.
// The zero Value is absent, which is distinct from Some("").
type Value struct {
	text    string
	present bool
}

// Absent is the value of an item that has no recorded text.
var Absent = Value{}

// Some returns a present value holding text.
func Some(text string) Value {
	return Value{text: text, present: true}
}

// Present reports whether the value holds text.
func (v Value) Present() bool {
	return v.present
}

// Text returns the text and whether it is present.
func (v Value) Text() (string, bool) {
	return v.text, v.present
}

// OrEmpty returns the text, or "" when absent.
// Used by the binary index, where "" encodes "no previous value".
func (v Value) OrEmpty() string {
	return v.text
}

// Equal reports whether two values are the same.
// Absent equals only Absent; Some("") is not Absent.
func (v Value) Equal(other Value) bool {
	return v.present == other.present && v.text == other.text
}

// String renders the value for reports, using AbsentSymbol when absent.
func (v Value) String() string {
	if !v.Present() {
		return AbsentSymbol
	}
	return v.text
}
