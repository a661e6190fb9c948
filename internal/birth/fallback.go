package birth

import (
	"regexp"
	"strings"

	"github.com/roach88/births/internal/ir"
)

// typeAttr matches the first type attribute embedded in an item key,
// e.g. //ldml/dates/timeZoneNames/zone[@type="America/Los_Angeles"].
var typeAttr = regexp.MustCompile(`\[@type="([^"]*)"`)

// FallbackValue derives a stand-in historical value for a key that a present
// release does not report, using only the key's own text.
//
// The type attribute is taken as the value; if it is a slash-delimited path
// only the final segment is kept, and underscores become spaces. Keys without
// a type attribute return ir.Absent.
//
//	zone[@type="America/Los_Angeles"]  → "Los Angeles"
//	metazone[@type="America_Central"]  → "America Central"
//
// This approximates the value a release would have shown through its
// inheritance rules; it is not a record of actual history.
func FallbackValue(key ir.ItemKey) ir.Value {
	m := typeAttr.FindStringSubmatch(string(key))
	if m == nil {
		return ir.Absent
	}

	typ := m[1]
	if i := strings.LastIndexByte(typ, '/'); i >= 0 {
		typ = typ[i+1:]
	}
	return ir.Some(strings.ReplaceAll(typ, "_", " "))
}
