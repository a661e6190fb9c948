// Package index encodes and decodes the binary outdated index.
//
// Two streams are written per run:
//
//   - Newer index: for each non-baseline locale, the KeyIDs of its newer set
//   - Previous index: for every baseline key, its KeyID and previous value
//
// # Wire Format
//
// All integers are big-endian. Text is a uint16 byte length followed by that
// many UTF-8 bytes.
//
//	newer    := { text(locale) int32(count) int64(id)*count }* text("$END$")
//	previous := int32(count) { int64(id) text(previous) }*count text("$END$")
//
// An empty previous text means the key has no previous value.
//
// # Determinism
//
// Locales are written in ascending order and keys in ascending key text
// order, and nothing time-dependent is written, so identical births produce
// byte-identical files.
package index
