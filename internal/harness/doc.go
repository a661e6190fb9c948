// Package harness runs birth-resolution conformance scenarios.
//
// A scenario is a YAML file describing a release history and the births and
// newer sets it must produce. Each run loads the history into a fresh
// in-memory SQLite store, so scenarios exercise the same read path as a real
// run.
//
// Reports can be compared against golden files:
//
//	go test ./internal/harness -update
package harness
