// Package birth resolves birth versions for localized items.
//
// For one locale, the Resolver walks the tracked releases from newest to
// oldest and records, per item key, the oldest release at which the current
// value was already in effect (the birth version) and the value it replaced.
// SelectNewer then compares a locale's births with the baseline locale's and
// writes the tab-separated birth report.
//
// # Resolution Rules
//
//   - Scanning stops at the first release whose value differs from the
//     current one; the birth is the release just newer than that point
//   - A release at which the locale did not exist ends the history
//   - A present release that does not report the key gets a stand-in value
//     from FallbackValue before comparison
//   - Equality distinguishes an absent value from the empty string
//
// Grouping by birth version is ordered by release, then by key text, so
// reports and persisted indexes are reproducible.
package birth
