// Package pipeline runs one full births batch: resolve the baseline, write
// its report and previous-value index, resolve every selected locale against
// it, write the newer index, then validate what was written.
//
// Runs are strictly sequential. One locale's births are held at a time,
// alongside the baseline's.
package pipeline
