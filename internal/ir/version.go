package ir

import (
	"fmt"
	"slices"
)

// ToolVersion is the births tool version recorded with each run.
const ToolVersion = "0.1.0"

// Version names one tracked release (e.g. "trunk", "1.9.0").
type Version string

// Sequence is the fixed, declared list of tracked releases, newest first.
// Order is position in the list, not the lexical order of the names.
type Sequence struct {
	versions []Version
	position map[Version]int
}

// NewSequence builds a Sequence from versions listed newest first.
// Returns an error if the list is empty or names a version twice.
func NewSequence(newestFirst ...Version) (Sequence, error) {
	if len(newestFirst) == 0 {
		return Sequence{}, fmt.Errorf("version sequence is empty")
	}

	position := make(map[Version]int, len(newestFirst))
	for i, v := range newestFirst {
		if v == "" {
			return Sequence{}, fmt.Errorf("version at position %d is empty", i)
		}
		if prev, dup := position[v]; dup {
			return Sequence{}, fmt.Errorf("version %q declared twice (positions %d and %d)", v, prev, i)
		}
		position[v] = i
	}

	return Sequence{
		versions: slices.Clone(newestFirst),
		position: position,
	}, nil
}

// MustSequence is like NewSequence but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustSequence(newestFirst ...Version) Sequence {
	seq, err := NewSequence(newestFirst...)
	if err != nil {
		panic(err)
	}
	return seq
}

// Len returns the number of tracked versions.
func (s Sequence) Len() int {
	return len(s.versions)
}

// At returns the version at position i (0 is the newest).
func (s Sequence) At(i int) Version {
	return s.versions[i]
}

// Versions returns a copy of the versions, newest first.
func (s Sequence) Versions() []Version {
	return slices.Clone(s.versions)
}

// Newest returns the most recent tracked version.
func (s Sequence) Newest() Version {
	return s.versions[0]
}

// Oldest returns the oldest tracked version.
func (s Sequence) Oldest() Version {
	return s.versions[len(s.versions)-1]
}

// Contains reports whether v is part of the sequence.
func (s Sequence) Contains(v Version) bool {
	_, ok := s.position[v]
	return ok
}

// Index returns the position of v (0 is the newest), or -1 if v is not tracked.
func (s Sequence) Index(v Version) int {
	if i, ok := s.position[v]; ok {
		return i
	}
	return -1
}

// Compare orders two tracked versions by recency.
// Returns a negative number when a is more recent than b, zero when they are
// the same version, and a positive number when a is older.
// Panics if either version is not part of the sequence.
func (s Sequence) Compare(a, b Version) int {
	ia, ib := s.Index(a), s.Index(b)
	if ia < 0 {
		panic(fmt.Sprintf("version %q is not in the sequence", a))
	}
	if ib < 0 {
		panic(fmt.Sprintf("version %q is not in the sequence", b))
	}
	return ia - ib
}

// NewerThan reports whether a is strictly more recent than b.
func (s Sequence) NewerThan(a, b Version) bool {
	return s.Compare(a, b) < 0
}
