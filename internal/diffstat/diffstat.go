// Package diffstat reduces a per-path tree diff to the counters shown in the prompt.
package diffstat

import "github.com/zhubert/jjline/internal/vcs"

// Stats summarizes a diff.
type Stats struct {
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
}

// IsEmpty reports whether every counter is zero.
func (s Stats) IsEmpty() bool {
	return s.FilesChanged == 0 && s.LinesAdded == 0 && s.LinesRemoved == 0
}

// Summarize counts changes. Every entry is one changed file, renames and copies
// included; a pure rename with no content change still counts as a file.
func Summarize(changes []vcs.FileChange) Stats {
	var s Stats
	for _, c := range changes {
		s.FilesChanged++
		s.LinesAdded += max(c.Added, 0)
		s.LinesRemoved += max(c.Removed, 0)
	}
	return s
}
