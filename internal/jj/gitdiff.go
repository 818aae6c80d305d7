package jj

import (
	"bytes"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/zhubert/jjline/internal/vcs"
)

// parseGitDiff turns the output of "jj diff --git" into per-path changes.
func parseGitDiff(out []byte) ([]vcs.FileChange, error) {
	files, _, err := gitdiff.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	changes := make([]vcs.FileChange, 0, len(files))
	for _, f := range files {
		fc := vcs.FileChange{Path: f.NewName}
		switch {
		case f.IsNew:
			fc.Kind = vcs.Added
		case f.IsDelete:
			fc.Kind = vcs.Removed
			fc.Path = f.OldName
		case f.IsRename:
			fc.Kind = vcs.Renamed
			fc.Source = f.OldName
		case f.IsCopy:
			fc.Kind = vcs.Copied
			fc.Source = f.OldName
		}
		for _, frag := range f.TextFragments {
			fc.Added += int(frag.LinesAdded)
			fc.Removed += int(frag.LinesDeleted)
		}
		changes = append(changes, fc)
	}
	return changes, nil
}
