package vcs

import "testing"

func TestQueryString(t *testing.T) {
	tests := []struct {
		q    Query
		want string
	}{
		{WorkingCopy{}, "@"},
		{NearestBookmarked{Depth: 100}, "latest(heads(ancestors(@-, 100) & (bookmarks() | remote_bookmarks())))"},
		{Range{From: "abc123"}, "abc123::@"},
	}
	for _, tt := range tests {
		if got := tt.q.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestShort(t *testing.T) {
	id := CommitID("0123456789abcdef")
	if got := id.Short(8); got != "01234567" {
		t.Errorf("Short(8) = %q", got)
	}
	if got := id.Short(0); got != string(id) {
		t.Errorf("Short(0) = %q, want full id", got)
	}
	if got := ChangeID("kxy").Short(8); got != "kxy" {
		t.Errorf("Short beyond length = %q", got)
	}
}

func TestRemoteBookmark(t *testing.T) {
	b := RemoteBookmark{Name: "main", Remote: "origin", Targets: []CommitID{"a", "b"}}
	if b.Qualified() != "main@origin" {
		t.Errorf("Qualified() = %q", b.Qualified())
	}
	if !b.PointsAt("b") || b.PointsAt("c") {
		t.Error("PointsAt() mismatch")
	}
}
