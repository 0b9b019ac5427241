package fileid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunID(t *testing.T) {
	id1 := RunID("/foo/bar.json")
	id2 := RunID("/foo/bar.json")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, prefix) {
		t.Errorf("ID should have prefix %q: got %q", prefix, id1)
	}
	if !IsPathID(id1) {
		t.Errorf("IsPathID(%q) = false", id1)
	}
}

func TestRunID_differentPaths(t *testing.T) {
	if RunID("/foo/bar.json") == RunID("/foo/baz.json") {
		t.Error("different paths should give different IDs")
	}
}

func TestRunID_normalized(t *testing.T) {
	id1 := RunID("/foo/bar")
	for _, p := range []string{"/foo/bar/", "/foo/./bar", "/foo/baz/../bar"} {
		if got := RunID(p); got != id1 {
			t.Errorf("RunID(%q) = %q, want %q", p, got, id1)
		}
	}
}

func TestRunID_relative(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if RunID("docs/a.md") != RunID(filepath.Join(wd, "docs", "a.md")) {
		t.Error("relative path should resolve against the working directory")
	}
}

func TestIsPathID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"", false},
		{"path:", false},
		{"path:xyz", false},
		{"path:" + strings.Repeat("zz", 16), false},
		{"3f2a9c1e-0000-4000-8000-000000000000", false},
		{"path:" + strings.Repeat("ab", 16), true},
	}
	for _, tt := range tests {
		if got := IsPathID(tt.id); got != tt.want {
			t.Errorf("IsPathID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
