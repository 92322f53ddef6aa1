package asset

import (
	"path/filepath"
	"testing"
)

func TestGenerateIndexedPath(t *testing.T) {
	got, err := GenerateIndexedPath("output/panel.png", 3)
	if err != nil {
		t.Fatalf("GenerateIndexedPath returned error: %v", err)
	}
	want := "output/panel_3.png"
	if got != want {
		t.Errorf("GenerateIndexedPath = %q, want %q", got, want)
	}

	if _, err := GenerateIndexedPath("output/panel.png", 0); err == nil {
		t.Error("expected error for index 0, got nil")
	}
}

func TestResolveOutputPathLocal(t *testing.T) {
	got, err := ResolveOutputPath("output", DefaultCoverFileName)
	if err != nil {
		t.Fatalf("ResolveOutputPath returned error: %v", err)
	}
	want := filepath.Join("output", "cover.jpg")
	if got != want {
		t.Errorf("ResolveOutputPath = %q, want %q", got, want)
	}
}

func TestIndexedFileRegex(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"panel with index", "panel_1.png", true},
		{"panel multi digit", "panel_42.png", true},
		{"panel without index", "panel.png", false},
		{"wrong extension", "panel_1.jpg", false},
		{"prefix mismatch", "page_1.png", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PanelFileRegex.MatchString(tt.input); got != tt.want {
				t.Errorf("PanelFileRegex.MatchString(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if !PageFileRegex.MatchString("page_2.jpg") {
		t.Error("PageFileRegex should match page_2.jpg")
	}
}
