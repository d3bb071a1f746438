// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package draft

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// writeFile is a test helper that creates a file with the given content.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const manuscript = `Preamble text that belongs to no section.

# 1 Introduction

Batch effects confound expression studies [Johnson2007].

## 1.1 Background

Earlier work [Leek2010; Johnson2007] proposed surrogate variables.

# 2. Methods

` + "```" + `
# not a heading
` + "```" + `

## Data Sources ##

We use public RNA-seq data.

# Discussion
`

func TestParseOutline(t *testing.T) {
	sections := ParseOutline(manuscript)

	type want struct {
		id, title, parent string
		level, start, end int
		children          []string
		content           int
	}
	wants := []want{
		{"1", "Introduction", "", 1, 3, 6, []string{"1.1"}, 1},
		{"1.1", "Background", "1", 2, 7, 10, nil, 1},
		{"2", "Methods", "", 1, 11, 16, []string{"data-sources"}, 3},
		{"data-sources", "Data Sources", "2", 2, 17, 20, nil, 1},
		{"discussion", "Discussion", "", 1, 21, 21, nil, 0},
	}
	if len(sections) != len(wants) {
		t.Fatalf("got %d sections, want %d: %+v", len(sections), len(wants), sections)
	}
	for i, w := range wants {
		s := sections[i]
		if s.ID != w.id || s.Title != w.title || s.Parent != w.parent || s.Level != w.level {
			t.Errorf("section %d = {%q %q %q %d}, want {%q %q %q %d}",
				i, s.ID, s.Title, s.Parent, s.Level, w.id, w.title, w.parent, w.level)
		}
		if s.LineStart != w.start || s.LineEnd != w.end {
			t.Errorf("section %s lines = %d-%d, want %d-%d", s.ID, s.LineStart, s.LineEnd, w.start, w.end)
		}
		if !reflect.DeepEqual(s.Children, w.children) {
			t.Errorf("section %s children = %v, want %v", s.ID, s.Children, w.children)
		}
		if len(s.Content) != w.content {
			t.Errorf("section %s content = %q, want %d lines", s.ID, s.Content, w.content)
		}
	}
	if got := sections[2].Content[1]; got != "# not a heading" {
		t.Errorf("fenced line = %q", got)
	}
}

func TestParseOutlineDuplicateIDs(t *testing.T) {
	sections := ParseOutline("# Results\ntext\n# Results\n## !!!\n")
	var ids []string
	for _, s := range sections {
		ids = append(ids, s.ID)
	}
	want := []string{"results", "results-2", "section-3"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestParseOutlineSuffixedIDsStayUnique(t *testing.T) {
	tests := []struct {
		markdown string
		want     []string
	}{
		{"# Intro\n# Intro\n# Intro 2\n", []string{"intro", "intro-2", "intro-2-2"}},
		{"# Intro 2\n# Intro\n# Intro\n# Intro\n", []string{"intro-2", "intro", "intro-3", "intro-4"}},
	}
	for _, tt := range tests {
		var ids []string
		for _, s := range ParseOutline(tt.markdown) {
			ids = append(ids, s.ID)
		}
		if !reflect.DeepEqual(ids, tt.want) {
			t.Errorf("ParseOutline(%q) ids = %v, want %v", tt.markdown, ids, tt.want)
		}
	}
}

func TestParseOutlineEmpty(t *testing.T) {
	if got := ParseOutline("no headings here\n"); len(got) != 0 {
		t.Errorf("got %d sections, want 0", len(got))
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Related Work", "related-work"},
		{"  Batch-Effect  Correction!", "batch-effect-correction"},
		{"RNA-seq (bulk)", "rna-seq-bulk"},
		{"???", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.input); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFindSection(t *testing.T) {
	sections := ParseOutline(manuscript)
	s, ok := FindSection(sections, "1.1")
	if !ok || s.Title != "Background" {
		t.Errorf("FindSection(1.1) = %+v, %v", s, ok)
	}
	if _, ok := FindSection(sections, "9"); ok {
		t.Error("FindSection(9) found a section")
	}
}

func TestLoadOutline(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "paper.md", manuscript)

	sections, err := LoadOutline(filepath.Join(dir, "paper.md"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 5 {
		t.Errorf("got %d sections, want 5", len(sections))
	}

	if _, err := LoadOutline(filepath.Join(dir, "missing.md")); err == nil {
		t.Error("expected error for missing manuscript")
	}
}

func TestLoadOutlineDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "02-methods.md", "# 2 Methods\nText.")
	writeFile(t, dir, "01-introduction.md", "# 1 Introduction\nMotivation.\n")
	writeFile(t, dir, "notes.md", "# Scratch\n")

	sections, err := LoadOutline(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 2 || sections[0].ID != "1" || sections[1].ID != "2" {
		t.Fatalf("sections = %+v", sections)
	}
	if sections[1].LineStart != 3 {
		t.Errorf("second file starts at line %d, want 3", sections[1].LineStart)
	}
}

func TestSectionFiles(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		wantFiles []string
	}{
		{
			name:      "ordered sections",
			files:     []string{"02-related-work.md", "01-introduction.md", "03-methods.md"},
			wantFiles: []string{"01-introduction.md", "02-related-work.md", "03-methods.md"},
		},
		{
			name:      "excludes non-md",
			files:     []string{"01-intro.md", "outline.yaml", "README.txt"},
			wantFiles: []string{"01-intro.md"},
		},
		{
			name:      "excludes non-numbered",
			files:     []string{"01-intro.md", "notes.md", "ab-draft.md"},
			wantFiles: []string{"01-intro.md"},
		},
		{
			name:      "empty directory",
			files:     []string{},
			wantFiles: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFile(t, dir, f, "content")
			}

			files, err := SectionFiles(dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var basenames []string
			for _, f := range files {
				basenames = append(basenames, filepath.Base(f))
			}
			if !reflect.DeepEqual(basenames, tt.wantFiles) {
				t.Errorf("files = %v, want %v", basenames, tt.wantFiles)
			}
		})
	}
}
