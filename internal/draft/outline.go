// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft reads manuscripts into section outlines and checks their
// citations against the claims database.
package draft

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pdiddy/claims-kb/pkg/types"
)

var (
	// headingPattern matches ATX headings, with optional closing hashes.
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+#+)?\s*$`)

	// numberedTitlePattern splits "2.1 Title" or "2.1. Title" into number and title.
	numberedTitlePattern = regexp.MustCompile(`^(\d+(?:\.\d+)*)\.?\s+(.+)$`)

	// sectionFilePattern matches numbered section files: NN-slug.md.
	sectionFilePattern = regexp.MustCompile(`^\d{2}-.+\.md$`)
)

// ParseOutline builds the section tree of a markdown manuscript. Each ATX
// heading starts a section that runs until the next heading; text before the
// first heading is ignored. Headings inside fenced code blocks are skipped.
func ParseOutline(markdown string) []types.OutlineSection {
	lines := strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var sections []types.OutlineSection
	ids := make(map[string]int)
	var stack []int // indices of open ancestors, shallowest first
	inFence := false

	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}

		m := headingPattern.FindStringSubmatch(line)
		if m == nil || inFence {
			if len(sections) > 0 && trimmed != "" {
				cur := &sections[len(sections)-1]
				cur.Content = append(cur.Content, trimmed)
			}
			continue
		}

		if len(sections) > 0 {
			sections[len(sections)-1].LineEnd = lineNo - 1
		}

		level := len(m[1])
		id, title := sectionID(m[2], len(sections)+1)
		if n := ids[id]; n > 0 {
			base := id
			for ids[id] > 0 {
				n++
				id = fmt.Sprintf("%s-%d", base, n)
			}
			ids[base] = n
		}
		ids[id] = 1

		for len(stack) > 0 && sections[stack[len(stack)-1]].Level >= level {
			stack = stack[:len(stack)-1]
		}
		s := types.OutlineSection{ID: id, Level: level, Title: title, LineStart: lineNo}
		if len(stack) > 0 {
			p := stack[len(stack)-1]
			s.Parent = sections[p].ID
			sections[p].Children = append(sections[p].Children, id)
		}
		sections = append(sections, s)
		stack = append(stack, len(sections)-1)
	}

	if len(sections) > 0 {
		sections[len(sections)-1].LineEnd = len(lines)
	}
	return sections
}

// sectionID returns the id and title for a heading. Numbered headings use the
// number as id; others use a slug of the title.
func sectionID(heading string, ordinal int) (id, title string) {
	heading = strings.TrimSpace(heading)
	if m := numberedTitlePattern.FindStringSubmatch(heading); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	if slug := Slug(heading); slug != "" {
		return slug, heading
	}
	return fmt.Sprintf("section-%d", ordinal), heading
}

// Slug lowercases s and joins its letter and digit runs with hyphens.
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	return b.String()
}

// FindSection returns the section with the given id.
func FindSection(sections []types.OutlineSection, id string) (types.OutlineSection, bool) {
	for _, s := range sections {
		if s.ID == id {
			return s, true
		}
	}
	return types.OutlineSection{}, false
}

// LoadOutline reads a manuscript and parses its outline. path is either a
// markdown file or a directory of numbered section files (NN-slug.md), which
// are read in order as one document.
func LoadOutline(path string) ([]types.OutlineSection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading manuscript: %w", err)
	}
	if !info.IsDir() {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading manuscript: %w", err)
		}
		return ParseOutline(string(data)), nil
	}

	files, err := SectionFiles(path)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(f), err)
		}
		b.Write(data)
		if len(data) > 0 && data[len(data)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return ParseOutline(b.String()), nil
}

// SectionFiles returns the ordered list of numbered section file paths
// (NN-*.md) in a manuscript directory.
func SectionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading manuscript directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if sectionFilePattern.MatchString(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
