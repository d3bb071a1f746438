// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry holds one claim in the flattened export layout.
type ExportEntry struct {
	ID           string   `json:"id" yaml:"id"`
	Text         string   `json:"text" yaml:"text"`
	Category     string   `json:"category" yaml:"category"`
	Source       string   `json:"source,omitempty" yaml:"source,omitempty"`
	SourceID     int      `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	Context      string   `json:"context,omitempty" yaml:"context,omitempty"`
	PrimaryQuote string   `json:"primary_quote,omitempty" yaml:"primary_quote,omitempty"`
	Quotes       []string `json:"supporting_quotes,omitempty" yaml:"supporting_quotes,omitempty"`
	Sections     []string `json:"sections,omitempty" yaml:"sections,omitempty"`
	Verified     bool     `json:"verified" yaml:"verified"`
}

const exportLimit = 100000

// ExportYAML writes the index to <knowledge>/index/export.yaml. It supports
// the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(s.ExportPath("yaml"), data, 0o644)
}

// ExportJSON writes the index to <knowledge>/index/export.json. It supports
// the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) error {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(s.ExportPath("json"), data, 0o644)
}

// ExportPath returns the export file path for an extension ("yaml" or "json").
func (s *Store) ExportPath(ext string) string {
	return filepath.Join(s.knowledgeDir, indexDir, "export."+ext)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		entries[i] = ExportEntry{
			ID:           r.ID,
			Text:         r.Text,
			Category:     string(r.Category),
			Source:       r.Source,
			SourceID:     r.SourceID,
			Context:      r.Context,
			PrimaryQuote: r.PrimaryQuote.Text,
			Sections:     r.Sections,
			Verified:     r.Verified,
		}
		for _, q := range r.SupportingQuotes {
			entries[i].Quotes = append(entries[i].Quotes, q.Text)
		}
	}

	return entries, nil
}
