// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ranking

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// ReadPapers loads a paper collection from a YAML file. The file holds either
// a top-level "papers" list or a bare list of papers.
func ReadPapers(path string) ([]types.Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading papers file: %w", err)
	}
	var list types.PaperList
	if err := yaml.Unmarshal(data, &list); err == nil {
		return list.Papers, nil
	}
	var papers []types.Paper
	if err := yaml.Unmarshal(data, &papers); err != nil {
		return nil, fmt.Errorf("parsing papers file %s: %w", path, err)
	}
	return papers, nil
}

// ReadCitedBy loads a map from paper id to the ids of in-collection papers
// citing it.
func ReadCitedBy(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cited-by file: %w", err)
	}
	var m map[string][]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing cited-by file %s: %w", path, err)
	}
	return m, nil
}

// RankingFile is the on-disk record of a ranking run, so a researcher can
// revisit the ordering without re-ranking.
type RankingFile struct {
	Section   string              `yaml:"section"`
	Title     string              `yaml:"title"`
	Threshold float64             `yaml:"threshold"`
	Results   []types.RankedPaper `yaml:"results"`
	Timestamp time.Time           `yaml:"timestamp"`
}

// WriteRankingFile saves ranked papers for a section to a YAML file.
func WriteRankingFile(path string, section types.OutlineSection, threshold float64, ranked []types.RankedPaper) error {
	rf := RankingFile{
		Section:   section.ID,
		Title:     section.Title,
		Threshold: threshold,
		Results:   ranked,
		Timestamp: time.Now(),
	}
	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling ranking file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadRankingFile loads a previously saved ranking file.
func ReadRankingFile(path string) (*RankingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ranking file: %w", err)
	}
	var rf RankingFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing ranking file: %w", err)
	}
	return &rf, nil
}
