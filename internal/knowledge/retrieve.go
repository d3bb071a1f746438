// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/claims-kb/internal/claims"
	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/pkg/types"
)

// QueryOptions holds parameters for claim index queries.
type QueryOptions struct {
	// Query is the FTS5 full-text search string over text, context and
	// primary quote.
	Query string

	// Category filters by claim category.
	Category types.Category

	// Source filters by author-year source key.
	Source string

	// Section filters to claims linked to a manuscript section.
	Section string

	// MaxResults limits result count. Zero uses store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Category == "" && q.Source == "" && q.Section == ""
}

// QueryResult is an indexed claim with its full-text rank (lower is better;
// zero for filter-only queries).
type QueryResult struct {
	types.Claim
	Rank float64 `json:"rank" yaml:"rank"`
}

// Retrieve queries the index with optional full-text search and structured
// filters. Results are ranked by relevance for full-text queries or sorted
// by source and id for filter-only queries.
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]QueryResult, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT c.data, claims_fts.rank
			FROM claims_fts
			JOIN claims c ON c.rowid = claims_fts.rowid
			WHERE claims_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT c.data, 0 AS rank
			FROM claims c
			WHERE 1=1`)
	}

	if opts.Category != "" {
		qb.WriteString(` AND c.category = ?`)
		args = append(args, string(opts.Category))
	}

	if opts.Source != "" {
		qb.WriteString(` AND c.source = ? COLLATE NOCASE`)
		args = append(args, opts.Source)
	}

	if opts.Section != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(c.sections) WHERE value = ?)`)
		args = append(args, opts.Section)
	}

	if useFTS {
		qb.WriteString(` ORDER BY claims_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.source, c.rowid`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying claim index: %w", err)
	}
	defer rows.Close()

	var results []QueryResult
	for rows.Next() {
		var (
			qr   QueryResult
			data string
		)
		if err := rows.Scan(&data, &qr.Rank); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &qr.Claim); err != nil {
			return nil, fmt.Errorf("decoding claim: %w", err)
		}
		results = append(results, qr)
	}

	return results, rows.Err()
}

// Neighbor is an indexed claim with its similarity to a query text.
type Neighbor struct {
	Claim      types.Claim `json:"claim" yaml:"claim"`
	Similarity float64     `json:"similarity" yaml:"similarity"`
}

// Nearest embeds text and returns the k stored claims with the highest
// cosine similarity, best first. It scans every stored vector.
func (s *Store) Nearest(ctx context.Context, text string, k int) ([]Neighbor, error) {
	if k <= 0 {
		k = s.maxResults
	}
	query := s.embedder.Embed(text)

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.data, e.vector FROM embeddings e JOIN claims c ON c.id = e.claim_id`)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var (
			data string
			blob []byte
			n    Neighbor
		)
		if err := rows.Scan(&data, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		vec, err := embedding.DecodeVector(blob)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &n.Claim); err != nil {
			return nil, fmt.Errorf("decoding claim: %w", err)
		}
		n.Similarity = s.embedder.CosineSimilarity(query, vec)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// SourceCount is the number of indexed claims citing one source.
type SourceCount struct {
	Source   string `json:"source" yaml:"source"`
	SourceID int    `json:"source_id" yaml:"source_id"`
	Claims   int    `json:"claims" yaml:"claims"`
}

// Sources lists every cited source with its claim count, most cited first.
func (s *Store) Sources(ctx context.Context) ([]SourceCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, MAX(source_id), COUNT(*) FROM claims
		 WHERE source IS NOT NULL AND source != ''
		 GROUP BY source ORDER BY COUNT(*) DESC, source`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.SourceID, &sc.Claims); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Trace returns the markdown block of an indexed claim as it appears on
// disk. It looks in the claim's category shard first, then the other shard
// files, then the legacy file.
func (s *Store) Trace(ctx context.Context, claimID string) (string, error) {
	var category string
	err := s.db.QueryRowContext(ctx,
		`SELECT category FROM claims WHERE id = ?`, claimID,
	).Scan(&category)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("claim %s not found", claimID)
		}
		return "", fmt.Errorf("looking up claim: %w", err)
	}

	for _, path := range s.traceCandidates(types.Category(category)) {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if block := extractClaimBlock(string(content), claimID); block != "" {
			return block, nil
		}
	}
	return "", fmt.Errorf("claim %s not found in %s", claimID, s.claimsDir)
}

func (s *Store) traceCandidates(category types.Category) []string {
	shard := filepath.Join(s.claimsDir, claims.ShardFile(category))
	paths := []string{shard}
	if entries, err := os.ReadDir(s.claimsDir); err == nil {
		for _, e := range entries {
			p := filepath.Join(s.claimsDir, e.Name())
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") && p != shard {
				paths = append(paths, p)
			}
		}
	}
	return append(paths, s.legacyPath)
}

// extractClaimBlock finds the "## <id>:" block in markdown and returns it up
// to, not including, the closing "---" or the next heading.
func extractClaimBlock(content, claimID string) string {
	lines := strings.Split(content, "\n")
	header := "## " + claimID + ":"
	var capturing bool
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !capturing {
			if strings.HasPrefix(trimmed, header) {
				capturing = true
				result = append(result, line)
			}
			continue
		}
		if trimmed == "---" || strings.HasPrefix(trimmed, "# ") || strings.HasPrefix(trimmed, "## ") {
			break
		}
		result = append(result, line)
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
