// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge mirrors the claim database into a SQLite index with
// full-text search and stored embedding vectors.
package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "claims.db"
)

// Store manages the claim index SQLite database.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	claimsDir    string
	legacyPath   string
	maxResults   int
	embedder     embedding.Embedder
}

// NewStore opens or creates the claim index at <knowledge>/index/claims.db.
// It creates the schema if it does not exist.
func NewStore(claimsCfg types.ClaimsConfig, cfg types.IndexConfig, embedder embedding.Embedder) (*Store, error) {
	dbDir := filepath.Join(claimsCfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = types.DefaultConfig().Index.MaxResults
	}
	defaults := types.DefaultConfig().Claims
	if claimsCfg.ClaimsDir == "" {
		claimsCfg.ClaimsDir = defaults.ClaimsDir
	}
	if claimsCfg.LegacyFile == "" {
		claimsCfg.LegacyFile = defaults.LegacyFile
	}

	s := &Store{
		db:           db,
		knowledgeDir: claimsCfg.KnowledgeDir,
		claimsDir:    filepath.Join(claimsCfg.KnowledgeDir, claimsCfg.ClaimsDir),
		legacyPath:   filepath.Join(claimsCfg.KnowledgeDir, claimsCfg.LegacyFile),
		maxResults:   maxResults,
		embedder:     embedder,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS claims (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			category TEXT,
			context TEXT,
			source TEXT,
			source_id INTEGER,
			primary_quote TEXT,
			sections TEXT,
			verified INTEGER,
			data TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_category ON claims(category)`,
		`CREATE INDEX IF NOT EXISTS idx_claims_source ON claims(source)`,
		`CREATE TABLE IF NOT EXISTS embeddings (
			claim_id TEXT PRIMARY KEY REFERENCES claims(id) ON DELETE CASCADE,
			dims INTEGER NOT NULL,
			vector BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS indexing_status (
			claim_id TEXT PRIMARY KEY,
			content_hash TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='claims_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE claims_fts USING fts5(text, context, primary_quote, content=claims, content_rowid=rowid)`,
			`CREATE TRIGGER claims_ai AFTER INSERT ON claims BEGIN
				INSERT INTO claims_fts(rowid, text, context, primary_quote)
				VALUES (new.rowid, new.text, new.context, new.primary_quote);
			END`,
			`CREATE TRIGGER claims_ad AFTER DELETE ON claims BEGIN
				INSERT INTO claims_fts(claims_fts, rowid, text, context, primary_quote)
				VALUES ('delete', old.rowid, old.text, old.context, old.primary_quote);
			END`,
			`CREATE TRIGGER claims_au AFTER UPDATE ON claims BEGIN
				INSERT INTO claims_fts(claims_fts, rowid, text, context, primary_quote)
				VALUES ('delete', old.rowid, old.text, old.context, old.primary_quote);
				INSERT INTO claims_fts(rowid, text, context, primary_quote)
				VALUES (new.rowid, new.text, new.context, new.primary_quote);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// SyncSummary holds counts from an index sync run.
type SyncSummary struct {
	Indexed int
	Updated int
	Skipped int
	Removed int
	Failed  int
}

// Total returns the number of claims processed, excluding removals.
func (s SyncSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Changed reports whether the sync modified the index.
func (s SyncSummary) Changed() bool {
	return s.Indexed+s.Updated+s.Removed > 0
}

// ContentHash fingerprints the indexed fields of a claim. Timestamps are
// excluded so a reload does not look like an edit.
func ContentHash(c types.Claim) string {
	c.CreatedAt, c.ModifiedAt = time.Time{}, time.Time{}
	data, _ := json.Marshal(c)
	return strconv.FormatUint(xxhash.Sum64(data), 16)
}

// Sync brings the index in line with claims. Unchanged claims (same content
// hash) are skipped, changed ones re-indexed with fresh embeddings, and
// claims no longer present removed. On any change it rewrites export.yaml.
func (s *Store) Sync(ctx context.Context, claims []types.Claim, w io.Writer) (SyncSummary, error) {
	stored, err := s.indexedHashes(ctx)
	if err != nil {
		return SyncSummary{}, err
	}

	var (
		summary SyncSummary
		pending []types.Claim
		hashes  []string
		updates []bool
	)
	present := make(map[string]bool, len(claims))

	for _, c := range claims {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		present[c.ID] = true
		hash := ContentHash(c)
		prev, ok := stored[c.ID]
		if ok && prev == hash {
			fmt.Fprintf(w, "skipped %s\n", c.ID)
			summary.Skipped++
			continue
		}
		pending = append(pending, c)
		hashes = append(hashes, hash)
		updates = append(updates, ok)
	}

	var vectors [][]float64
	if len(pending) > 0 {
		texts := make([]string, len(pending))
		for i, c := range pending {
			texts[i] = c.Text
		}
		vectors = s.embedder.EmbedBatch(texts)
	}

	for i, c := range pending {
		if err := s.indexClaim(ctx, c, hashes[i], vectors[i]); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", c.ID, err)
			summary.Failed++
			continue
		}
		if updates[i] {
			fmt.Fprintf(w, "updated %s\n", c.ID)
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s\n", c.ID)
			summary.Indexed++
		}
	}

	for id := range stored {
		if present[id] {
			continue
		}
		if err := s.removeClaim(ctx, id); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", id, err)
			summary.Failed++
			continue
		}
		fmt.Fprintf(w, "removed %s\n", id)
		summary.Removed++
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, removed: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Removed, summary.Failed)

	if summary.Changed() {
		if err := s.ExportYAML(ctx, QueryOptions{}); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}

func (s *Store) indexedHashes(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT claim_id, content_hash FROM indexing_status`)
	if err != nil {
		return nil, fmt.Errorf("reading indexing status: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id string
		var hash sql.NullString
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("scanning indexing status: %w", err)
		}
		out[id] = hash.String
	}
	return out, rows.Err()
}

func (s *Store) indexClaim(ctx context.Context, c types.Claim, hash string, vector []float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding claim: %w", err)
	}
	sectionsJSON, _ := json.Marshal(c.Sections)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO claims (id, text, category, context, source, source_id, primary_quote, sections, verified, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			text=excluded.text, category=excluded.category, context=excluded.context,
			source=excluded.source, source_id=excluded.source_id,
			primary_quote=excluded.primary_quote, sections=excluded.sections,
			verified=excluded.verified, data=excluded.data`,
		c.ID, c.Text, string(c.Category), c.Context, c.Source, c.SourceID,
		c.PrimaryQuote.Text, string(sectionsJSON), c.Verified, string(data),
	)
	if err != nil {
		return fmt.Errorf("upserting claim: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO embeddings (claim_id, dims, vector) VALUES (?, ?, ?)
		 ON CONFLICT(claim_id) DO UPDATE SET dims=excluded.dims, vector=excluded.vector`,
		c.ID, len(vector), embedding.EncodeVector(vector),
	)
	if err != nil {
		return fmt.Errorf("storing embedding: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO indexing_status (claim_id, content_hash) VALUES (?, ?)
		 ON CONFLICT(claim_id) DO UPDATE SET content_hash=excluded.content_hash`,
		c.ID, hash,
	)
	if err != nil {
		return fmt.Errorf("updating indexing status: %w", err)
	}

	return tx.Commit()
}

func (s *Store) removeClaim(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings WHERE claim_id = ?`, id); err != nil {
		return fmt.Errorf("deleting embedding: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM claims WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting claim: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM indexing_status WHERE claim_id = ?`, id); err != nil {
		return fmt.Errorf("deleting indexing status: %w", err)
	}
	return tx.Commit()
}
