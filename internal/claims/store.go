// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// Backend loads and persists the full claim set. MarkdownStore is the
// reference implementation; MemoryBackend serves tests and embedders.
type Backend interface {
	Load(ctx context.Context) ([]types.Claim, error)
	Save(ctx context.Context, claims []types.Claim) (SaveResult, error)
}

// SaveResult reports which files a save rewrote and which it left alone
// because their rendered content was already on disk.
type SaveResult struct {
	Written   []string `json:"written" yaml:"written"`
	Unchanged []string `json:"unchanged" yaml:"unchanged"`
}

// Changed reports whether any file was written.
func (r SaveResult) Changed() bool { return len(r.Written) > 0 }

// Mode identifies the on-disk layout of the claim database.
type Mode string

const (
	ModeEmpty     Mode = "empty"
	ModeDirectory Mode = "directory"
	ModeLegacy    Mode = "legacy"
)

// MarkdownStore reads and writes claims as markdown, either sharded by
// category under a claims directory or in a single legacy file.
type MarkdownStore struct {
	claimsDir  string
	legacyPath string
	linkPrefix string
	writeIndex bool
	log        *logrus.Logger
}

// NewMarkdownStore creates a store rooted at cfg.KnowledgeDir. A nil logger
// discards log output.
func NewMarkdownStore(cfg types.ClaimsConfig, log *logrus.Logger) *MarkdownStore {
	defaults := types.DefaultConfig().Claims
	if cfg.ClaimsDir == "" {
		cfg.ClaimsDir = defaults.ClaimsDir
	}
	if cfg.LegacyFile == "" {
		cfg.LegacyFile = defaults.LegacyFile
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &MarkdownStore{
		claimsDir:  filepath.Join(cfg.KnowledgeDir, cfg.ClaimsDir),
		legacyPath: filepath.Join(cfg.KnowledgeDir, cfg.LegacyFile),
		linkPrefix: filepath.ToSlash(cfg.ClaimsDir),
		writeIndex: cfg.WriteIndex,
		log:        log,
	}
}

// Mode detects the current layout: a claims directory wins over the legacy file.
func (s *MarkdownStore) Mode() Mode {
	if info, err := os.Stat(s.claimsDir); err == nil && info.IsDir() {
		return ModeDirectory
	}
	if info, err := os.Stat(s.legacyPath); err == nil && !info.IsDir() {
		return ModeLegacy
	}
	return ModeEmpty
}

// Load reads every claim. A missing directory or file yields an empty set;
// unreadable shard files and malformed blocks are logged and skipped.
func (s *MarkdownStore) Load(ctx context.Context) ([]types.Claim, error) {
	switch s.Mode() {
	case ModeDirectory:
		return s.loadDirectory(ctx)
	case ModeLegacy:
		claims, err := s.loadFile(s.legacyPath, types.CategoryUncategorized)
		if err != nil {
			s.log.WithError(err).WithField("file", s.legacyPath).Warn("skipping unreadable claims file")
			return []types.Claim{}, nil
		}
		return claims, nil
	default:
		return []types.Claim{}, nil
	}
}

func (s *MarkdownStore) loadDirectory(ctx context.Context) ([]types.Claim, error) {
	entries, err := os.ReadDir(s.claimsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Claim{}, nil
		}
		return nil, fmt.Errorf("reading claims directory %s: %w", s.claimsDir, err)
	}

	all := []types.Claim{}
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fallback, ok := categoryForFile(entry.Name())
		if !ok {
			fallback = types.CategoryUncategorized
		}
		path := filepath.Join(s.claimsDir, entry.Name())
		claims, err := s.loadFile(path, fallback)
		if err != nil {
			s.log.WithError(err).WithField("file", path).Warn("skipping unreadable claims file")
			continue
		}

		for _, c := range claims {
			if prev, dup := seen[c.ID]; dup {
				s.log.WithFields(logrus.Fields{"id": c.ID, "file": entry.Name(), "first": prev}).
					Warn("duplicate claim id, keeping first occurrence")
				continue
			}
			seen[c.ID] = entry.Name()
			all = append(all, c)
		}
	}

	sortClaims(all)
	return all, nil
}

// loadFile parses one markdown file. Claims without a category take fallback;
// timestamps default to the file modification time.
func (s *MarkdownStore) loadFile(path string, fallback types.Category) ([]types.Claim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	claims, warnings := Parse(string(data))
	for _, w := range warnings {
		s.log.WithFields(logrus.Fields{"file": filepath.Base(path), "line": w.Line}).
			Warn(w.Message + ", skipping block")
	}

	modTime := info.ModTime().UTC()
	for i := range claims {
		if claims[i].Category == "" {
			claims[i].Category = fallback
		}
		claims[i].CreatedAt = modTime
		claims[i].ModifiedAt = modTime
	}
	return claims, nil
}

// Save persists claims, writing only files whose rendered content differs from
// what is on disk. An empty database is created in directory mode.
func (s *MarkdownStore) Save(ctx context.Context, claims []types.Claim) (SaveResult, error) {
	if s.Mode() == ModeLegacy {
		var result SaveResult
		err := s.writeIfChanged(s.legacyPath, RenderLegacy(claims), &result)
		return result, err
	}
	return s.saveDirectory(ctx, claims)
}

func (s *MarkdownStore) saveDirectory(ctx context.Context, claims []types.Claim) (SaveResult, error) {
	var result SaveResult

	groups := make(map[string][]types.Claim)
	for _, c := range claims {
		f := ShardFile(c.Category)
		groups[f] = append(groups[f], c)
	}

	// Shards on disk that lost all their claims are reduced to their banner so
	// moved or deleted claims do not reappear on the next load. Files outside
	// the category table are shards too while they hold claim blocks: their
	// claims are rewritten to the uncategorized shard.
	if entries, err := os.ReadDir(s.claimsDir); err == nil {
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".md") {
				continue
			}
			if _, ok := groups[name]; ok {
				continue
			}
			if _, known := categoryForFile(name); known || s.holdsClaims(filepath.Join(s.claimsDir, name)) {
				groups[name] = nil
			}
		}
	}

	files := make([]string, 0, len(groups))
	for f := range groups {
		files = append(files, f)
	}
	sort.Strings(files)

	if err := os.MkdirAll(s.claimsDir, 0o755); err != nil {
		return result, fmt.Errorf("creating claims directory: %w", err)
	}

	for _, f := range files {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		content := RenderShard(shardCategory(f), groups[f])
		if err := s.writeIfChanged(filepath.Join(s.claimsDir, f), content, &result); err != nil {
			return result, err
		}
	}

	if s.writeIndex {
		if err := s.writeIfChanged(s.legacyPath, RenderIndex(s.linkPrefix, claims), &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// holdsClaims reports whether the file at path contains any claim block.
func (s *MarkdownStore) holdsClaims(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	claims, _ := Parse(string(data))
	return len(claims) > 0
}

// writeIfChanged compares content with the file on disk and rewrites it only
// when they differ.
func (s *MarkdownStore) writeIfChanged(path, content string, result *SaveResult) error {
	if existing, err := os.ReadFile(path); err == nil && string(existing) == content {
		result.Unchanged = append(result.Unchanged, path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.log.WithError(err).WithField("file", path).Error("creating directory failed")
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		s.log.WithError(err).WithField("file", path).Error("writing claims file failed")
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.log.WithField("file", path).Debug("wrote claims file")
	result.Written = append(result.Written, path)
	return nil
}
