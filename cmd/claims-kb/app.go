// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdiddy/claims-kb/internal/claims"
	"github.com/pdiddy/claims-kb/internal/draft"
	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/internal/knowledge"
	"github.com/pdiddy/claims-kb/pkg/types"
)

// app wires the components every command shares.
type app struct {
	engine *embedding.Engine
	store  *claims.MarkdownStore
	repo   *claims.Repository
}

// openApp builds the embedding engine and the markdown-backed repository and
// loads the claim database.
func openApp(ctx context.Context) (*app, error) {
	engine := embedding.NewEngine(cfg.Embedding, embedding.WithLogger(log))
	store := claims.NewMarkdownStore(cfg.Claims, log)
	repo := claims.NewRepository(store, engine, claims.WithLogger(log))
	if _, err := repo.Load(ctx); err != nil {
		return nil, err
	}
	log.WithField("mode", store.Mode()).WithField("claims", len(repo.Claims())).Debug("claim database loaded")
	return &app{engine: engine, store: store, repo: repo}, nil
}

// reportWrites prints the files each repository change rewrote.
func (a *app) reportWrites(w io.Writer) func() {
	return a.repo.Subscribe(func(c claims.Change) {
		for _, f := range c.Result.Written {
			fmt.Fprintf(w, "wrote %s\n", f)
		}
	})
}

// openIndex opens the SQLite claim index with the app's engine.
func (a *app) openIndex() (*knowledge.Store, error) {
	return knowledge.NewStore(cfg.Claims, cfg.Index, a.engine)
}

func loadSections(path string) ([]types.OutlineSection, error) {
	sections, err := draft.LoadOutline(path)
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, fmt.Errorf("no headings found in %s", path)
	}
	return sections, nil
}

func findSection(sections []types.OutlineSection, id string) (types.OutlineSection, error) {
	if s, ok := draft.FindSection(sections, id); ok {
		return s, nil
	}
	ids := make([]string, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return types.OutlineSection{}, fmt.Errorf("section %q not found (available: %s)", id, strings.Join(ids, ", "))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
