// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T, writeIndex bool) (*MarkdownStore, string, *bytes.Buffer) {
	t.Helper()
	tmpDir := t.TempDir()
	var logBuf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&logBuf)
	log.SetLevel(logrus.DebugLevel)

	store := NewMarkdownStore(types.ClaimsConfig{
		KnowledgeDir: tmpDir,
		WriteIndex:   writeIndex,
	}, log)
	return store, tmpDir, &logBuf
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func sampleClaims() []types.Claim {
	return []types.Claim{
		{ID: "C_01", Text: "ComBat corrects batch effects", Category: types.CategoryMethod,
			Source: "Johnson2007", SourceID: 1, PrimaryQuote: types.Quote{Text: "empirical Bayes"}},
		{ID: "C_02", Text: "Correction can remove biology", Category: types.CategoryChallenge,
			Source: "Nygaard2016", SourceID: 3},
		{ID: "C_05", Text: "SVA captures hidden heterogeneity", Category: types.CategoryMethod,
			Source: "Leek2007", SourceID: 7, Sections: []string{"2.1"}},
		{ID: "C_07", Text: "An odd one", Category: types.CategoryUncategorized},
	}
}

// --- load tests ---

func TestLoadMissingDatabaseIsEmpty(t *testing.T) {
	store, _, _ := testStore(t, false)
	if store.Mode() != ModeEmpty {
		t.Errorf("Mode = %q, want empty", store.Mode())
	}
	claims, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 0 {
		t.Errorf("got %d claims, want 0", len(claims))
	}
}

func TestLoadLegacyFile(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	writeFile(t, filepath.Join(tmpDir, "claims_and_evidence.md"), `# Claims

## C_01: First claim text

**Category:** Method
**Source:** Smith2020 (Source ID: 1)

---

## C_02: Second claim text

**Source:** Johnson2007 (Source ID: 2)

---
`)

	if store.Mode() != ModeLegacy {
		t.Fatalf("Mode = %q, want legacy", store.Mode())
	}
	claims, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
	if claims[1].Source != "Johnson2007" || claims[1].SourceID != 2 {
		t.Errorf("C_02 source = %q/%d, want Johnson2007/2", claims[1].Source, claims[1].SourceID)
	}
	if claims[1].Category != types.CategoryUncategorized {
		t.Errorf("C_02 category = %q, want uncategorized", claims[1].Category)
	}
	if claims[0].ModifiedAt.IsZero() {
		t.Error("ModifiedAt not set from file time")
	}
}

func TestLoadDirectoryMergesShards(t *testing.T) {
	store, tmpDir, logBuf := testStore(t, false)
	dir := filepath.Join(tmpDir, "claims")
	writeFile(t, filepath.Join(dir, "methods.md"), "## C_03: method claim\n\n---\n\n## C_01: another method\n**Category:** Method\n")
	writeFile(t, filepath.Join(dir, "results.md"), "## C_02: result claim\n\n## C_bad header\n\n---\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "## C_09: ignored, not markdown\n")
	writeFile(t, filepath.Join(dir, "zz_extra.md"), "## C_01: duplicate id\n")

	claims, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 3 {
		t.Fatalf("got %d claims, want 3: %+v", len(claims), claims)
	}
	wantIDs := []string{"C_01", "C_02", "C_03"}
	for i, c := range claims {
		if c.ID != wantIDs[i] {
			t.Errorf("claims[%d].ID = %q, want %q", i, c.ID, wantIDs[i])
		}
	}
	if claims[2].Category != types.CategoryMethod {
		t.Errorf("C_03 category = %q, want inherited Method", claims[2].Category)
	}
	if claims[1].Category != types.CategoryResult {
		t.Errorf("C_02 category = %q, want inherited Result", claims[1].Category)
	}
	if claims[0].Text == "duplicate id" {
		t.Error("duplicate id from zz_extra.md replaced the first occurrence")
	}

	logs := logBuf.String()
	if !strings.Contains(logs, "malformed claim header") {
		t.Errorf("log does not mention malformed header: %s", logs)
	}
	if !strings.Contains(logs, "duplicate claim id") {
		t.Errorf("log does not mention duplicate id: %s", logs)
	}
}

func TestLoadDirectoryToleratesUnreadableFile(t *testing.T) {
	store, tmpDir, logBuf := testStore(t, false)
	dir := filepath.Join(tmpDir, "claims")
	writeFile(t, filepath.Join(dir, "methods.md"), "## C_01: readable\n")
	// A dangling symlink is listed as a file but cannot be read.
	if err := os.Symlink(filepath.Join(dir, "missing-target"), filepath.Join(dir, "broken.md")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	writeFile(t, filepath.Join(dir, "results.md"), "## C_02: also readable\n")

	claims, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
	if !strings.Contains(logBuf.String(), "skipping unreadable claims file") {
		t.Errorf("log does not mention unreadable file: %s", logBuf.String())
	}
}

// --- save tests ---

func TestSaveShardsByCategory(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	result, err := store.Save(context.Background(), sampleClaims())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Written) != 3 {
		t.Errorf("Written = %v, want 3 shard files", result.Written)
	}

	methods := readFile(t, filepath.Join(tmpDir, "claims", "methods.md"))
	if !strings.HasPrefix(methods, "# Claims and Evidence: Method\n") {
		t.Errorf("methods.md missing banner:\n%s", methods)
	}
	if strings.Index(methods, "## C_01:") > strings.Index(methods, "## C_05:") {
		t.Error("methods.md not ordered by numeric id")
	}
	for _, f := range []string{"challenges.md", "uncategorized.md"} {
		if _, err := os.Stat(filepath.Join(tmpDir, "claims", f)); err != nil {
			t.Errorf("%s not written: %v", f, err)
		}
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 4 {
		t.Fatalf("reloaded %d claims, want 4", len(loaded))
	}
}

func TestSaveSkipsUnchangedShards(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	claims := sampleClaims()
	if _, err := store.Save(context.Background(), claims); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(tmpDir, "claims", "challenges.md")
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	claims[0].Text = "ComBat corrects batch effects in microarrays"
	result, err := store.Save(context.Background(), claims)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Written) != 1 || filepath.Base(result.Written[0]) != "methods.md" {
		t.Errorf("Written = %v, want only methods.md", result.Written)
	}
	if len(result.Unchanged) != 2 {
		t.Errorf("Unchanged = %v, want 2 files", result.Unchanged)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(old) {
		t.Error("unchanged shard was rewritten")
	}
}

func TestSaveRewritesShardAfterCategoryMove(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	claims := sampleClaims()
	if _, err := store.Save(context.Background(), claims); err != nil {
		t.Fatal(err)
	}

	claims[1].Category = types.CategoryResult
	if _, err := store.Save(context.Background(), claims); err != nil {
		t.Fatal(err)
	}

	challenges := readFile(t, filepath.Join(tmpDir, "claims", "challenges.md"))
	if strings.Contains(challenges, "## C_02") {
		t.Error("C_02 still present in challenges.md after move")
	}
	results := readFile(t, filepath.Join(tmpDir, "claims", "results.md"))
	if !strings.Contains(results, "## C_02") {
		t.Error("C_02 missing from results.md")
	}

	loaded, err := store.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 4 {
		t.Errorf("reloaded %d claims, want 4", len(loaded))
	}
}

func TestSaveLegacyMode(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	legacy := filepath.Join(tmpDir, "claims_and_evidence.md")
	writeFile(t, legacy, "## C_01: seed\n")

	if _, err := store.Save(context.Background(), sampleClaims()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "claims")); !os.IsNotExist(err) {
		t.Error("claims directory created in legacy mode")
	}
	content := readFile(t, legacy)
	for _, id := range []string{"C_01", "C_02", "C_05", "C_07"} {
		if !strings.Contains(content, "## "+id+":") {
			t.Errorf("legacy file missing %s", id)
		}
	}
}

func TestSaveWritesMasterIndex(t *testing.T) {
	store, tmpDir, _ := testStore(t, true)
	if _, err := store.Save(context.Background(), sampleClaims()); err != nil {
		t.Fatal(err)
	}
	index := readFile(t, filepath.Join(tmpDir, "claims_and_evidence.md"))
	if !strings.Contains(index, "| Method | [`methods.md`](claims/methods.md) | 2 | C_01 - C_05 |") {
		t.Errorf("index missing methods row:\n%s", index)
	}
	if !strings.Contains(index, "| C_07 | uncategorized | [`uncategorized.md`](claims/uncategorized.md) |") {
		t.Errorf("index missing C_07 mapping:\n%s", index)
	}

	// The index must not be mistaken for a legacy database.
	if store.Mode() != ModeDirectory {
		t.Errorf("Mode = %q, want directory", store.Mode())
	}
}

func TestEndToEndLoad(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	writeFile(t, filepath.Join(tmpDir, "claims_and_evidence.md"), twoClaims)

	repo := NewRepository(store, nil)
	claims, err := repo.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 2 {
		t.Fatalf("got %d claims, want 2", len(claims))
	}
	c, ok := repo.Get("C_02")
	if !ok {
		t.Fatal("C_02 not found")
	}
	if c.Source != "Johnson2007" || c.SourceID != 2 {
		t.Errorf("C_02 source = %q/%d, want Johnson2007/2", c.Source, c.SourceID)
	}
}

const offTableShard = `# Claims and Evidence: Speculation

---

## C_01: old text

**Category**: Speculation
**Source**: Leek2010 (Source ID: 4)

---

## C_02: batch effects are everywhere

**Category**: Speculation

---
`

func TestSaveReconcilesOffTableShard(t *testing.T) {
	store, tmpDir, _ := testStore(t, false)
	speculation := filepath.Join(tmpDir, "claims", "speculation.md")
	writeFile(t, speculation, offTableShard)
	writeFile(t, filepath.Join(tmpDir, "claims", "notes.md"), "# Notes\n\nnot a shard\n")

	ctx := context.Background()
	repo := NewRepository(store, nil)
	if _, err := repo.Load(ctx); err != nil {
		t.Fatal(err)
	}
	text := "new text"
	if _, err := repo.Update(ctx, "C_01", ClaimUpdate{Text: &text}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "C_02"); err != nil {
		t.Fatal(err)
	}

	fresh := NewRepository(store, nil)
	if _, err := fresh.Load(ctx); err != nil {
		t.Fatal(err)
	}
	c, ok := fresh.Get("C_01")
	if !ok {
		t.Fatal("C_01 lost after reload")
	}
	if c.Text != "new text" {
		t.Errorf("C_01 text = %q, want %q", c.Text, "new text")
	}
	if c.Category != "Speculation" {
		t.Errorf("C_01 category = %q, want Speculation", c.Category)
	}
	if _, ok := fresh.Get("C_02"); ok {
		t.Error("deleted C_02 reappeared after reload")
	}

	content := readFile(t, speculation)
	if strings.Contains(content, "## C_") {
		t.Errorf("speculation.md still holds claims:\n%s", content)
	}
	if !strings.HasPrefix(content, "# Claims and Evidence: speculation\n") {
		t.Errorf("speculation.md missing banner:\n%s", content)
	}
	if got := readFile(t, filepath.Join(tmpDir, "claims", "notes.md")); got != "# Notes\n\nnot a shard\n" {
		t.Errorf("notes.md rewritten:\n%s", got)
	}
}
