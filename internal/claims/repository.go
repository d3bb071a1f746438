// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/claims-kb/internal/embedding"
	"github.com/pdiddy/claims-kb/pkg/types"
)

// ErrClaimNotFound is matched by errors returned for unknown claim ids.
var ErrClaimNotFound = errors.New("claim not found")

// ErrTooFewClaims is returned when a merge names fewer than two claims.
var ErrTooFewClaims = errors.New("Must provide at least 2 claim IDs")

// NotFoundError reports an unknown claim id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("claim %s not found", e.ID) }

// Is makes errors.Is(err, ErrClaimNotFound) succeed.
func (e *NotFoundError) Is(target error) bool { return target == ErrClaimNotFound }

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind string

const (
	ChangeSaved   ChangeKind = "saved"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
	ChangeMerged  ChangeKind = "merged"
	ChangeLoaded  ChangeKind = "loaded"
)

// Change is delivered to subscribers after a mutation has been persisted.
type Change struct {
	Kind   ChangeKind
	IDs    []string
	Result SaveResult
}

// ClaimUpdate is a partial update. Nil fields are left unchanged.
type ClaimUpdate struct {
	Text             *string
	Category         *types.Category
	Context          *string
	Source           *string
	SourceID         *int
	PrimaryQuote     *types.Quote
	SupportingQuotes []types.Quote
	Sections         []string
	Verified         *bool
}

// SimilarClaim pairs a claim with its similarity to a query text.
type SimilarClaim struct {
	Claim      types.Claim `json:"claim" yaml:"claim"`
	Similarity float64     `json:"similarity" yaml:"similarity"`
}

// Repository is the in-memory claim collection built from a Backend. Every
// mutation is persisted before it becomes visible; a failed write leaves the
// collection unchanged.
type Repository struct {
	mu       sync.RWMutex
	backend  Backend
	embedder embedding.Embedder
	claims   map[string]types.Claim
	now      func() time.Time
	log      *logrus.Logger

	subMu       sync.Mutex
	subscribers map[int]func(Change)
	nextSub     int
}

// RepositoryOption customizes a Repository.
type RepositoryOption func(*Repository)

// WithClock overrides the time source for CreatedAt and ModifiedAt.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) { r.now = now }
}

// WithLogger sets the repository logger.
func WithLogger(log *logrus.Logger) RepositoryOption {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRepository creates an empty repository; call Load to populate it.
// embedder may be nil when DetectSimilar is not needed.
func NewRepository(backend Backend, embedder embedding.Embedder, opts ...RepositoryOption) *Repository {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	r := &Repository{
		backend:     backend,
		embedder:    embedder,
		claims:      make(map[string]types.Claim),
		now:         time.Now,
		log:         quiet,
		subscribers: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers fn to receive every Change. The returned function
// removes the subscription.
func (r *Repository) Subscribe(fn func(Change)) (unsubscribe func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = fn
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subscribers, id)
	}
}

func (r *Repository) notify(c Change) {
	r.subMu.Lock()
	subs := make([]func(Change), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.subMu.Unlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Load replaces the collection with the backend contents.
func (r *Repository) Load(ctx context.Context) ([]types.Claim, error) {
	loaded, err := r.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading claims: %w", err)
	}

	r.mu.Lock()
	r.claims = make(map[string]types.Claim, len(loaded))
	ids := make([]string, 0, len(loaded))
	for _, c := range loaded {
		if c.Category == "" {
			c.Category = types.CategoryUncategorized
		}
		r.claims[c.ID] = c
		ids = append(ids, c.ID)
	}
	r.mu.Unlock()

	r.log.WithField("count", len(loaded)).Debug("loaded claims")
	r.notify(Change{Kind: ChangeLoaded, IDs: ids})
	return r.Claims(), nil
}

// Claims returns a copy of every claim ordered by numeric id.
func (r *Repository) Claims() []types.Claim {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

func (r *Repository) sortedLocked() []types.Claim {
	out := make([]types.Claim, 0, len(r.claims))
	for _, c := range r.claims {
		out = append(out, c.Clone())
	}
	sortClaims(out)
	return out
}

// Get returns the claim with the given id.
func (r *Repository) Get(id string) (types.Claim, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.claims[id]
	if !ok {
		return types.Claim{}, false
	}
	return c.Clone(), true
}

// NextID returns max(numeric suffix)+1 formatted as C_NN. The width grows
// past two digits (C_100) rather than wrapping.
func (r *Repository) NextID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextIDLocked()
}

func (r *Repository) nextIDLocked() string {
	highest := 0
	for id := range r.claims {
		if n, ok := claimNumber(id); ok && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("C_%02d", highest+1)
}

// commitLocked persists next and swaps it in on success.
func (r *Repository) commitLocked(ctx context.Context, next map[string]types.Claim) (SaveResult, error) {
	all := make([]types.Claim, 0, len(next))
	for _, c := range next {
		all = append(all, c)
	}
	sortClaims(all)

	result, err := r.backend.Save(ctx, all)
	if err != nil {
		r.log.WithError(err).Error("persisting claims failed")
		return result, fmt.Errorf("persisting claims: %w", err)
	}
	r.claims = next
	return result, nil
}

func (r *Repository) copyLocked() map[string]types.Claim {
	next := make(map[string]types.Claim, len(r.claims))
	for id, c := range r.claims {
		next[id] = c
	}
	return next
}

// Save inserts or replaces a claim and persists the collection. An empty id is
// assigned with NextID; an empty category becomes uncategorized.
func (r *Repository) Save(ctx context.Context, claim types.Claim) (types.Claim, error) {
	r.mu.Lock()
	claim = claim.Clone()
	if claim.ID == "" {
		claim.ID = r.nextIDLocked()
	}
	if claim.Category == "" {
		claim.Category = types.CategoryUncategorized
	}
	now := r.now()
	if existing, ok := r.claims[claim.ID]; ok {
		claim.CreatedAt = existing.CreatedAt
	} else if claim.CreatedAt.IsZero() {
		claim.CreatedAt = now
	}
	claim.ModifiedAt = now

	next := r.copyLocked()
	next[claim.ID] = claim
	result, err := r.commitLocked(ctx, next)
	r.mu.Unlock()
	if err != nil {
		return types.Claim{}, err
	}

	r.notify(Change{Kind: ChangeSaved, IDs: []string{claim.ID}, Result: result})
	return claim.Clone(), nil
}

// Update applies a partial update to an existing claim.
func (r *Repository) Update(ctx context.Context, id string, u ClaimUpdate) (types.Claim, error) {
	r.mu.Lock()
	existing, ok := r.claims[id]
	if !ok {
		r.mu.Unlock()
		return types.Claim{}, &NotFoundError{ID: id}
	}

	c := existing.Clone()
	if u.Text != nil {
		c.Text = *u.Text
	}
	if u.Category != nil {
		c.Category = *u.Category
	}
	if u.Context != nil {
		c.Context = *u.Context
	}
	if u.Source != nil {
		c.Source = *u.Source
	}
	if u.SourceID != nil {
		c.SourceID = *u.SourceID
	}
	if u.PrimaryQuote != nil {
		c.PrimaryQuote = *u.PrimaryQuote
	}
	if u.SupportingQuotes != nil {
		c.SupportingQuotes = append([]types.Quote(nil), u.SupportingQuotes...)
	}
	if u.Sections != nil {
		c.Sections = append([]string(nil), u.Sections...)
	}
	if u.Verified != nil {
		c.Verified = *u.Verified
	}
	c.ModifiedAt = r.now()

	next := r.copyLocked()
	next[id] = c
	result, err := r.commitLocked(ctx, next)
	r.mu.Unlock()
	if err != nil {
		return types.Claim{}, err
	}

	r.notify(Change{Kind: ChangeUpdated, IDs: []string{id}, Result: result})
	return c.Clone(), nil
}

// Delete removes a claim and persists the collection.
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	if _, ok := r.claims[id]; !ok {
		r.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	next := r.copyLocked()
	delete(next, id)
	result, err := r.commitLocked(ctx, next)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.notify(Change{Kind: ChangeDeleted, IDs: []string{id}, Result: result})
	return nil
}

// Merge folds the claims named by ids into the first one. The merged claim
// keeps the first claim's text, gains every other claim's quotes as
// supporting quotes and the union of all sections; the other claims are
// deleted.
func (r *Repository) Merge(ctx context.Context, ids []string) (types.Claim, error) {
	var unique []string
	seen := make(map[string]bool)
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) < 2 {
		return types.Claim{}, ErrTooFewClaims
	}

	r.mu.Lock()
	parts := make([]types.Claim, 0, len(unique))
	for _, id := range unique {
		c, ok := r.claims[id]
		if !ok {
			r.mu.Unlock()
			return types.Claim{}, &NotFoundError{ID: id}
		}
		parts = append(parts, c)
	}

	merged := parts[0].Clone()
	quoteSeen := map[string]bool{strings.TrimSpace(merged.PrimaryQuote.Text): true}
	for _, q := range merged.SupportingQuotes {
		quoteSeen[strings.TrimSpace(q.Text)] = true
	}
	addQuote := func(q types.Quote, source string) {
		key := strings.TrimSpace(q.Text)
		if key == "" || quoteSeen[key] {
			return
		}
		quoteSeen[key] = true
		if q.Source == "" {
			q.Source = source
		}
		merged.SupportingQuotes = append(merged.SupportingQuotes, q)
	}

	sectionSeen := make(map[string]bool)
	for _, s := range merged.Sections {
		sectionSeen[s] = true
	}
	for _, other := range parts[1:] {
		addQuote(other.PrimaryQuote, other.Source)
		for _, q := range other.SupportingQuotes {
			addQuote(q, other.Source)
		}
		for _, s := range other.Sections {
			if !sectionSeen[s] {
				sectionSeen[s] = true
				merged.Sections = append(merged.Sections, s)
			}
		}
		merged.Verified = merged.Verified || other.Verified
	}
	merged.ModifiedAt = r.now()

	next := r.copyLocked()
	for _, other := range parts[1:] {
		delete(next, other.ID)
	}
	next[merged.ID] = merged
	result, err := r.commitLocked(ctx, next)
	r.mu.Unlock()
	if err != nil {
		return types.Claim{}, err
	}

	r.notify(Change{Kind: ChangeMerged, IDs: unique, Result: result})
	return merged.Clone(), nil
}

// Search returns claims whose text, primary quote or context contains query,
// case-insensitively.
func (r *Repository) Search(query string) []types.Claim {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []types.Claim
	for _, c := range r.Claims() {
		if strings.Contains(strings.ToLower(c.Text), q) ||
			strings.Contains(strings.ToLower(c.PrimaryQuote.Text), q) ||
			strings.Contains(strings.ToLower(c.Context), q) {
			out = append(out, c)
		}
	}
	return out
}

// FindBySection returns the claims linked to a section id.
func (r *Repository) FindBySection(sectionID string) []types.Claim {
	var out []types.Claim
	for _, c := range r.Claims() {
		if c.HasSection(sectionID) {
			out = append(out, c)
		}
	}
	return out
}

// FindBySource returns the claims citing source (case-insensitive).
func (r *Repository) FindBySource(source string) []types.Claim {
	var out []types.Claim
	for _, c := range r.Claims() {
		if strings.EqualFold(c.Source, source) {
			out = append(out, c)
		}
	}
	return out
}

// DetectSimilar returns claims whose text has cosine similarity of at least
// threshold with text, most similar first.
func (r *Repository) DetectSimilar(text string, threshold float64) []SimilarClaim {
	if r.embedder == nil {
		return nil
	}
	target := r.embedder.Embed(text)

	var out []SimilarClaim
	for _, c := range r.Claims() {
		sim := r.embedder.CosineSimilarity(target, r.embedder.Embed(c.Text))
		if sim >= threshold {
			out = append(out, SimilarClaim{Claim: c, Similarity: sim})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}
