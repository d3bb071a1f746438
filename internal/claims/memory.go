// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package claims

import (
	"context"
	"sync"

	"github.com/pdiddy/claims-kb/pkg/types"
)

// MemoryBackend keeps claims in memory. It satisfies Backend for tests and for
// callers that manage persistence themselves.
type MemoryBackend struct {
	mu     sync.Mutex
	claims []types.Claim
	saves  int

	// SaveErr, when set, is returned by every Save.
	SaveErr error
}

// NewMemoryBackend returns a backend preloaded with claims.
func NewMemoryBackend(claims ...types.Claim) *MemoryBackend {
	m := &MemoryBackend{}
	for _, c := range claims {
		m.claims = append(m.claims, c.Clone())
	}
	return m
}

func (m *MemoryBackend) Load(context.Context) ([]types.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Claim, len(m.claims))
	for i, c := range m.claims {
		out[i] = c.Clone()
	}
	return out, nil
}

func (m *MemoryBackend) Save(_ context.Context, claims []types.Claim) (SaveResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return SaveResult{}, m.SaveErr
	}
	m.claims = make([]types.Claim, 0, len(claims))
	for _, c := range claims {
		m.claims = append(m.claims, c.Clone())
	}
	m.saves++
	return SaveResult{Written: []string{"memory"}}, nil
}

// Saves returns how many times Save succeeded.
func (m *MemoryBackend) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
