package realm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/specialistvlad/cardc/internal/card"
)

// ErrNotFound reports a URL no realm holds a card for.
var ErrNotFound = errors.New("card not found")

// Memory is an in-memory realm. It is safe for concurrent use.
type Memory struct {
	url string

	mu    sync.RWMutex
	cards map[string]*card.RawCard
	order []string
}

// NewMemory creates an empty realm rooted at realmURL. The URL always ends
// with a slash.
func NewMemory(realmURL string) *Memory {
	if !strings.HasSuffix(realmURL, "/") {
		realmURL += "/"
	}
	return &Memory{url: realmURL, cards: make(map[string]*card.RawCard)}
}

// URL returns the realm's root URL.
func (m *Memory) URL() string {
	return m.url
}

// Owns reports whether cardURL lies inside the realm.
func (m *Memory) Owns(cardURL string) bool {
	return strings.HasPrefix(cardURL, m.url)
}

// Put stores raw, replacing any card with the same URL.
func (m *Memory) Put(raw *card.RawCard) error {
	if !m.Owns(raw.URL) {
		return fmt.Errorf("card %s is outside realm %s", raw.URL, m.url)
	}
	stored := *raw
	stored.Files = append(card.Files(nil), raw.Files...)

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[raw.URL]; !ok {
		m.order = append(m.order, raw.URL)
	}
	m.cards[raw.URL] = &stored
	return nil
}

// Delete removes the card at cardURL.
func (m *Memory) Delete(cardURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cards[cardURL]; !ok {
		return false
	}
	delete(m.cards, cardURL)
	for i, u := range m.order {
		if u == cardURL {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// GetRawCard returns the card stored at cardURL. Callers must not modify it.
func (m *Memory) GetRawCard(_ context.Context, cardURL string) (*card.RawCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.cards[cardURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, cardURL)
	}
	return raw, nil
}

// URLs returns the URLs of every card in insertion order.
func (m *Memory) URLs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Union is a set of realms queried by URL prefix, longest prefix first.
type Union []*Memory

// GetRawCard implements builder.Source.
func (u Union) GetRawCard(ctx context.Context, cardURL string) (*card.RawCard, error) {
	r, ok := u.Owner(cardURL)
	if !ok {
		return nil, fmt.Errorf("%w: no realm serves %s", ErrNotFound, cardURL)
	}
	return r.GetRawCard(ctx, cardURL)
}

// Owner returns the realm with the longest URL prefix of cardURL.
func (u Union) Owner(cardURL string) (*Memory, bool) {
	var best *Memory
	for _, r := range u {
		if r.Owns(cardURL) && (best == nil || len(r.URL()) > len(best.URL())) {
			best = r
		}
	}
	return best, best != nil
}

// Realm returns the realm rooted at realmURL.
func (u Union) Realm(realmURL string) (*Memory, bool) {
	for _, r := range u {
		if r.URL() == realmURL {
			return r, true
		}
	}
	return nil, false
}
