package cardenv

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/specialistvlad/cardc/internal/builder"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/cardmodel"
	"github.com/specialistvlad/cardc/internal/ctxlog"
	"github.com/specialistvlad/cardc/internal/realm"
)

// ErrUnknownRealm is returned when a Create targets a realm the Env does not
// hold.
var ErrUnknownRealm = errors.New("unknown realm")

// Env serves card models from in-memory realms.
type Env struct {
	realms  realm.Union
	builder *builder.Builder
	newID   func() string

	// mu serializes writes so a rollback never clobbers a later write.
	mu sync.Mutex
}

var _ cardmodel.Sender = (*Env)(nil)

// New creates an Env over realms whose cards are compiled by b. b should
// read its raw cards from the same realms.
func New(realms realm.Union, b *builder.Builder) *Env {
	return &Env{realms: realms, builder: b, newID: uuid.NewString}
}

// Load compiles the card at url and wraps it in a Loaded model for format.
func (e *Env) Load(ctx context.Context, url string, format card.Format) (*cardmodel.Model, error) {
	compiled, err := e.builder.GetCompiledCard(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	raw, err := e.builder.GetRawCard(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	ctxlog.FromContext(ctx).Debug("Loaded card.", "card", url, "format", format)
	return cardmodel.FromDocument(e, compiled, format, document(raw))
}

// Send performs a Create or Update and answers with the stored card.
func (e *Env) Send(ctx context.Context, op cardmodel.Operation) (*cardmodel.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch op := op.(type) {
	case cardmodel.Create:
		return e.create(ctx, op)
	case cardmodel.Update:
		return e.update(ctx, op)
	default:
		return nil, fmt.Errorf("unsupported operation %T", op)
	}
}

func (e *Env) create(ctx context.Context, op cardmodel.Create) (*cardmodel.Document, error) {
	target := op.Realm
	if !strings.HasSuffix(target, "/") {
		target += "/"
	}
	r, ok := e.realms.Realm(target)
	if !ok {
		return nil, fmt.Errorf("create: %w: %s", ErrUnknownRealm, op.Realm)
	}
	if op.ParentCardURL == "" {
		return nil, errors.New("create: card has no parent")
	}

	raw := &card.RawCard{
		URL:        r.URL() + e.newID(),
		AdoptsFrom: op.ParentCardURL,
		Data:       maps.Clone(op.Payload.Data.Attributes),
	}
	if err := r.Put(raw); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}
	if _, err := e.builder.GetCompiledCard(ctx, raw.URL); err != nil {
		r.Delete(raw.URL)
		e.builder.Invalidate(ctx, raw.URL)
		return nil, fmt.Errorf("create: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Created card.", "card", raw.URL, "parent", raw.AdoptsFrom)
	return document(raw), nil
}

func (e *Env) update(ctx context.Context, op cardmodel.Update) (*cardmodel.Document, error) {
	prev, err := e.builder.GetRawCard(ctx, op.CardURL)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	r, ok := e.realms.Owner(op.CardURL)
	if !ok {
		return nil, fmt.Errorf("update: %w: no realm serves %s", ErrUnknownRealm, op.CardURL)
	}

	next := *prev
	next.Data = maps.Clone(prev.Data)
	if next.Data == nil {
		next.Data = make(map[string]any)
	}
	maps.Copy(next.Data, op.Payload.Data.Attributes)
	if err := r.Put(&next); err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	evicted := e.builder.Invalidate(ctx, op.CardURL)
	if _, err := e.builder.GetCompiledCard(ctx, op.CardURL); err != nil {
		if rerr := r.Put(prev); rerr != nil {
			return nil, errors.Join(fmt.Errorf("update: %w", err), fmt.Errorf("roll back: %w", rerr))
		}
		e.builder.Invalidate(ctx, op.CardURL)
		return nil, fmt.Errorf("update: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Updated card.", "card", op.CardURL, "evicted", len(evicted))
	return document(&next), nil
}

func document(raw *card.RawCard) *cardmodel.Document {
	doc := &cardmodel.Document{Data: cardmodel.Resource{
		ID:         raw.URL,
		Type:       cardmodel.ResourceType,
		Attributes: maps.Clone(raw.Data),
	}}
	if doc.Data.Attributes == nil {
		doc.Data.Attributes = make(map[string]any)
	}
	if raw.AdoptsFrom != "" {
		doc.Data.Meta = &cardmodel.Meta{AdoptsFrom: raw.AdoptsFrom}
	}
	return doc
}
