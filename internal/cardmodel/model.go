package cardmodel

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/ctxlog"
)

var (
	// ErrNotSaved is returned when an operation needs a persisted card.
	ErrNotSaved = errors.New("card has not been saved")
	// ErrInvalidState is returned when an operation is not valid in the
	// model's current state.
	ErrInvalidState = errors.New("invalid card model state")
)

// State is the lifecycle state of a Model.
type State int

const (
	// Created models are not persisted yet.
	Created State = iota
	// Loaded models mirror a persisted card.
	Loaded
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Loaded:
		return "loaded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Model is a card instance bound to its compiled card.
type Model struct {
	sender Sender
	card   *card.CompiledCard
	format card.Format
	state  State

	// Created
	realm     string
	parentURL string

	// Loaded
	url          string
	raw          *Document
	deserialized bool
	original     *Model

	data        map[string]any
	expressions map[string]hcl.Expression
}

// New returns a Created model for a new card in realm adopting from
// parentURL, whose compiled card is compiled.
func New(sender Sender, compiled *card.CompiledCard, format card.Format, realm, parentURL string) *Model {
	return &Model{
		sender:    sender,
		card:      compiled,
		format:    format,
		state:     Created,
		realm:     realm,
		parentURL: parentURL,
		data:      make(map[string]any),
	}
}

// FromDocument returns a Loaded model for a persisted card.
func FromDocument(sender Sender, compiled *card.CompiledCard, format card.Format, doc *Document) (*Model, error) {
	if doc == nil || doc.Data.ID == "" {
		return nil, fmt.Errorf("%w: document has no card id", ErrInvalidState)
	}
	return &Model{
		sender: sender,
		card:   compiled,
		format: format,
		state:  Loaded,
		url:    doc.Data.ID,
		raw:    doc,
	}, nil
}

// State returns the lifecycle state.
func (m *Model) State() State { return m.state }

// Card returns the compiled card the model is bound to.
func (m *Model) Card() *card.CompiledCard { return m.card }

// Format returns the display format the model was loaded for.
func (m *Model) Format() card.Format { return m.format }

// Original returns the model an editable model was derived from.
func (m *Model) Original() *Model { return m.original }

// Realm returns the realm a Created model will be saved into.
func (m *Model) Realm() string { return m.realm }

// ParentURL returns the card a Created model adopts from.
func (m *Model) ParentURL() string { return m.parentURL }

// URL returns the URL of a saved card.
func (m *Model) URL() (string, error) {
	if m.state != Loaded {
		return "", ErrNotSaved
	}
	return m.url, nil
}

// Data returns the data bag, deserializing the loaded attributes on first
// use.
func (m *Model) Data() (map[string]any, error) {
	if m.state == Loaded && !m.deserialized {
		var attrs map[string]any
		if m.raw != nil {
			attrs = m.raw.Data.Attributes
		}
		data, err := deserializeFields(m.card.Fields, attrs)
		if err != nil {
			return nil, fmt.Errorf("deserialize %s: %w", m.url, err)
		}
		m.data = data
		m.deserialized = true
	}
	return m.data, nil
}

// Editable returns a fresh Loaded model of the same card that saves back
// over this one.
func (m *Model) Editable(ctx context.Context) (*Model, error) {
	if m.state != Loaded {
		return nil, fmt.Errorf("editable: %w", ErrNotSaved)
	}
	ctxlog.FromContext(ctx).Debug("Deriving editable card model.", "card", m.url)
	return &Model{
		sender:   m.sender,
		card:     m.card,
		format:   card.Edit,
		state:    Loaded,
		url:      m.url,
		raw:      m.raw,
		original: m,
	}, nil
}

// AdoptIntoRealm returns a Created model for a new card in realm that adopts
// from this card.
func (m *Model) AdoptIntoRealm(realm string) (*Model, error) {
	if m.state != Loaded {
		return nil, fmt.Errorf("adopt into realm: %w", ErrNotSaved)
	}
	return New(m.sender, m.card, m.format, realm, m.url), nil
}

// Save persists the model: Created models are created, Loaded ones updated.
// Afterwards the model mirrors the response and deserializes it again on
// the next read.
func (m *Model) Save(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	data, err := m.Data()
	if err != nil {
		return err
	}
	attrs, err := serializeFields(m.card.Fields, data)
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}

	var op Operation
	switch m.state {
	case Created:
		op = Create{
			Realm:         m.realm,
			ParentCardURL: m.parentURL,
			Payload: Document{Data: Resource{
				Type:       ResourceType,
				Attributes: attrs,
				Meta:       &Meta{AdoptsFrom: m.parentURL},
			}},
		}
		logger.Debug("Creating card.", "realm", m.realm, "parent", m.parentURL)
	case Loaded:
		op = Update{
			CardURL: m.url,
			Payload: Document{Data: Resource{ID: m.url, Type: ResourceType, Attributes: attrs}},
		}
		logger.Debug("Updating card.", "card", m.url)
	default:
		return fmt.Errorf("save: %w: %s", ErrInvalidState, m.state)
	}

	resp, err := m.sender.Send(ctx, op)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if resp == nil || resp.Data.ID == "" {
		return fmt.Errorf("save: %w: response has no card id", ErrInvalidState)
	}

	m.state = Loaded
	m.url = resp.Data.ID
	m.raw = resp
	m.deserialized = false
	m.data = nil
	m.realm, m.parentURL = "", ""
	if m.original != nil && m.original.url == m.url {
		m.original.raw = resp
		m.original.deserialized = false
		m.original.data = nil
	}
	logger.Debug("Saved card.", "card", m.url)
	return nil
}
