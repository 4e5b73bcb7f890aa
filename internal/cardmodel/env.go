package cardmodel

import "context"

// Document is the JSON document exchanged with a CardEnv.
type Document struct {
	Data Resource `json:"data"`
}

// Resource is the card instance inside a Document.
type Resource struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type,omitempty"`
	Attributes map[string]any `json:"attributes"`
	Meta       *Meta          `json:"meta,omitempty"`
}

// Meta carries the card's parent.
type Meta struct {
	AdoptsFrom string `json:"adoptsFrom,omitempty"`
}

// ResourceType is the type of every card resource.
const ResourceType = "card"

// Operation is a request a Model sends on Save: Create or Update.
type Operation interface {
	operation()
}

// Create persists a new card adopting from ParentCardURL inside Realm.
type Create struct {
	Realm         string
	ParentCardURL string
	Payload       Document
}

// Update replaces the attributes of an existing card.
type Update struct {
	CardURL string
	Payload Document
}

func (Create) operation() {}
func (Update) operation() {}

// Sender performs operations against whatever stores cards.
type Sender interface {
	Send(ctx context.Context, op Operation) (*Document, error)
}
