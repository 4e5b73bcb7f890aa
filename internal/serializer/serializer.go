// Package serializer converts primitive card values between their wire form
// and the Go values the card model hands out.
package serializer

import (
	"fmt"
	"sort"
	"time"
)

// Serializer converts one kind of primitive value.
type Serializer interface {
	// Serialize turns a runtime value into its wire representation.
	Serialize(v any) (any, error)
	// Deserialize turns a wire value into its runtime representation.
	Deserialize(v any) (any, error)
}

type timeSerializer struct {
	layout string
}

var kinds = map[string]Serializer{
	"date":     timeSerializer{layout: time.DateOnly},
	"datetime": timeSerializer{layout: time.RFC3339},
}

// Known reports whether kind names a registered serializer.
func Known(kind string) bool {
	_, ok := kinds[kind]
	return ok
}

// Kinds returns the registered serializer names in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(kinds))
	for k := range kinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the serializer registered for kind.
func Lookup(kind string) (Serializer, error) {
	s, ok := kinds[kind]
	if !ok {
		return nil, fmt.Errorf("unknown serializer %q", kind)
	}
	return s, nil
}

func (s timeSerializer) Serialize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t.Format(s.layout), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.Format(s.layout), nil
	case string:
		// Already in wire form; make sure it parses.
		if _, err := time.Parse(s.layout, t); err != nil {
			return nil, fmt.Errorf("serialize %q: %w", t, err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("cannot serialize %T as a time value", v)
	}
}

func (s timeSerializer) Deserialize(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(s.layout, t)
		if err != nil {
			return nil, fmt.Errorf("deserialize %q: %w", t, err)
		}
		return parsed, nil
	default:
		return nil, fmt.Errorf("cannot deserialize %T as a time value", v)
	}
}
