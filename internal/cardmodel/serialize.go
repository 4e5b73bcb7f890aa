package cardmodel

import (
	"fmt"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/serializer"
)

type convertFunc func(s serializer.Serializer, v any) (any, error)

func deserializeFields(fields *card.Fields, attrs map[string]any) (map[string]any, error) {
	return convertFields(fields, attrs, false, serializer.Serializer.Deserialize)
}

// serializeFields converts the data bag to wire attributes. Computed fields
// are never sent.
func serializeFields(fields *card.Fields, data map[string]any) (map[string]any, error) {
	return convertFields(fields, data, true, serializer.Serializer.Serialize)
}

// convertFields copies values, running primitive values through their
// card's serializer and recursing into nested cards. Keys that name no field
// are copied as is.
func convertFields(fields *card.Fields, values map[string]any, skipComputed bool, fn convertFunc) (map[string]any, error) {
	out := make(map[string]any, len(values))
	for key, v := range values {
		f, ok := fields.Get(key)
		if !ok {
			out[key] = v
			continue
		}
		if skipComputed && f.Computed {
			continue
		}
		converted, err := convertField(f, v, skipComputed, fn)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", key, err)
		}
		out[key] = converted
	}
	return out, nil
}

func convertField(f *card.Field, v any, skipComputed bool, fn convertFunc) (any, error) {
	if v == nil || f.Kind == card.LinksTo {
		return v, nil
	}
	if f.Kind != card.ContainsMany {
		return convertValue(f.Card, v, skipComputed, fn)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("containsMany value must be a list, got %T", v)
	}
	out := make([]any, len(items))
	for i, item := range items {
		converted, err := convertValue(f.Card, item, skipComputed, fn)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out[i] = converted
	}
	return out, nil
}

func convertValue(c *card.CompiledCard, v any, skipComputed bool, fn convertFunc) (any, error) {
	if c == nil {
		return v, nil
	}
	if c.SerializerKind != "" {
		s, err := serializer.Lookup(c.SerializerKind)
		if err != nil {
			return nil, err
		}
		return fn(s, v)
	}
	if nested, ok := v.(map[string]any); ok && c.Fields.Len() > 0 {
		return convertFields(c.Fields, nested, skipComputed, fn)
	}
	return v, nil
}
