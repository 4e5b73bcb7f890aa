package compiler

import (
	"fmt"

	"github.com/specialistvlad/cardc/internal/card"
)

// validateData checks that every key of data names a field, recursing into
// contains and containsMany values whose card declares fields. Leaf cards
// take any value.
func validateData(data map[string]any, fields *card.Fields, prefix string) error {
	for key, value := range data {
		f, ok := fields.Get(key)
		if !ok {
			return fmt.Errorf("data key %q does not name a field", prefix+key)
		}
		if f.Kind == card.LinksTo || f.Card == nil || f.Card.Fields.Len() == 0 || value == nil {
			continue
		}
		path := prefix + key
		switch f.Kind {
		case card.Contains:
			nested, ok := value.(map[string]any)
			if !ok {
				return fmt.Errorf("data for %q must be an object, got %T", path, value)
			}
			if err := validateData(nested, f.Card.Fields, path+"."); err != nil {
				return err
			}
		case card.ContainsMany:
			items, ok := value.([]any)
			if !ok {
				return fmt.Errorf("data for %q must be a list, got %T", path, value)
			}
			for i, item := range items {
				nested, ok := item.(map[string]any)
				if !ok {
					return fmt.Errorf("data for %s[%d] must be an object, got %T", path, i, item)
				}
				if err := validateData(nested, f.Card.Fields, fmt.Sprintf("%s[%d].", path, i)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
