package cardmodel

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/cardc/internal/fieldpath"
)

// Setter addresses one location in a model's data bag. Extending a Setter
// returns a new value; the receiver is unchanged.
type Setter struct {
	model *Model
	path  fieldpath.Path
}

// Setters returns the root setter of the model.
func (m *Model) Setters() Setter {
	return Setter{model: m}
}

// Field returns the setter for a named child.
func (s Setter) Field(name string) Setter {
	return Setter{model: s.model, path: s.path.Child(name)}
}

// Index returns the setter for item i of the list at s.
func (s Setter) Index(i int) Setter {
	return Setter{model: s.model, path: s.path.Index(i)}
}

// At returns the setter for a dotted path below s, such as "items[0].name".
func (s Setter) At(path string) (Setter, error) {
	p, err := fieldpath.Parse(path)
	if err != nil {
		return Setter{}, err
	}
	segments := append(slices.Clone(s.path.Segments), p.Segments...)
	return Setter{model: s.model, path: fieldpath.Path{Segments: segments}}, nil
}

// Path returns the dotted path s addresses.
func (s Setter) Path() string {
	return s.path.String()
}

// Set writes value at the setter's path, creating intermediate objects as
// needed. At the root, value must be an object and replaces the whole bag.
func (s Setter) Set(value any) error {
	data, err := s.model.Data()
	if err != nil {
		return err
	}
	if s.path.IsRoot() {
		bag, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("set root: value must be an object, got %T", value)
		}
		s.model.data = bag
		return nil
	}
	if data == nil {
		data = make(map[string]any)
		s.model.data = data
	}

	cur := data
	segments := s.path.Segments
	for i, seg := range segments {
		last := i == len(segments)-1
		if !seg.HasIndex() {
			if last {
				cur[seg.Name] = value
				return nil
			}
			next, err := childObject(cur, seg.Name, s.path)
			if err != nil {
				return err
			}
			cur = next
			continue
		}

		list, err := childList(cur, seg.Name, s.path)
		if err != nil {
			return err
		}
		switch {
		case seg.Index < len(list):
		case seg.Index == len(list):
			list = append(list, nil)
			cur[seg.Name] = list
		default:
			return fmt.Errorf("set %s: index %d is past the end of %d items", s.path, seg.Index, len(list))
		}
		if last {
			list[seg.Index] = value
			return nil
		}
		item, ok := list[seg.Index].(map[string]any)
		if !ok {
			if list[seg.Index] != nil {
				return fmt.Errorf("set %s: %s[%d] is not an object", s.path, seg.Name, seg.Index)
			}
			item = make(map[string]any)
			list[seg.Index] = item
		}
		cur = item
	}
	return nil
}

func childObject(cur map[string]any, name string, path fieldpath.Path) (map[string]any, error) {
	switch v := cur[name].(type) {
	case nil:
		next := make(map[string]any)
		cur[name] = next
		return next, nil
	case map[string]any:
		return v, nil
	default:
		return nil, fmt.Errorf("set %s: %s is a %T, not an object", path, name, v)
	}
}

func childList(cur map[string]any, name string, path fieldpath.Path) ([]any, error) {
	switch v := cur[name].(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("set %s: %s is a %T, not a list", path, name, v)
	}
}
