package templates

import "strconv"

// Imports allocates local component names. Asking for the same name and
// module twice returns the same name; a name taken by another module gets a
// numeric suffix. One module may be imported under several names.
type Imports struct {
	byName map[string]string
}

// NewImports returns an empty name allocator.
func NewImports() *Imports {
	return &Imports{byName: make(map[string]string)}
}

// Add registers moduleRef under desired, or under the first suffixed form of
// desired that is free or already bound to moduleRef, and returns that name.
func (im *Imports) Add(desired, moduleRef string) string {
	name := desired
	for i := 2; ; i++ {
		ref, taken := im.byName[name]
		if !taken {
			break
		}
		if ref == moduleRef {
			return name
		}
		name = desired + strconv.Itoa(i)
	}
	im.byName[name] = moduleRef
	return name
}
