// internal/fieldpath/path.go
package fieldpath

import (
	"fmt"
	"reflect"
	"strings"
)

// String serializes the path into its canonical dotted form.
func (p Path) String() string {
	var sb strings.Builder
	for i, segment := range p.Segments {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(segment.Name)
		if segment.HasIndex() {
			sb.WriteString(fmt.Sprintf("[%d]", segment.Index))
		}
	}
	return sb.String()
}

// IsRoot reports whether p has no segments.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// Equal checks for deep equality between two paths.
func (p Path) Equal(other Path) bool {
	if p.IsRoot() || other.IsRoot() {
		return p.IsRoot() == other.IsRoot()
	}
	return reflect.DeepEqual(p.Segments, other.Segments)
}

// Child returns a new path extended by one named segment.
func (p Path) Child(name string) Path {
	return p.append(NewSegment(name))
}

// Index returns a new path whose last segment carries index i.
// Indexing the root path is not meaningful and returns p unchanged.
func (p Path) Index(i int) Path {
	if p.IsRoot() {
		return p
	}
	out := p.append()
	out.Segments[len(out.Segments)-1].Index = i
	return out
}

// Names returns the segment names without indices.
func (p Path) Names() []string {
	out := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		out[i] = s.Name
	}
	return out
}

func (p Path) append(segments ...Segment) Path {
	out := make([]Segment, 0, len(p.Segments)+len(segments))
	out = append(out, p.Segments...)
	out = append(out, segments...)
	return Path{Segments: out}
}

// Join prefixes a dotted path with another one. Either side may be empty.
func Join(prefix, path string) string {
	switch {
	case prefix == "":
		return path
	case path == "":
		return prefix
	}
	return prefix + "." + path
}
