// internal/fieldpath/path_test.go
package fieldpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expectErr bool
		expected  Path
	}{
		{
			name:     "root",
			raw:      "",
			expected: Path{},
		},
		{
			name:     "simple path",
			raw:      "address.city",
			expected: Path{Segments: []Segment{NewSegment("address"), NewSegment("city")}},
		},
		{
			name:     "path with index",
			raw:      "items[0].title",
			expected: Path{Segments: []Segment{NewSegmentWithIndex("items", 0), NewSegment("title")}},
		},
		{
			name:      "error - empty segment",
			raw:       "a..b",
			expectErr: true,
		},
		{
			name:      "error - non numeric index",
			raw:       "items[x]",
			expectErr: true,
		},
		{
			name:      "error - leading digit",
			raw:       "1st",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.raw)
			if tc.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(p), "got %q", p.String())
		})
	}
}

func TestPath_RoundTrip(t *testing.T) {
	for _, raw := range []string{"a.b.c", "items[3].tags[0]", "first_name"} {
		t.Run(raw, func(t *testing.T) {
			p, err := Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, p.String())
		})
	}
}

func TestPath_BuildersDoNotAlias(t *testing.T) {
	base := MustParse("address")
	city := base.Child("city")
	street := base.Child("street")

	assert.Equal(t, "address.city", city.String())
	assert.Equal(t, "address.street", street.String())
	assert.Equal(t, "address", base.String())
	assert.Equal(t, "items[2]", MustParse("items").Index(2).String())
	assert.True(t, Path{}.Index(1).IsRoot())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "author.name", Join("author", "name"))
	assert.Equal(t, "name", Join("", "name"))
	assert.Equal(t, "author", Join("author", ""))
}
