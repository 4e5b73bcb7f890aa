package registry

import (
	"net/url"
	"testing"

	"github.com/spf13/afero"
	"github.com/specialistvlad/cardc/internal/compiler"
	"github.com/specialistvlad/cardc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const personURL = "https://example.com/person"

func TestDefine(t *testing.T) {
	ctx := testutil.Context(t)
	r := New()

	ref, err := r.Define(ctx, personURL, "compiled/isolated.hcl", compiler.TypeComponent, "v1")
	require.NoError(t, err)
	assert.Equal(t, "@compiled/"+url.PathEscape(personURL)+"/compiled/isolated.hcl", ref)

	again, err := r.Define(ctx, personURL, "compiled/isolated.hcl", compiler.TypeComponent, "v2")
	require.NoError(t, err)
	assert.Equal(t, ref, again, "refs are stable")

	m, ok := r.Get(ref)
	require.True(t, ok)
	assert.Equal(t, "v2", m.Source)
	assert.Equal(t, 1, r.Len())

	_, err = r.Define(ctx, personURL, "a.css", "", "body{}")
	assert.ErrorContains(t, err, "content type is required")
}

func TestModulesAreSorted(t *testing.T) {
	ctx := testutil.Context(t)
	r := New()
	for _, p := range []string{"z.css", "a.css", "m.css"} {
		_, err := r.Define(ctx, personURL, p, "text/css", "")
		require.NoError(t, err)
	}

	var paths []string
	for _, m := range r.Modules() {
		paths = append(paths, m.Path)
	}
	assert.Equal(t, []string{"a.css", "m.css", "z.css"}, paths)

	assert.Equal(t, 3, r.Forget(personURL))
	assert.Zero(t, r.Len())
}

func TestValidate(t *testing.T) {
	stringRef := Ref("https://cardstack.com/base/string", "compiled/embedded.hcl")

	testCases := []struct {
		name      string
		component string
		schema    string
		wantErr   string
	}{
		{
			name: "resolved imports",
			component: testutil.Unindent(`
				component "isolated" {
				  imports  = { NameField = "` + stringRef + `" }
				  template = "<NameField />"
				}
			`),
		},
		{
			name:      "no imports",
			component: "component \"isolated\" {\n  imports = {}\n}\n",
		},
		{
			name:      "dangling import",
			component: "component \"isolated\" {\n  imports = { X = \"@compiled/missing/x.hcl\" }\n}\n",
			wantErr:   "references undefined module @compiled/missing/x.hcl",
		},
		{
			name:    "dangling schema parent",
			schema:  "schema \"" + personURL + "\" {\n  parent = \"@compiled/missing/schema.hcl\"\n}\n",
			wantErr: "references undefined module @compiled/missing/schema.hcl",
		},
		{
			name:      "malformed module",
			component: "component {",
			wantErr:   "registry validation failed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			ctx := testutil.Context(t)
			r := New()
			_, err := r.Define(ctx, "https://cardstack.com/base/string", "compiled/embedded.hcl", compiler.TypeComponent,
				"component \"embedded\" {\n  imports = {}\n}\n")
			require.NoError(t, err)
			if tc.component != "" {
				_, err = r.Define(ctx, personURL, "compiled/isolated.hcl", compiler.TypeComponent, tc.component)
				require.NoError(t, err)
			}
			if tc.schema != "" {
				_, err = r.Define(ctx, personURL, "compiled/schema.hcl", compiler.TypeSchema, tc.schema)
				require.NoError(t, err)
			}

			// --- Act ---
			err = r.Validate(ctx)

			// --- Assert ---
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestWriteDir(t *testing.T) {
	ctx := testutil.Context(t)
	r := New()
	_, err := r.Define(ctx, personURL, "compiled/schema.hcl", compiler.TypeSchema, "schema {}")
	require.NoError(t, err)
	_, err = r.Define(ctx, personURL, "logo.svg", "image/svg+xml", "<svg/>")
	require.NoError(t, err)
	fs := afero.NewMemMapFs()

	n, err := r.WriteDir(ctx, fs, "/out")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	content, err := afero.ReadFile(fs, "/out/"+url.PathEscape(personURL)+"/logo.svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(content))
	exists, err := afero.Exists(fs, "/out/"+url.PathEscape(personURL)+"/compiled/schema.hcl")
	require.NoError(t, err)
	assert.True(t, exists)
}
