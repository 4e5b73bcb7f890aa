package cardenv

import (
	"testing"
	"time"

	"github.com/specialistvlad/cardc/internal/builder"
	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/cardmodel"
	"github.com/specialistvlad/cardc/internal/realm"
	"github.com/specialistvlad/cardc/internal/registry"
	"github.com/specialistvlad/cardc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	realmURL  = "https://example.com/"
	personURL = realmURL + "person"
)

func newEnv(t *testing.T) (*Env, *realm.Memory) {
	t.Helper()
	ctx := testutil.Context(t)
	base, err := realm.Base(ctx)
	require.NoError(t, err)
	own := realm.NewMemory(realmURL)
	require.NoError(t, own.Put(&card.RawCard{
		URL:      personURL,
		Schema:   "schema.hcl",
		Embedded: "embedded.hbs",
		Files: card.Files{
			{Path: "schema.hcl", Content: testutil.Unindent(`
				import "string" { from = "https://cardstack.com/base/string" }
				import "date" { from = "https://cardstack.com/base/date" }
				card "Person" {
				  name     = contains(string)
				  birthday = contains(date)

				  method "greeting" {
				    decorators = [contains(string)]
				    params     = []
				    body       = "Hello, ${name}"
				  }
				}
			`)},
			{Path: "embedded.hbs", Content: `<@fields.name /> <@fields.greeting />`},
		},
	}))

	realms := realm.Union{base, own}
	b, err := builder.New(realms, registry.New(), 0)
	require.NoError(t, err)
	env := New(realms, b)
	ids := []string{"ann", "bo", "cy"}
	env.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	return env, own
}

func newPerson(t *testing.T, env *Env) *cardmodel.Model {
	t.Helper()
	compiled, err := env.builder.GetCompiledCard(testutil.Context(t), personURL)
	require.NoError(t, err)
	return cardmodel.New(env, compiled, card.Edit, realmURL, personURL)
}

func TestCreateLoadUpdate(t *testing.T) {
	// --- Arrange ---
	ctx := testutil.Context(t)
	env, own := newEnv(t)
	m := newPerson(t, env)
	require.NoError(t, m.Setters().Field("name").Set("Ann"))
	require.NoError(t, m.Setters().Field("birthday").Set(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)))

	// --- Act: create ---
	require.NoError(t, m.Save(ctx))

	// --- Assert ---
	url, err := m.URL()
	require.NoError(t, err)
	assert.Equal(t, realmURL+"ann", url)
	raw, err := own.GetRawCard(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, personURL, raw.AdoptsFrom)
	assert.Equal(t, map[string]any{"name": "Ann", "birthday": "1990-05-17"}, raw.Data)

	// --- Act: load and edit ---
	loaded, err := env.Load(ctx, url, card.Embedded)
	require.NoError(t, err)
	birthday, err := loaded.Get("birthday")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), birthday)

	edit, err := loaded.Editable(ctx)
	require.NoError(t, err)
	require.NoError(t, edit.Setters().Field("name").Set("Annie"))
	require.NoError(t, edit.Save(ctx))

	// --- Assert ---
	name, err := loaded.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Annie", name)

	reloaded, err := env.Load(ctx, url, card.Isolated)
	require.NoError(t, err)
	name, err = reloaded.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Annie", name)
	assert.Equal(t, map[string]any{"name": "Annie", "birthday": "1990-05-17"}, reloaded.Card().Data)
}

func TestAdoptIntoRealm(t *testing.T) {
	ctx := testutil.Context(t)
	env, _ := newEnv(t)
	m := newPerson(t, env)
	require.NoError(t, m.Setters().Field("name").Set("Ann"))
	require.NoError(t, m.Save(ctx))

	child, err := m.AdoptIntoRealm(realmURL)
	require.NoError(t, err)
	require.NoError(t, child.Save(ctx))

	url, err := child.URL()
	require.NoError(t, err)
	assert.Equal(t, realmURL+"bo", url)
	loaded, err := env.Load(ctx, url, card.Embedded)
	require.NoError(t, err)
	require.NotNil(t, loaded.Card().AdoptsFrom)
	assert.Equal(t, realmURL+"ann", loaded.Card().AdoptsFrom.URL)
}

func TestSend_RejectsCardsThatDoNotCompile(t *testing.T) {
	ctx := testutil.Context(t)
	env, own := newEnv(t)

	m := newPerson(t, env)
	require.NoError(t, m.Setters().Field("nickname").Set("Annie"))
	err := m.Save(ctx)
	assert.ErrorContains(t, err, `data key "nickname" does not name a field`)
	assert.Equal(t, []string{personURL}, own.URLs(), "the failed card is rolled back")

	ok := newPerson(t, env)
	require.NoError(t, ok.Setters().Field("name").Set("Bo"))
	require.NoError(t, ok.Save(ctx))
	url, err := ok.URL()
	require.NoError(t, err)

	_, err = env.Send(ctx, cardmodel.Update{CardURL: url, Payload: cardmodel.Document{Data: cardmodel.Resource{
		Attributes: map[string]any{"nickname": "B"},
	}}})
	require.Error(t, err)
	loaded, err := env.Load(ctx, url, card.Embedded)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Bo"}, loaded.Card().Data, "the update is rolled back")
}

func TestSend_Errors(t *testing.T) {
	ctx := testutil.Context(t)
	env, _ := newEnv(t)

	_, err := env.Send(ctx, cardmodel.Create{Realm: "https://other.test/", ParentCardURL: personURL})
	assert.ErrorIs(t, err, ErrUnknownRealm)

	_, err = env.Send(ctx, cardmodel.Create{Realm: realmURL})
	assert.ErrorContains(t, err, "has no parent")

	_, err = env.Send(ctx, cardmodel.Update{CardURL: realmURL + "missing"})
	assert.ErrorIs(t, err, realm.ErrNotFound)

	_, err = env.Load(ctx, realmURL+"missing", card.Isolated)
	assert.ErrorIs(t, err, realm.ErrNotFound)
}

func TestPrepareComponent(t *testing.T) {
	ctx := testutil.Context(t)
	env, _ := newEnv(t)
	m := newPerson(t, env)
	require.NoError(t, m.Setters().Field("name").Set("Ann"))
	require.NoError(t, m.Save(ctx))
	url, err := m.URL()
	require.NoError(t, err)

	loaded, err := env.Load(ctx, url, card.Embedded)
	require.NoError(t, err)
	c, err := env.PrepareComponent(ctx, loaded, "CardContainer")
	require.NoError(t, err)

	assert.Equal(t, loaded.Card().Embedded.ModuleRef, c.ModuleRef)
	assert.Equal(t, "CardContainer", c.Inner)
	assert.Equal(t, map[string]any{"name": "Ann", "greeting": "Hello, Ann"}, c.Values)
	assert.Nil(t, c.Set)

	edit, err := loaded.Editable(ctx)
	require.NoError(t, err)
	c, err = env.PrepareComponent(ctx, edit, "CardContainer")
	require.NoError(t, err)
	require.NotNil(t, c.Set)
	assert.Equal(t, card.Edit, c.Format)
	assert.Equal(t, loaded.Card().Edit.ModuleRef, c.ModuleRef)
}
