package cardmodel

import (
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/cardc/internal/card"
	"github.com/specialistvlad/cardc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	realmURL  = "https://example.com/"
	personURL = "https://example.com/person"
)

// echoSender records operations and answers with a fixed document.
type echoSender struct {
	ops  []Operation
	resp *Document
	err  error
}

func (s *echoSender) Send(_ context.Context, op Operation) (*Document, error) {
	s.ops = append(s.ops, op)
	return s.resp, s.err
}

func primitive(url, serializerKind string) *card.CompiledCard {
	return &card.CompiledCard{URL: url, Fields: card.NewFields(), SerializerKind: serializerKind}
}

func personCard() *card.CompiledCard {
	str := primitive("https://cardstack.com/base/string", "")
	date := primitive("https://cardstack.com/base/date", "date")
	address := &card.CompiledCard{URL: "https://example.com/address", Fields: card.NewFields()}
	_ = address.Fields.Add(&card.Field{Name: "street", Kind: card.Contains, Card: str})
	_ = address.Fields.Add(&card.Field{Name: "city", Kind: card.Contains, Card: str})

	c := &card.CompiledCard{URL: personURL, Fields: card.NewFields()}
	_ = c.Fields.Add(&card.Field{Name: "name", Kind: card.Contains, Card: str})
	_ = c.Fields.Add(&card.Field{Name: "birthday", Kind: card.Contains, Card: date})
	_ = c.Fields.Add(&card.Field{Name: "address", Kind: card.Contains, Card: address})
	_ = c.Fields.Add(&card.Field{Name: "holidays", Kind: card.ContainsMany, Card: date})
	_ = c.Fields.Add(&card.Field{Name: "friend", Kind: card.LinksTo, Card: c})
	_ = c.Fields.Add(&card.Field{Name: "greeting", Kind: card.Contains, Card: str, Computed: true,
		Expression: `"Hello, ${upper(name)}!"`})
	_ = c.Fields.Add(&card.Field{Name: "loud", Kind: card.Contains, Card: str, Computed: true,
		Expression: `"${greeting}!!"`})
	return c
}

func loaded(t *testing.T, sender Sender, attrs map[string]any) *Model {
	t.Helper()
	m, err := FromDocument(sender, personCard(), card.Isolated, &Document{Data: Resource{
		ID:         realmURL + "ann",
		Type:       ResourceType,
		Attributes: attrs,
	}})
	require.NoError(t, err)
	return m
}

func TestSetter_CreatesIntermediateObjects(t *testing.T) {
	// --- Arrange ---
	m := New(&echoSender{}, personCard(), card.Edit, realmURL, personURL)

	// --- Act ---
	err := m.Setters().Field("address").Field("city").Set("Springfield")

	// --- Assert ---
	require.NoError(t, err)
	city, err := m.Get("address.city")
	require.NoError(t, err)
	assert.Equal(t, "Springfield", city)

	address, err := m.Get("address")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Springfield"}, address)
}

func TestSetter(t *testing.T) {
	testCases := []struct {
		name    string
		path    string
		value   any
		start   map[string]any
		want    map[string]any
		wantErr string
	}{
		{
			name:  "root replaces the bag",
			path:  "",
			value: map[string]any{"name": "Bo"},
			start: map[string]any{"name": "Ann", "address": map[string]any{"city": "X"}},
			want:  map[string]any{"name": "Bo"},
		},
		{
			name:    "root needs an object",
			path:    "",
			value:   "Bo",
			wantErr: "value must be an object",
		},
		{
			name:  "append to a new list",
			path:  "holidays[0]",
			value: "2024-12-25",
			want:  map[string]any{"holidays": []any{"2024-12-25"}},
		},
		{
			name:  "object inside a list",
			path:  "people[1].name",
			value: "Cy",
			start: map[string]any{"people": []any{map[string]any{"name": "Bo"}}},
			want:  map[string]any{"people": []any{map[string]any{"name": "Bo"}, map[string]any{"name": "Cy"}}},
		},
		{
			name:    "index past the end",
			path:    "holidays[3]",
			value:   "x",
			wantErr: "past the end",
		},
		{
			name:    "through a scalar",
			path:    "name.first",
			value:   "x",
			start:   map[string]any{"name": "Ann"},
			wantErr: "not an object",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := New(&echoSender{}, personCard(), card.Edit, realmURL, personURL)
			if tc.start != nil {
				require.NoError(t, m.Setters().Set(tc.start))
			}
			s, err := m.Setters().At(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.path, s.Path())

			err = s.Set(tc.value)

			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			data, err := m.Data()
			require.NoError(t, err)
			assert.Equal(t, tc.want, data)
		})
	}
}

func TestSetter_IsAValue(t *testing.T) {
	m := New(&echoSender{}, personCard(), card.Edit, realmURL, personURL)
	root := m.Setters()
	address := root.Field("address")
	city := address.Field("city")

	assert.Equal(t, "", root.Path())
	assert.Equal(t, "address", address.Path())
	assert.Equal(t, "address.city", city.Path())
	assert.Equal(t, "holidays[2]", root.Field("holidays").Index(2).Path())
}

func TestSave_Create(t *testing.T) {
	// --- Arrange ---
	ctx := testutil.Context(t)
	sender := &echoSender{resp: &Document{Data: Resource{ID: "new-url", Attributes: map[string]any{}}}}
	m := New(sender, personCard(), card.Edit, realmURL, personURL)
	require.NoError(t, m.Setters().Field("name").Set("Ann"))
	require.NoError(t, m.Setters().Field("birthday").Set(time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)))

	_, err := m.URL()
	require.ErrorIs(t, err, ErrNotSaved)

	// --- Act ---
	err = m.Save(ctx)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, Loaded, m.State())
	url, err := m.URL()
	require.NoError(t, err)
	assert.Equal(t, "new-url", url)

	require.Len(t, sender.ops, 1)
	op, ok := sender.ops[0].(Create)
	require.True(t, ok)
	assert.Equal(t, realmURL, op.Realm)
	assert.Equal(t, personURL, op.ParentCardURL)
	assert.Equal(t, personURL, op.Payload.Data.Meta.AdoptsFrom)
	assert.Equal(t, map[string]any{"name": "Ann", "birthday": "1990-05-17"}, op.Payload.Data.Attributes)

	data, err := m.Data()
	require.NoError(t, err)
	assert.Empty(t, data, "data comes from the response after saving")
}

func TestLoaded_DeserializesOnce(t *testing.T) {
	m := loaded(t, &echoSender{}, map[string]any{
		"name":     "Ann",
		"birthday": "1990-05-17",
		"holidays": []any{"2024-12-25"},
		"friend":   map[string]any{"id": realmURL + "bo"},
	})

	birthday, err := m.Get("birthday")
	require.NoError(t, err)
	assert.Equal(t, time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), birthday)

	holiday, err := m.Get("holidays[0]")
	require.NoError(t, err)
	assert.IsType(t, time.Time{}, holiday)

	friend, err := m.Get("friend")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": realmURL + "bo"}, friend, "links are left alone")

	m.raw.Data.Attributes["name"] = "changed"
	name, err := m.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Ann", name)
}

func TestLoaded_InvalidAttributes(t *testing.T) {
	m := loaded(t, &echoSender{}, map[string]any{"birthday": "yesterday"})

	_, err := m.Data()

	assert.ErrorContains(t, err, `field "birthday"`)
}

func TestEditable(t *testing.T) {
	// --- Arrange ---
	ctx := testutil.Context(t)
	sender := &echoSender{resp: &Document{Data: Resource{ID: realmURL + "ann", Attributes: map[string]any{"name": "Annie"}}}}
	m := loaded(t, sender, map[string]any{"name": "Ann"})

	// --- Act ---
	edit, err := m.Editable(ctx)
	require.NoError(t, err)
	require.NoError(t, edit.Setters().Field("name").Set("Annie"))
	require.NoError(t, edit.Save(ctx))

	// --- Assert ---
	assert.Same(t, m, edit.Original())
	assert.Equal(t, card.Edit, edit.Format())
	require.Len(t, sender.ops, 1)
	op, ok := sender.ops[0].(Update)
	require.True(t, ok)
	assert.Equal(t, realmURL+"ann", op.CardURL)
	assert.Equal(t, map[string]any{"name": "Annie"}, op.Payload.Data.Attributes)

	name, err := m.Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Annie", name, "the original sees the saved state")
}

func TestInvalidTransitions(t *testing.T) {
	ctx := testutil.Context(t)
	created := New(&echoSender{}, personCard(), card.Isolated, realmURL, personURL)

	_, err := created.Editable(ctx)
	assert.ErrorIs(t, err, ErrNotSaved)

	_, err = created.AdoptIntoRealm(realmURL)
	assert.ErrorIs(t, err, ErrNotSaved)

	_, err = FromDocument(&echoSender{}, personCard(), card.Isolated, &Document{})
	assert.ErrorIs(t, err, ErrInvalidState)

	noID := New(&echoSender{resp: &Document{}}, personCard(), card.Isolated, realmURL, personURL)
	err = noID.Save(ctx)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, Created, noID.State())
}

func TestAdoptIntoRealm(t *testing.T) {
	m := loaded(t, &echoSender{}, nil)

	child, err := m.AdoptIntoRealm("https://other.test/")

	require.NoError(t, err)
	assert.Equal(t, Created, child.State())
	assert.Equal(t, realmURL+"ann", child.ParentURL())
	assert.Equal(t, "https://other.test/", child.Realm())
}

func TestComputedFields(t *testing.T) {
	ctx := testutil.Context(t)
	sender := &echoSender{resp: &Document{Data: Resource{ID: realmURL + "ann"}}}
	m := loaded(t, sender, map[string]any{"name": "Ann"})

	greeting, err := m.Get("greeting")
	require.NoError(t, err)
	assert.Equal(t, "Hello, ANN!", greeting)

	loud, err := m.Get("loud")
	require.NoError(t, err)
	assert.Equal(t, "Hello, ANN!!!", loud)

	require.NoError(t, m.Setters().Field("greeting").Set("stored"))
	require.NoError(t, m.Save(ctx))
	op := sender.ops[0].(Update)
	assert.NotContains(t, op.Payload.Data.Attributes, "greeting", "computed fields are not sent")
}

func TestComputedFields_Errors(t *testing.T) {
	c := personCard()
	_ = c.Fields.Add(&card.Field{Name: "a", Computed: true, Expression: `b`})
	_ = c.Fields.Add(&card.Field{Name: "b", Computed: true, Expression: `a`})
	_ = c.Fields.Add(&card.Field{Name: "ghost", Computed: true, Expression: `nickname`})
	m, err := FromDocument(&echoSender{}, c, card.Isolated, &Document{Data: Resource{ID: realmURL + "x"}})
	require.NoError(t, err)

	_, err = m.Get("a")
	assert.ErrorContains(t, err, "depends on itself")

	_, err = m.Get("ghost")
	assert.ErrorContains(t, err, `unknown field "nickname"`)
}
