package serializer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKnown(t *testing.T) {
	assert.True(t, Known("date"))
	assert.True(t, Known("datetime"))
	assert.False(t, Known("money"))
	assert.Equal(t, []string{"date", "datetime"}, Kinds())

	_, err := Lookup("money")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown serializer "money"`)
}

func TestDate(t *testing.T) {
	s, err := Lookup("date")
	require.NoError(t, err)

	v, err := s.Deserialize("2024-03-09")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), v)

	out, err := s.Serialize(v)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09", out)

	_, err = s.Deserialize("09/03/2024")
	require.Error(t, err)

	_, err = s.Serialize(42)
	require.Error(t, err)

	out, err = s.Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDatetime(t *testing.T) {
	s, err := Lookup("datetime")
	require.NoError(t, err)

	v, err := s.Deserialize("2024-03-09T10:11:12Z")
	require.NoError(t, err)
	ts, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 10, ts.Hour())

	out, err := s.Serialize(ts)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09T10:11:12Z", out)

	out, err = s.Serialize("2024-03-09T10:11:12Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-09T10:11:12Z", out)
}
