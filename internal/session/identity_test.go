package session

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAdoptsTokenFromAddress(t *testing.T) {
	t.Parallel()

	s := Resolve("http://localhost:8000/?session_id=abc123")
	require.Equal(t, "abc123", s.ID)
	assert.True(t, s.Resumed)
	assert.Equal(t, "http://localhost:8000/?session_id=abc123", s.Address)
}

func TestResolveGeneratesTokenAndRewritesAddress(t *testing.T) {
	t.Parallel()

	s := Resolve("http://localhost:8000/?voice=en-US-natalie")
	require.False(t, s.Resumed)
	_, err := uuid.Parse(s.ID)
	require.NoError(t, err)

	parsed, err := url.Parse(s.Address)
	require.NoError(t, err)
	assert.Equal(t, s.ID, parsed.Query().Get(QueryParam))
	assert.Equal(t, "en-US-natalie", parsed.Query().Get("voice"))

	// Reloading with the rewritten address resumes the same session.
	again := Resolve(s.Address)
	assert.Equal(t, s.ID, again.ID)
	assert.True(t, again.Resumed)
}

func TestResolveEmptySessionParamGeneratesToken(t *testing.T) {
	t.Parallel()

	s := Resolve("http://localhost:8000/?session_id=")
	assert.NotEmpty(t, s.ID)
	assert.False(t, s.Resumed)
}

func TestResolveTokensDiffer(t *testing.T) {
	t.Parallel()

	a := Resolve("")
	b := Resolve("")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "?session_id="+a.ID, a.Address)
}

func TestResolveFallsBackWhenRandomSourceFails(t *testing.T) {
	t.Parallel()

	s := Resolver{Random: failingReader{}}.Resolve("http://localhost:8000/")
	require.Len(t, s.ID, 36)
	_, err := uuid.Parse(s.ID)
	assert.NoError(t, err)
}

func TestResolveUnparseableAddress(t *testing.T) {
	t.Parallel()

	s := Resolve("http://[::1")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "?session_id="+s.ID, s.Address)
}

func TestShareLink(t *testing.T) {
	t.Parallel()

	link := ShareLink("http://localhost:8000/?session_id=old&x=1", "new")
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "new", parsed.Query().Get(QueryParam))
	assert.Equal(t, "1", parsed.Query().Get("x"))
}

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) { return 0, errors.New("no entropy") }
