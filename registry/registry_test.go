package registry

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch query param", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch with extra params", "https://www.youtube.com/watch?t=42&v=dQw4w9WgXcQ&list=PL1", "dQw4w9WgXcQ"},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short link with si", "https://youtu.be/rWKwQ1I4xzc?si=rtEdEbwiEPxOBFm4", "rWKwQ1I4xzc"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ?start=10", "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractVideoID(tt.url))
		})
	}
}

func TestExtractVideoIDFallbackHash(t *testing.T) {
	id := ExtractVideoID("not a url at all")
	assert.True(t, strings.HasPrefix(id, "url_"))
	assert.NotEmpty(t, id)

	// stable across calls
	assert.Equal(t, id, ExtractVideoID("not a url at all"))

	// a different string gets a different pseudo-id
	assert.NotEqual(t, id, ExtractVideoID("another string"))
}

func TestResolveMintsSession(t *testing.T) {
	r := New(nil)

	key, err := r.Resolve("https://youtu.be/abc123", "")
	require.NoError(t, err)
	assert.True(t, key.NewSession)
	assert.Equal(t, "abc123", key.VideoID)

	_, err = uuid.Parse(key.SessionID)
	assert.NoError(t, err, "minted session id should be a uuid")

	// two mints are distinct sessions and therefore distinct keys
	other, err := r.Resolve("https://youtu.be/abc123", "")
	require.NoError(t, err)
	assert.NotEqual(t, key.CollectionName(), other.CollectionName())
}

func TestResolveDeterministic(t *testing.T) {
	r := New(nil)

	a, err := r.Resolve("https://www.youtube.com/watch?v=abc123", "sess-1")
	require.NoError(t, err)
	b, err := r.Resolve("https://www.youtube.com/watch?v=abc123", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "yt_abc123_sess-1", a.CollectionName())
	assert.False(t, a.NewSession)

	c, err := r.Resolve("https://www.youtube.com/watch?v=abc123", "sess-2")
	require.NoError(t, err)
	assert.NotEqual(t, a.CollectionName(), c.CollectionName())
}

func TestResolveRejectsMalformedSessionID(t *testing.T) {
	r := New(nil)

	for _, bad := range []string{"has space", "semi;colon", "quote'", "dot.dot", "slash/"} {
		_, err := r.Resolve("https://youtu.be/abc123", bad)
		assert.ErrorIs(t, err, ErrInvalidSessionID, bad)
	}

	_, err := r.Resolve("https://youtu.be/abc123", "Ok_Session-123")
	assert.NoError(t, err)
}

func TestCollectionNameSanitizesVideoID(t *testing.T) {
	key := Key{VideoID: "url_deadbeef", SessionID: "s1"}
	assert.Equal(t, "yt_url_deadbeef_s1", key.CollectionName())

	weird := Key{VideoID: "a?b/c", SessionID: "s1"}
	assert.Equal(t, "yt_a_b_c_s1", weird.CollectionName())
}

type fakeLister struct {
	existing map[string]bool
	calls    int
}

func (f *fakeLister) CollectionExists(_ context.Context, name string) (bool, error) {
	f.calls++
	return f.existing[name], nil
}

func TestExistsDelegatesToIndex(t *testing.T) {
	lister := &fakeLister{existing: map[string]bool{"yt_abc123_s1": true}}
	r := New(lister)

	key, err := r.Resolve("https://youtu.be/abc123", "s1")
	require.NoError(t, err)

	ok, err := r.Exists(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, ok)

	// checked against the index every time, never cached
	_, _ = r.Exists(context.Background(), key)
	assert.Equal(t, 2, lister.calls)
}
