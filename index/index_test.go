package index

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytchatbot/store"
	"ytchatbot/types"
)

type fakeEmbedder struct {
	docErr   error
	queryErr error
	short    bool
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.docErr != nil {
		return nil, f.docErr
	}
	n := len(texts)
	if f.short {
		n--
	}
	out := make([][]float32, n)
	for i := range out {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return []float32{1, 0}, nil
}

type fakeStore struct {
	created   []types.Collection
	saved     map[string][]types.Chunk
	deleted   []string
	saveErr   error
	createErr error
	searchErr error
	results   []types.ScoredChunk
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string][]types.Chunk)}
}

func (f *fakeStore) CreateCollection(_ context.Context, col types.Collection) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, col)
	return nil
}

func (f *fakeStore) CollectionExists(_ context.Context, name string) (bool, error) {
	for _, c := range f.created {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteCollection(_ context.Context, name string) (bool, error) {
	f.deleted = append(f.deleted, name)
	return true, nil
}

func (f *fakeStore) SaveChunks(_ context.Context, collection string, chunks []types.Chunk) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[collection] = chunks
	return nil
}

func (f *fakeStore) Search(_ context.Context, collection string, _ []float32, limit int) ([]types.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit > len(f.results) {
		limit = len(f.results)
	}
	return f.results[:limit], nil
}

func testCollection() types.Collection {
	return types.Collection{Name: "yt_vid_s1", VideoID: "vid", SessionID: "s1", CreatedAt: time.Now()}
}

func testChunks() []types.Chunk {
	return []types.Chunk{
		{Content: "first chunk", Index: 0, VideoID: "vid", SessionID: "s1"},
		{Content: "second chunk", Index: 1, VideoID: "vid", SessionID: "s1"},
	}
}

func TestStoreEmbedsAndWrites(t *testing.T) {
	st := newFakeStore()
	a := NewAdapter(st, &fakeEmbedder{})

	err := a.Store(context.Background(), testCollection(), testChunks())
	require.NoError(t, err)

	require.Len(t, st.created, 1)
	saved := st.saved["yt_vid_s1"]
	require.Len(t, saved, 2)
	for _, c := range saved {
		assert.NotEmpty(t, c.Embedding)
	}
}

func TestStoreEmbeddingFailure(t *testing.T) {
	st := newFakeStore()
	a := NewAdapter(st, &fakeEmbedder{docErr: errors.New("quota")})

	err := a.Store(context.Background(), testCollection(), testChunks())
	assert.ErrorIs(t, err, ErrEmbedding)
	assert.Empty(t, st.created, "nothing should be written when embedding fails")
}

func TestStoreVectorCountMismatch(t *testing.T) {
	st := newFakeStore()
	a := NewAdapter(st, &fakeEmbedder{short: true})

	err := a.Store(context.Background(), testCollection(), testChunks())
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestStoreWriteFailureDropsPartialCollection(t *testing.T) {
	st := newFakeStore()
	st.saveErr = errors.New("connection reset")
	a := NewAdapter(st, &fakeEmbedder{})

	err := a.Store(context.Background(), testCollection(), testChunks())
	assert.ErrorIs(t, err, ErrIndexWrite)
	assert.Equal(t, []string{"yt_vid_s1"}, st.deleted)
}

func TestRetrieve(t *testing.T) {
	st := newFakeStore()
	st.results = []types.ScoredChunk{
		{Chunk: types.Chunk{Content: "best", Index: 3}, Similarity: 0.9},
		{Chunk: types.Chunk{Content: "next", Index: 1}, Similarity: 0.7},
	}
	a := NewAdapter(st, &fakeEmbedder{})

	got, err := a.Retrieve(context.Background(), "yt_vid_s1", "what happened", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "best", got[0].Content)
}

func TestRetrieveZeroK(t *testing.T) {
	a := NewAdapter(newFakeStore(), &fakeEmbedder{queryErr: errors.New("should not be called")})

	got, err := a.Retrieve(context.Background(), "yt_vid_s1", "q", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRetrieveCollectionNotFoundPassesThrough(t *testing.T) {
	st := newFakeStore()
	st.searchErr = store.ErrCollectionNotFound
	a := NewAdapter(st, &fakeEmbedder{})

	_, err := a.Retrieve(context.Background(), "yt_missing_s1", "q", 5)
	assert.ErrorIs(t, err, store.ErrCollectionNotFound)
	assert.NotErrorIs(t, err, ErrIndexRead)
}

func TestRetrieveGenericReadFailure(t *testing.T) {
	st := newFakeStore()
	st.searchErr = errors.New("timeout")
	a := NewAdapter(st, &fakeEmbedder{})

	_, err := a.Retrieve(context.Background(), "yt_vid_s1", "q", 5)
	assert.ErrorIs(t, err, ErrIndexRead)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	a := NewAdapter(newFakeStore(), &fakeEmbedder{queryErr: errors.New("quota")})

	_, err := a.Retrieve(context.Background(), "yt_vid_s1", "q", 5)
	assert.ErrorIs(t, err, ErrEmbedding)
}

func TestAssembleContext(t *testing.T) {
	chunks := []types.ScoredChunk{
		{Chunk: types.Chunk{Content: "ranked first"}},
		{Chunk: types.Chunk{Content: "ranked second"}},
	}
	assert.Equal(t, "ranked first\n\nranked second", AssembleContext(chunks))
	assert.Equal(t, "", AssembleContext(nil))
}
