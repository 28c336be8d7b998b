package index

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ytchatbot/model"
	"ytchatbot/store"
	"ytchatbot/types"
)

// Provider failures are normalized here so the rest of the service only ever
// sees these kinds, whatever the underlying client raised.
var (
	ErrEmbedding  = errors.New("embedding provider failed")
	ErrIndexWrite = errors.New("vector index write failed")
	ErrIndexRead  = errors.New("vector index read failed")
)

// Adapter is the vector index boundary: it embeds chunk or query text and
// talks to the store, nothing above it touches embeddings directly.
type Adapter struct {
	store    store.VectorStorer
	embedder model.EmbedderInterface
}

func NewAdapter(s store.VectorStorer, e model.EmbedderInterface) *Adapter {
	return &Adapter{
		store:    s,
		embedder: e,
	}
}

// Store embeds every chunk and writes the collection. On a failed write the
// partially created collection is dropped best-effort so a later request for
// the same key sees a clean "does not exist" instead of a half-built index.
func (a *Adapter) Store(ctx context.Context, col types.Collection, chunks []types.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := a.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbedding, len(vectors), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	if err := a.store.CreateCollection(ctx, col); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	if err := a.store.SaveChunks(ctx, col.Name, chunks); err != nil {
		if _, derr := a.store.DeleteCollection(ctx, col.Name); derr != nil {
			log.Printf("[INDEX] failed to clean up partial collection %s: %v", col.Name, derr)
		}
		return fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}

	log.Printf("[INDEX] stored %d chunks in collection %s", len(chunks), col.Name)
	return nil
}

// Retrieve embeds the query and returns up to k chunks ordered by similarity
// descending. A missing collection surfaces as store.ErrCollectionNotFound,
// distinct from a generic read failure.
func (a *Adapter) Retrieve(ctx context.Context, collection, query string, k int) ([]types.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}

	vec, err := a.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	chunks, err := a.store.Search(ctx, collection, vec, k)
	if err != nil {
		if errors.Is(err, store.ErrCollectionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrIndexRead, err)
	}
	return chunks, nil
}

// Drop removes a collection and its chunks. Cleanup only, never required for
// correctness.
func (a *Adapter) Drop(ctx context.Context, collection string) (bool, error) {
	deleted, err := a.store.DeleteCollection(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrIndexWrite, err)
	}
	return deleted, nil
}

// AssembleContext concatenates retrieved chunk texts in ranked order,
// separated by a blank line. An empty result yields "", which the generator
// handles by answering that it does not know.
func AssembleContext(chunks []types.ScoredChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return strings.Join(parts, "\n\n")
}
