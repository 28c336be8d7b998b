package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"ytchatbot/types"
)

// ErrCollectionNotFound marks a retrieval against a collection that does not
// exist, the expected failure for a follow-up whose session was never built.
var ErrCollectionNotFound = errors.New("collection not found")

type VectorStorer interface {
	CreateCollection(ctx context.Context, col types.Collection) error
	CollectionExists(ctx context.Context, name string) (bool, error)
	DeleteCollection(ctx context.Context, name string) (bool, error)
	SaveChunks(ctx context.Context, collection string, chunks []types.Chunk) error
	Search(ctx context.Context, collection string, queryVec []float32, limit int) ([]types.ScoredChunk, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) CreateCollection(ctx context.Context, col types.Collection) error {
	query := `INSERT INTO collections (name, video_id, session_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
		`
	_, err := p.pool.Exec(ctx, query, col.Name, col.VideoID, col.SessionID, col.CreatedAt)
	return err
}

func (p *PostgresStore) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)", name).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (p *PostgresStore) DeleteCollection(ctx context.Context, name string) (bool, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM collections WHERE name = $1", name)
	if err != nil {
		return false, err
	}
	// chunk rows go with the collection via ON DELETE CASCADE
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStore) SaveChunks(ctx context.Context, collection string, chunks []types.Chunk) error {
	query := `
    INSERT INTO chunks (id, collection_name, position, video_id, session_id, content, embedding)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	for _, c := range chunks {
		_, err := p.pool.Exec(ctx, query,
			uuid.New(), collection, c.Index, c.VideoID, c.SessionID, c.Content, pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return fmt.Errorf("error saving chunk %d: %w", c.Index, err)
		}
	}
	return nil
}

func (p *PostgresStore) Search(ctx context.Context, collection string, queryVec []float32, limit int) ([]types.ScoredChunk, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	exists, err := p.CollectionExists(ctx, collection)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	query := `
		SELECT c.position, c.video_id, c.session_id, c.content,
		       1-(c.embedding <=> $1) as similarity
		FROM chunks c
		WHERE c.collection_name = $2 AND c.embedding IS NOT NULL
		ORDER BY c.embedding <=> $1
		LIMIT $3
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(queryVec), collection, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.ScoredChunk
	for rows.Next() {
		var chunk types.ScoredChunk
		err := rows.Scan(
			&chunk.Index,
			&chunk.VideoID,
			&chunk.SessionID,
			&chunk.Content,
			&chunk.Similarity)
		if err != nil {
			return nil, err
		}

		log.Printf("[SEARCH] found chunk position=%d similarity=%.4f in %s", chunk.Index, chunk.Similarity, collection)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) createCollectionTables(ctx context.Context) error {

	query := `
    CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		video_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE
	);

    CREATE TABLE IF NOT EXISTS chunks (
        id UUID PRIMARY KEY,
        collection_name TEXT NOT NULL REFERENCES collections(name) ON DELETE CASCADE,
        position INT NOT NULL,
        video_id TEXT,
        session_id TEXT,
        content TEXT NOT NULL,
        embedding vector(768) -- text-embedding-004
    );

	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);

	CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection_name);
    `
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createCollectionTables(ctx)
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
