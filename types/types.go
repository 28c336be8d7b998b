package types

import "time"

// TranscriptSegment is a single caption line as returned by the transcript
// provider. Segments are only ever joined into the full transcript text and
// are not persisted on their own.
type TranscriptSegment struct {
	Text  string
	Start float64 // seconds from video start
	Dur   float64 // seconds
}

// Chunk is an overlapping fixed-size slice of the full transcript text.
// Index is unique and increasing within a session and never changes after
// creation.
type Chunk struct {
	Content   string
	Index     int
	VideoID   string
	SessionID string
	Embedding []float32
}

// ScoredChunk is a retrieved chunk together with its cosine similarity to the
// query embedding.
type ScoredChunk struct {
	Chunk
	Similarity float64
}

// Collection is the persisted knowledge base for one (video, session) pair.
// Once created its chunking parameters are fixed for its lifetime; follow-up
// requests never re-chunk.
type Collection struct {
	Name      string
	VideoID   string
	SessionID string
	CreatedAt time.Time
}
