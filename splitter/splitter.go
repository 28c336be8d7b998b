package splitter

import (
	"errors"
	"fmt"
	"strings"

	"ytchatbot/types"
)

var ErrEmptyText = errors.New("transcript text is empty")

// Splitter cuts transcript text into fixed-size character windows with a
// fixed overlap between consecutive chunks. Splitting is deterministic: the
// same text and the same (size, overlap) always produce identical chunks,
// which is what lets a collection skip re-chunking for its whole lifetime.
type Splitter struct {
	size    int
	overlap int
}

func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must satisfy 0 <= overlap < size, got size=%d overlap=%d", size, overlap)
	}
	return &Splitter{
		size:    size,
		overlap: overlap,
	}, nil
}

// Split windows over the text in rune units. Chunk i starts at i*(size-overlap),
// so consecutive chunks share exactly `overlap` characters and concatenating
// the non-overlapping spans reconstructs the input.
func (s *Splitter) Split(text, videoID, sessionID string) ([]types.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	runes := []rune(text)
	stride := s.size - s.overlap

	var chunks []types.Chunk
	for start, i := 0, 0; start < len(runes); start, i = start+stride, i+1 {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, types.Chunk{
			Content:   string(runes[start:end]),
			Index:     i,
			VideoID:   videoID,
			SessionID: sessionID,
		})
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

func (s *Splitter) Size() int    { return s.size }
func (s *Splitter) Overlap() int { return s.overlap }
