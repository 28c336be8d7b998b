package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"

	"ytchatbot/index"
	"ytchatbot/registry"
	"ytchatbot/splitter"
	"ytchatbot/store"
	"ytchatbot/transcript"
	"ytchatbot/types"
)

// Indexer is the slice of the vector index adapter the handler drives.
type Indexer interface {
	Store(ctx context.Context, col types.Collection, chunks []types.Chunk) error
	Retrieve(ctx context.Context, collection, query string, k int) ([]types.ScoredChunk, error)
	Drop(ctx context.Context, collection string) (bool, error)
}

type AnswerGenerator interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}

// ChatHandler sequences the pipeline per request: resolve the collection key,
// build the collection for a new session or reuse it for a follow-up, then
// retrieve, assemble and answer.
type ChatHandler struct {
	registry  *registry.Registry
	fetcher   transcript.Fetcher
	splitter  *splitter.Splitter
	index     Indexer
	generator AnswerGenerator
	topK      int

	// collapses concurrent first-requests for one key into a single build
	building singleflight.Group
}

func NewChatHandler(reg *registry.Registry, fetcher transcript.Fetcher, split *splitter.Splitter, idx Indexer, gen AnswerGenerator, topK int) *ChatHandler {
	return &ChatHandler{
		registry:  reg,
		fetcher:   fetcher,
		splitter:  split,
		index:     idx,
		generator: gen,
		topK:      topK,
	}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	key, err := h.registry.Resolve(params.VideoURL, params.SessionID)
	if err != nil {
		return err
	}
	name := key.CollectionName()
	log.Printf("[CHAT] video=%s collection=%s followUp=%v", params.VideoURL, name, !key.NewSession)

	ctx := context.Background()

	exists, err := h.registry.Exists(ctx, key)
	if err != nil {
		return err
	}

	if !exists {
		if !key.NewSession {
			// the caller references a session that was never built; tell them
			// to start over instead of silently rebuilding under their id
			return fmt.Errorf("%w: session %s", store.ErrCollectionNotFound, key.SessionID)
		}
		if err := h.buildCollection(ctx, key, name); err != nil {
			return err
		}
	}

	results, err := h.index.Retrieve(ctx, name, params.Question, h.topK)
	if err != nil {
		return err
	}

	contextText := index.AssembleContext(results)
	answer, err := h.generator.Answer(ctx, params.Question, contextText)
	if err != nil {
		return err
	}

	return c.JSON(types.ChatResponse{
		Answer:       answer,
		SessionID:    key.SessionID,
		IsNewSession: key.NewSession,
	})
}

func (h *ChatHandler) buildCollection(ctx context.Context, key registry.Key, name string) error {
	_, err, _ := h.building.Do(name, func() (any, error) {
		segments, err := h.fetcher.Fetch(ctx, key.VideoID)
		if err != nil {
			return nil, err
		}

		fullText := transcript.JoinSegments(segments)
		chunks, err := h.splitter.Split(fullText, key.VideoID, key.SessionID)
		if err != nil {
			return nil, err
		}
		log.Printf("[CHAT] created %d transcript chunks for %s", len(chunks), key.VideoID)

		col := types.Collection{
			Name:      name,
			VideoID:   key.VideoID,
			SessionID: key.SessionID,
			CreatedAt: time.Now(),
		}
		return nil, h.index.Store(ctx, col, chunks)
	})
	return err
}

// HandleDeleteSession drops a session's collection. Optional cleanup; a stale
// collection is never reused because new sessions always get fresh names.
func (h *ChatHandler) HandleDeleteSession(c *fiber.Ctx) error {
	var params types.SessionParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	key, err := h.registry.Resolve(params.VideoURL, params.SessionID)
	if err != nil {
		return err
	}

	deleted, err := h.index.Drop(context.Background(), key.CollectionName())
	if err != nil {
		return err
	}

	log.Printf("[CHAT] delete collection=%s deleted=%v", key.CollectionName(), deleted)
	return c.JSON(fiber.Map{"deleted": deleted})
}
