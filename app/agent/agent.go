package agent

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"ytchatbot/model"
)

var ErrGeneration = errors.New("answer generation failed")

// systemPrompt pins the model to the retrieved transcript context. An empty
// context must produce an "I don't know" answer, not a failure.
const systemPrompt = `You are a helpful assistant answering questions about a YouTube video.
Answer ONLY from the provided transcript context.
If the context is empty or insufficient to answer, just say you don't know.
Don't add introductions like 'Of course!' or 'Here's the answer:'.`

const defaultTemperature = 0.3

// Generator composes the grounding prompt and invokes the chat model once per
// request. No retries; a provider failure is terminal.
type Generator struct {
	llm         model.ChatModel
	temperature float64
}

func New(llm model.ChatModel) *Generator {
	return &Generator{
		llm:         llm,
		temperature: defaultTemperature,
	}
}

func (g *Generator) Answer(ctx context.Context, question, contextText string) (string, error) {
	start := time.Now()

	prompt := BuildPrompt(question, contextText)
	if count, err := CountTokens(systemPrompt + prompt); err == nil {
		log.Printf("[AGENT] prompt size: %d tokens", count)
	}

	answer, err := g.llm.Generate(ctx, systemPrompt, prompt, g.temperature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	log.Printf("[AGENT] answer generated in %v", time.Since(start))
	return answer, nil
}

func BuildPrompt(question, contextText string) string {
	return fmt.Sprintf("Question: %s\n\nContext:\n%s", question, contextText)
}

// CountTokens approximates the prompt size with the gpt-3.5-turbo encoding,
// close enough for logging.
func CountTokens(text string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}
