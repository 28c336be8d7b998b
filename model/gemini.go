package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient calls the Google Generative Language API for both embeddings
// and chat completions.
type GeminiClient struct {
	apiURL     string
	apiKey     string
	embedModel string
	chatModel  string
	client     *http.Client
}

func NewGeminiClient(apiKey, embedModel, chatModel string) *GeminiClient {
	return &GeminiClient{
		apiURL:     defaultAPIURL,
		apiKey:     apiKey,
		embedModel: embedModel,
		chatModel:  chatModel,
		client:     http.DefaultClient,
	}
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type embedRequest struct {
	Model    string        `json:"model"`
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType"`
}

type batchEmbedRequest struct {
	Requests []embedRequest `json:"requests"`
}

type embeddingValues struct {
	Values []float64 `json:"values"`
}

type embedResponse struct {
	Embedding embeddingValues `json:"embedding"`
}

type batchEmbedResponse struct {
	Embeddings []embeddingValues `json:"embeddings"`
}

// EmbedDocuments embeds every chunk text in one batch call with the
// RETRIEVAL_DOCUMENT task type.
func (g *GeminiClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	batch := batchEmbedRequest{Requests: make([]embedRequest, len(texts))}
	for i, text := range texts {
		batch.Requests[i] = embedRequest{
			Model:    "models/" + g.embedModel,
			Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
			TaskType: "RETRIEVAL_DOCUMENT",
		}
	}

	url := fmt.Sprintf("%s/models/%s:batchEmbedContents?key=%s", g.apiURL, g.embedModel, g.apiKey)
	body, err := g.post(ctx, url, batch, 30*time.Second)
	if err != nil {
		return nil, err
	}

	var resp batchEmbedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embeddings: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		vectors[i] = toFloat32(normalize64(e.Values))
	}
	return vectors, nil
}

// EmbedQuery embeds a search query with the RETRIEVAL_QUERY task type.
func (g *GeminiClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	req := embedRequest{
		Model:    "models/" + g.embedModel,
		Content:  geminiContent{Parts: []geminiPart{{Text: text}}},
		TaskType: "RETRIEVAL_QUERY",
	}

	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", g.apiURL, g.embedModel, g.apiKey)
	body, err := g.post(ctx, url, req, 30*time.Second)
	if err != nil {
		return nil, err
	}

	var resp embedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return toFloat32(normalize64(resp.Embedding.Values)), nil
}

type generateRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Generate sends one user turn plus the system instruction and returns the
// model's text verbatim.
func (g *GeminiClient) Generate(ctx context.Context, system, prompt string, temperature float64) (string, error) {
	req := generateRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{Temperature: temperature},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.apiURL, g.chatModel, g.apiKey)
	body, err := g.post(ctx, url, req, 60*time.Second)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to unmarshal completion: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("completion has no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func (g *GeminiClient) post(ctx context.Context, url string, payload any, timeout time.Duration) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
