package adapter

import (
	"context"

	"cloud.google.com/go/firestore"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// DefaultEmbeddingDims matches gemini-embedding-001 output truncated to the
// store's vector index width.
const DefaultEmbeddingDims = 768

// Embedder generates query embeddings. Dims reports the fixed vector length
// so callers can build the zero-vector sentinel without a round trip.
type Embedder interface {
	Embed(ctx context.Context, text string) (firestore.Vector32, error)
	Dims() int
}

// ZeroVector is the documented sentinel returned when embedding is bypassed
// for safety. It matches nothing in cosine space.
func ZeroVector(dims int) firestore.Vector32 {
	return make(firestore.Vector32, dims)
}

// IsZeroVector reports whether v is the bypass sentinel.
func IsZeroVector(v firestore.Vector32) bool {
	for _, f := range v {
		if f != 0 {
			return false
		}
	}
	return true
}

// GeminiClient embeds query text via the Gemini embedding API. Query texts
// repeat heavily across conversation turns, so results are cached in an LRU.
type GeminiClient struct {
	client         *genai.Client
	embeddingModel string
	dims           int
	cache          *lru.Cache[string, firestore.Vector32]
}

type GeminiOption func(*GeminiClient)

func WithEmbeddingModel(model string) GeminiOption {
	return func(g *GeminiClient) {
		g.embeddingModel = model
	}
}

func WithDims(dims int) GeminiOption {
	return func(g *GeminiClient) {
		g.dims = dims
	}
}

func NewGemini(ctx context.Context, projectID, location string, opts ...GeminiOption) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create genai client")
	}

	cache, err := lru.New[string, firestore.Vector32](512)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	g := &GeminiClient{
		client:         client,
		embeddingModel: "gemini-embedding-001",
		dims:           DefaultEmbeddingDims,
		cache:          cache,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

func (g *GeminiClient) Dims() int {
	return g.dims
}

func (g *GeminiClient) Embed(ctx context.Context, text string) (firestore.Vector32, error) {
	if v, ok := g.cache.Get(text); ok {
		return v, nil
	}

	dims := int32(g.dims)
	resp, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), &genai.EmbedContentConfig{
		OutputDimensionality: &dims,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed content")
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, goerr.New("embedding response is empty")
	}

	vector := firestore.Vector32(resp.Embeddings[0].Values)
	g.cache.Add(text, vector)
	return vector, nil
}
