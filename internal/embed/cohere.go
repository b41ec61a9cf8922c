package embed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/alanyoungcy/arbmonitor/internal/config"
)

// CohereEmbedder implements Embedder using the Cohere Embed v2 API.
type CohereEmbedder struct {
	client *cohereclient.Client
	model  string
}

// NewCohereEmbedder returns a CohereEmbedder, or nil when no API key is
// configured. A nil embedder disables semantic scoring in the matcher.
func NewCohereEmbedder(cfg config.EmbeddingsConfig) *CohereEmbedder {
	if cfg.ApiKey == "" {
		return nil
	}
	httpClient := &http.Client{Timeout: 60 * time.Second}
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.ApiKey),
		cohereclient.WithHTTPClient(httpClient),
	)
	return &CohereEmbedder{client: client, model: cfg.Model}
}

func (c *CohereEmbedder) Model() string { return c.model }

// EmbedTexts embeds a batch of texts, returning one float vector per input
// in the same order.
func (c *CohereEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := c.client.V2.Embed(ctx, &cohere.V2EmbedRequest{
		Texts:          texts,
		Model:          c.model,
		InputType:      cohere.EmbedInputTypeSearchDocument,
		EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
	})
	if err != nil {
		return nil, fmt.Errorf("embed: cohere request: %w", err)
	}
	if resp == nil || resp.Embeddings == nil || resp.Embeddings.Float == nil {
		return nil, fmt.Errorf("embed: cohere returned no float embeddings")
	}

	floats := resp.Embeddings.Float
	if len(floats) != len(texts) {
		return nil, fmt.Errorf("embed: got %d embeddings for %d texts", len(floats), len(texts))
	}

	out := make([][]float32, len(floats))
	for i, vec := range floats {
		fv := make([]float32, len(vec))
		for j, v := range vec {
			fv[j] = float32(v)
		}
		out[i] = fv
	}
	return out, nil
}
