package ai

import (
	"context"
	"errors"
	"strings"

	"linkcraft/internal/vector"
)

const (
	// maxInputRunes approximates the embedding model's token ceiling.
	maxInputRunes = 30000
	// maxBatchItems is the provider's per-request input limit.
	maxBatchItems = 100
)

var (
	ErrEmptyInput = errors.New("embedding input is empty")
	ErrEmptyBatch = errors.New("embedding batch has no non-empty texts")
)

// EmbeddingService converts text into fixed-length vectors via the
// configured embedding model and enforces the corpus dimensionality.
type EmbeddingService struct {
	client *OpenAICompatibleClient
	cfg    EmbeddingConfig
}

func NewEmbeddingService(client *OpenAICompatibleClient, cfg EmbeddingConfig) *EmbeddingService {
	return &EmbeddingService{client: client, cfg: cfg}
}

// Dimensions is the configured vector length for this corpus.
func (s *EmbeddingService) Dimensions() int { return s.cfg.Dimensions }

// ModelVersion tags persisted vectors with the generating model so an
// upgrade can be detected instead of silently mixing vector spaces.
func (s *EmbeddingService) ModelVersion() string { return s.cfg.Model }

// Embed returns the embedding vector for the given text. Text beyond the
// input ceiling is truncated before submission.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}
	text = truncate(text, maxInputRunes)

	vectors, err := s.client.embeddings(ctx, s.cfg, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors[0]) != s.cfg.Dimensions {
		return nil, vector.ErrDimensionMismatch
	}
	return vectors[0], nil
}

// EmbedBatch returns embeddings for the non-blank entries of texts, in the
// order those entries appear. The input is chunked into sub-batches to
// respect the provider's request-size limit; a failed chunk fails the
// whole batch.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	valid := make([]string, 0, len(texts))
	for _, t := range texts {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			valid = append(valid, truncate(trimmed, maxInputRunes))
		}
	}
	if len(valid) == 0 {
		return nil, ErrEmptyBatch
	}

	result := make([][]float32, 0, len(valid))
	for start := 0; start < len(valid); start += maxBatchItems {
		end := start + maxBatchItems
		if end > len(valid) {
			end = len(valid)
		}
		batch, err := s.client.embeddings(ctx, s.cfg, valid[start:end])
		if err != nil {
			return nil, err
		}
		result = append(result, batch...)
	}

	for _, v := range result {
		if len(v) != s.cfg.Dimensions {
			return nil, vector.ErrDimensionMismatch
		}
	}
	return result, nil
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
