package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pgvector"
)

const (
	CategoryPrecedent = "precedent"
	CategoryLaw       = "law"
)

// ErrRetrievalUnavailable indicates the vector index could not be reached.
// The orchestrator treats it as "no context" instead of failing the exchange.
var ErrRetrievalUnavailable = errors.New("vector index unavailable")

// Document is one similarity-search hit, ranked descending by score.
type Document struct {
	Content  string
	Metadata map[string]any
	Score    float32
}

type Retriever interface {
	Search(ctx context.Context, query, category string, topK int) ([]Document, error)
}

// PgVectorRetriever searches the legal-document index stored in pgvector,
// filtered by document category.
type PgVectorRetriever struct {
	store pgvector.Store
}

func NewPgVectorRetriever(ctx context.Context, connectionURL, collection string, embedder embeddings.Embedder) (*PgVectorRetriever, error) {
	store, err := pgvector.New(ctx,
		pgvector.WithConnectionURL(connectionURL),
		pgvector.WithEmbedder(embedder),
		pgvector.WithCollectionName(collection),
	)
	if err != nil {
		return nil, fmt.Errorf("could not create pgvector store: %w", err)
	}
	return &PgVectorRetriever{store: store}, nil
}

func (r *PgVectorRetriever) Search(ctx context.Context, query, category string, topK int) ([]Document, error) {
	hits, err := r.store.SimilaritySearch(ctx, query, topK,
		vectorstores.WithFilters(map[string]any{"category": category}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalUnavailable, err)
	}

	docs := make([]Document, 0, len(hits))
	for _, hit := range hits {
		docs = append(docs, Document{
			Content:  hit.PageContent,
			Metadata: hit.Metadata,
			Score:    hit.Score,
		})
	}
	return docs, nil
}

func metadataString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
