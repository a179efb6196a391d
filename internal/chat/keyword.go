package chat

import (
	"context"
	"fmt"
	"strings"

	"lawchat-backend/internal/database"

	"gorm.io/gorm"
)

// KeywordAggregator maintains the popularity counter over keywords extracted
// from user messages.
type KeywordAggregator struct {
	db        *gorm.DB
	extractor Extractor
}

func NewKeywordAggregator(db *gorm.DB, extractor Extractor) *KeywordAggregator {
	return &KeywordAggregator{db: db, extractor: extractor}
}

func (a *KeywordAggregator) RecordOccurrence(ctx context.Context, text string) error {
	keyword, err := a.extractor.ExtractKeyword(ctx, text)
	if err != nil {
		return fmt.Errorf("could not extract keyword: %w", err)
	}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}

	return database.IncrementKeywordScore(ctx, a.db, keyword)
}
