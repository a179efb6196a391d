package chat

import (
	"context"
	"strings"
	"sync"
	"testing"

	"lawchat-backend/internal/database"
	"lawchat-backend/internal/messaging"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.GetMigrator(db).Migrate())
	return db
}

func newTestMember(t *testing.T, db *gorm.DB, email string) database.Member {
	t.Helper()

	member := database.Member{Id: uuid.New(), Email: email}
	require.NoError(t, db.Create(&member).Error)
	return member
}

type fakeRetriever struct {
	precedents []Document
	laws       []Document
	err        error
}

func (f *fakeRetriever) Search(ctx context.Context, query, category string, topK int) ([]Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	if category == CategoryPrecedent {
		return f.precedents, nil
	}
	return f.laws, nil
}

type fakeGenerator struct {
	deltas []string
	err    error // returned after deltas are emitted
}

func (f *fakeGenerator) Stream(ctx context.Context, prompt Prompt, onDelta func(string) error) (string, error) {
	var full strings.Builder
	for _, delta := range f.deltas {
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			return full.String(), err
		}
	}
	if f.err != nil {
		return full.String(), f.err
	}
	return full.String(), nil
}

type fakeExtractor struct {
	mu           sync.Mutex
	title        string
	keyword      string
	titleCalls   []string
	keywordCalls []string
}

func (f *fakeExtractor) ExtractTitle(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titleCalls = append(f.titleCalls, text)
	return f.title, nil
}

func (f *fakeExtractor) ExtractKeyword(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keywordCalls = append(f.keywordCalls, text)
	return f.keyword, nil
}

type capturePublisher struct {
	mu       sync.Mutex
	payloads []messaging.PostProcessPayload
}

func (p *capturePublisher) PublishPostProcessTask(ctx context.Context, payload messaging.PostProcessPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePublisher) Close() {}
