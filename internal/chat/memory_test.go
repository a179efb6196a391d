package chat

import (
	"context"
	"fmt"
	"testing"

	"lawchat-backend/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryWindowBound(t *testing.T) {
	db := newTestDB(t)
	memory := NewMemoryWindow(db)
	roomId := uuid.New()
	ctx := context.Background()

	for i := 1; i <= 25; i++ {
		role := database.TurnRoleUser
		if i%2 == 0 {
			role = database.TurnRoleAssistant
		}
		require.NoError(t, memory.Append(ctx, roomId, role, fmt.Sprintf("message %d", i)))
	}

	entries, err := memory.Read(ctx, roomId)
	require.NoError(t, err)
	require.Len(t, entries, DefaultMemoryLimit)

	// Oldest entries are evicted first; the window holds the last 10 in
	// chronological order.
	for i, entry := range entries {
		assert.Equal(t, fmt.Sprintf("message %d", 16+i), entry.Content)
	}
}

func TestMemoryWindowUnknownRoom(t *testing.T) {
	db := newTestDB(t)
	memory := NewMemoryWindow(db)

	entries, err := memory.Read(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMemoryWindowRoomsAreIndependent(t *testing.T) {
	db := newTestDB(t)
	memory := NewMemoryWindow(db)
	ctx := context.Background()

	roomA, roomB := uuid.New(), uuid.New()

	for i := 0; i < 12; i++ {
		require.NoError(t, memory.Append(ctx, roomA, database.TurnRoleUser, fmt.Sprintf("a %d", i)))
	}
	require.NoError(t, memory.Append(ctx, roomB, database.TurnRoleUser, "b 0"))

	entriesA, err := memory.Read(ctx, roomA)
	require.NoError(t, err)
	assert.Len(t, entriesA, DefaultMemoryLimit)

	entriesB, err := memory.Read(ctx, roomB)
	require.NoError(t, err)
	require.Len(t, entriesB, 1)
	assert.Equal(t, "b 0", entriesB[0].Content)
}
