package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coursesync/internal/docstore"
)

// openTestStore connects to REDIS_ADDR with a unique prefix, or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	s, err := Open(addr, "coursesync-test-"+uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		for _, c := range []string{"chapters", "userProgress"} {
			_ = s.rdb.Del(ctx, s.key(c)).Err()
		}
		_ = s.Close()
	})
	return s
}

func TestOpen_MissingAddress(t *testing.T) {
	_, err := Open("  ", "")
	require.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "chapters", "b", docstore.Document{"id": "b", "title": "B"}))
	require.NoError(t, s.Set(ctx, "chapters", "a", docstore.Document{"id": "a", "title": "A"}))

	all, err := s.FetchAll(ctx, "chapters")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	got, err := s.Fetch(ctx, "chapters", "a")
	require.NoError(t, err)
	assert.Equal(t, "A", got["title"])
}

func TestStore_InsertOnlyWhenAbsent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created, err := s.Insert(ctx, "userProgress", "u1", docstore.Document{"userId": "u1", "chapterId": "a"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Insert(ctx, "userProgress", "u1", docstore.Document{"userId": "u1", "chapterId": "b"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.Fetch(ctx, "userProgress", "u1")
	require.NoError(t, err)
	assert.Equal(t, "a", got["chapterId"])
}

func TestStore_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Fetch(ctx, "userProgress", "nobody")
	assert.True(t, docstore.IsNotFound(err))

	err = s.Replace(ctx, "userProgress", "nobody", docstore.Document{"userId": "nobody"})
	assert.True(t, docstore.IsNotFound(err))

	err = s.Merge(ctx, "userProgress", "nobody", docstore.Document{"chapterId": "c"})
	assert.True(t, docstore.IsNotFound(err))
}

func TestStore_MergeKeepsOtherFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "userProgress", "u1", docstore.Document{"userId": "u1", "chapterId": "c1"}))
	require.NoError(t, s.Merge(ctx, "userProgress", "u1", docstore.Document{"chapterId": "c2"}))

	got, err := s.Fetch(ctx, "userProgress", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got["userId"])
	assert.Equal(t, "c2", got["chapterId"])
}
