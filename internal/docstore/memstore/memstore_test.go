package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/coursesync/internal/docstore"
)

func TestStore_FailNext(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.FailNext(OpSet, 2, nil)

	for i := 0; i < 2; i++ {
		err := s.Set(ctx, "c", "x", docstore.Document{"v": 1})
		assert.True(t, docstore.IsTransport(err), "attempt %d: got %v", i+1, err)
	}
	require.NoError(t, s.Set(ctx, "c", "x", docstore.Document{"v": 1}))
	assert.Equal(t, 3, s.Calls(OpSet))
	assert.Equal(t, 1, s.Len("c"))
}

func TestStore_InsertOnlyWhenAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()

	created, err := s.Insert(ctx, "c", "x", docstore.Document{"v": 1})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Insert(ctx, "c", "x", docstore.Document{"v": 2})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.Fetch(ctx, "c", "x")
	require.NoError(t, err)
	assert.Equal(t, docstore.Document{"v": int64(1)}, got)
	assert.Equal(t, 2, s.Calls(OpInsert))
}

func TestStore_ReplaceAndMerge(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.True(t, docstore.IsNotFound(s.Replace(ctx, "c", "x", docstore.Document{})))
	assert.True(t, docstore.IsNotFound(s.Merge(ctx, "c", "x", docstore.Document{})))

	require.NoError(t, s.Set(ctx, "c", "x", docstore.Document{"a": "1", "b": "2"}))
	require.NoError(t, s.Merge(ctx, "c", "x", docstore.Document{"b": "3"}))

	got, err := s.Fetch(ctx, "c", "x")
	require.NoError(t, err)
	assert.Equal(t, docstore.Document{"a": "1", "b": "3"}, got)

	require.NoError(t, s.Replace(ctx, "c", "x", docstore.Document{"c": "4"}))
	got, err = s.Fetch(ctx, "c", "x")
	require.NoError(t, err)
	assert.Equal(t, docstore.Document{"c": "4"}, got)
}

func TestStore_LatencyHonorsContext(t *testing.T) {
	s := New()
	s.SetLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.Fetch(ctx, "c", "x")
	assert.True(t, docstore.IsTransport(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStore_FetchAllDecodesPlantedPayload(t *testing.T) {
	s := New()
	s.Put("c", "bad", []byte(`{"f": 0.25}`))

	_, err := s.FetchAll(context.Background(), "c")
	assert.True(t, docstore.IsDecode(err))
}
