package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	Name   string `json:"name"`
	TeamID string `json:"team_id"`
	Rank   int    `json:"rank"`
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	docs := NewMemoryDocumentStore()
	ctx := context.Background()

	id, err := docs.Create(ctx, "things", testDoc{Name: "alpha", TeamID: "t1", Rank: 1})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := docs.Get(ctx, "things", id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	var got testDoc
	require.NoError(t, rec.Decode(&got))
	assert.Equal(t, "alpha", got.Name)

	_, err = docs.Get(ctx, "things", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStorePutIsKeyedUpsert(t *testing.T) {
	docs := NewMemoryDocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.Put(ctx, "things", "fixed-id", testDoc{Name: "v1"}))
	require.NoError(t, docs.Put(ctx, "things", "fixed-id", testDoc{Name: "v2"}))

	rec, err := docs.Get(ctx, "things", "fixed-id")
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, rec.Decode(&got))
	assert.Equal(t, "v2", got.Name)

	records, err := docs.Query(ctx, "things", nil, OrderCreatedAsc, 0)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMemoryStoreUpdateMergesFields(t *testing.T) {
	docs := NewMemoryDocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.Put(ctx, "things", "a", testDoc{Name: "alpha", TeamID: "t1", Rank: 1}))
	require.NoError(t, docs.Update(ctx, "things", "a", map[string]any{"rank": 5}))

	rec, err := docs.Get(ctx, "things", "a")
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, rec.Decode(&got))
	assert.Equal(t, "alpha", got.Name, "untouched fields survive a partial update")
	assert.Equal(t, "t1", got.TeamID)
	assert.Equal(t, 5, got.Rank)

	assert.ErrorIs(t, docs.Update(ctx, "things", "missing", map[string]any{"rank": 1}), ErrNotFound)
}

func TestMemoryStoreQueryFiltersAndOrder(t *testing.T) {
	docs := NewMemoryDocumentStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	docs.SetClock(func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	})

	require.NoError(t, docs.Put(ctx, "things", "a", testDoc{Name: "alpha", TeamID: "t1"}))
	require.NoError(t, docs.Put(ctx, "things", "b", testDoc{Name: "beta", TeamID: "t1"}))
	require.NoError(t, docs.Put(ctx, "things", "c", testDoc{Name: "gamma", TeamID: "t2"}))

	records, err := docs.Query(ctx, "things", Filters{"team_id": "t1"}, OrderCreatedAsc, 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)

	records, err = docs.Query(ctx, "things", Filters{"team_id": "t1"}, OrderCreatedDesc, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "b", records[0].ID)

	records, err = docs.Query(ctx, "things", Filters{"team_id": "none"}, OrderCreatedAsc, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStoreDelete(t *testing.T) {
	docs := NewMemoryDocumentStore()
	ctx := context.Background()

	require.NoError(t, docs.Put(ctx, "things", "a", testDoc{Name: "alpha"}))
	require.NoError(t, docs.Delete(ctx, "things", "a"))

	_, err := docs.Get(ctx, "things", "a")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, docs.Delete(ctx, "things", "a"), ErrNotFound)
}

func TestMemoryStoreSubscribePushesSnapshots(t *testing.T) {
	docs := NewMemoryDocumentStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, docs.Put(ctx, "things", "a", testDoc{Name: "alpha", TeamID: "t1"}))

	sub, err := docs.Subscribe(ctx, "things", Filters{"team_id": "t1"}, OrderCreatedAsc)
	require.NoError(t, err)

	// Первый снимок приходит сразу после подписки.
	select {
	case snapshot := <-sub.Snapshots():
		require.Len(t, snapshot, 1)
		assert.Equal(t, "a", snapshot[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected an initial snapshot")
	}

	require.NoError(t, docs.Put(ctx, "things", "b", testDoc{Name: "beta", TeamID: "t1"}))

	select {
	case snapshot := <-sub.Snapshots():
		assert.Len(t, snapshot, 2)
	case <-time.After(time.Second):
		t.Fatal("expected a snapshot after a write")
	}

	// Запись в чужую коллекцию или мимо фильтра снимок тоже перечитывает
	// только свой срез: документ другой команды в снимок не попадает.
	require.NoError(t, docs.Put(ctx, "things", "c", testDoc{Name: "gamma", TeamID: "t2"}))

	select {
	case snapshot := <-sub.Snapshots():
		assert.Len(t, snapshot, 2)
	case <-time.After(time.Second):
		// Снимок может быть схлопнут с предыдущим; это допустимо.
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.Snapshots():
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond, "snapshots channel closes after cancel")
}
