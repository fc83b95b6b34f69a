package coord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nodeA = types.NodeDescriptor{ID: "node-a", Host: "10.0.0.1", Port: 3001}
	nodeB = types.NodeDescriptor{ID: "node-b", Host: "10.0.0.2", Port: 3001}
)

// stores returns every Store implementation under test, keyed by name.
func stores(t *testing.T) map[string]Store {
	t.Helper()
	_, redisStore := setupTestRedis(t)
	return map[string]Store{
		"memory": NewMemoryStore(),
		"redis":  redisStore,
	}
}

func TestDirectory_RecordLookupForget(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			dir := NewDirectory(store, time.Second)

			_, found := dir.Lookup(ctx, "photos", "a.jpg")
			assert.False(t, found)

			out := dir.Record(ctx, "photos", "a.jpg", nodeA)
			require.False(t, out.Degraded(), "record: %v", out.Err)
			assert.Equal(t, "photos:a.jpg", out.Key)

			owner, found := dir.Lookup(ctx, "photos", "a.jpg")
			require.True(t, found)
			assert.Equal(t, nodeA, owner)

			// Last writer wins.
			dir.Record(ctx, "photos", "a.jpg", nodeB)
			owner, found = dir.Lookup(ctx, "photos", "a.jpg")
			require.True(t, found)
			assert.Equal(t, nodeB, owner)

			out = dir.Forget(ctx, "photos", "a.jpg")
			assert.False(t, out.Degraded())
			_, found = dir.Lookup(ctx, "photos", "a.jpg")
			assert.False(t, found)
		})
	}
}

func TestDirectory_WireFormat(t *testing.T) {
	mr, store := setupTestRedis(t)
	dir := NewDirectory(store, time.Second)

	dir.Record(context.Background(), "docs", "1700000000000-7-report.pdf", nodeA)

	raw, err := mr.Get("docs:1700000000000-7-report.pdf")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"node-a","host":"10.0.0.1","port":3001}`, raw)
}

func TestDirectory_UnusableEntriesAreMisses(t *testing.T) {
	store := NewMemoryStore()
	dir := NewDirectory(store, time.Second)
	ctx := context.Background()

	for key, value := range map[string]string{
		"b:garbage": "not json",
		"b:nohost":  `{"id":"x","host":"","port":3001}`,
		"b:noport":  `{"id":"x","host":"h","port":0}`,
		"b:badport": `{"id":"x","host":"h","port":70000}`,
	} {
		require.NoError(t, store.Set(ctx, key, value))
	}

	for _, key := range []string{"garbage", "nohost", "noport", "badport"} {
		_, found := dir.Lookup(ctx, "b", key)
		assert.False(t, found, key)
	}
}

func TestDirectory_Degraded(t *testing.T) {
	store := NewMemoryStore()
	dir := NewDirectory(store, time.Second)
	ctx := context.Background()

	dir.Record(ctx, "photos", "a.jpg", nodeA)
	store.FailWith(errors.New("connection refused"))

	out := dir.Record(ctx, "photos", "b.jpg", nodeA)
	assert.True(t, out.Degraded())
	out.Log(ctx)

	_, found := dir.Lookup(ctx, "photos", "a.jpg")
	assert.False(t, found)

	assert.True(t, dir.Forget(ctx, "photos", "a.jpg").Degraded())

	// The pointer survives the failed forget.
	store.FailWith(nil)
	owner, found := dir.Lookup(ctx, "photos", "a.jpg")
	require.True(t, found)
	assert.Equal(t, nodeA, owner)
}

func TestDirectory_UnreachableRedisIsPrompt(t *testing.T) {
	mr, store := setupTestRedis(t)
	dir := NewDirectory(store, 500*time.Millisecond)
	mr.Close()

	start := time.Now()
	_, found := dir.Lookup(context.Background(), "photos", "a.jpg")
	assert.False(t, found)
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.True(t, dir.Record(context.Background(), "photos", "a.jpg", nodeA).Degraded())
}

func TestNewDirectory_DefaultTimeout(t *testing.T) {
	dir := NewDirectory(NewMemoryStore(), 0)
	assert.Equal(t, DefaultTimeout, dir.timeout)
}
