package coord

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterList(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			reg := NewRegistry(store, time.Second)

			assert.Empty(t, reg.List(ctx))

			require.False(t, reg.Register(ctx, nodeB).Degraded())
			require.False(t, reg.Register(ctx, nodeA).Degraded())

			want := []types.NodeDescriptor{nodeA, nodeB}
			if diff := cmp.Diff(want, reg.List(ctx)); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	reg := NewRegistry(NewMemoryStore(), time.Second)
	ctx := context.Background()

	reg.Register(ctx, nodeA)
	reg.Register(ctx, nodeA)
	assert.Len(t, reg.List(ctx), 1)

	// Uniqueness is by full value: a moved node is a second entry.
	moved := nodeA
	moved.Port = 4001
	reg.Register(ctx, moved)

	want := []types.NodeDescriptor{nodeA, moved}
	if diff := cmp.Diff(want, reg.List(ctx)); diff != "" {
		t.Errorf("List() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_NoValidation(t *testing.T) {
	reg := NewRegistry(NewMemoryStore(), time.Second)
	ctx := context.Background()

	odd := types.NodeDescriptor{ID: "", Host: "", Port: 0}
	require.False(t, reg.Register(ctx, odd).Degraded())
	assert.Equal(t, []types.NodeDescriptor{odd}, reg.List(ctx))
}

func TestRegistry_SkipsMalformedMembers(t *testing.T) {
	store := NewMemoryStore()
	reg := NewRegistry(store, time.Second)
	ctx := context.Background()

	require.NoError(t, store.SAdd(ctx, NodesKey, "{broken"))
	require.NoError(t, store.SAdd(ctx, NodesKey, `{"id":"x","host":"h","port":-5}`))
	reg.Register(ctx, nodeA)

	assert.Equal(t, []types.NodeDescriptor{nodeA}, reg.List(ctx))
}

func TestRegistry_Degraded(t *testing.T) {
	store := NewMemoryStore()
	reg := NewRegistry(store, time.Second)
	ctx := context.Background()

	reg.Register(ctx, nodeA)
	store.FailWith(errors.New("connection refused"))

	assert.True(t, reg.Register(ctx, nodeB).Degraded())
	nodes := reg.List(ctx)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestRegistry_WireFormat(t *testing.T) {
	mr, store := setupTestRedis(t)
	reg := NewRegistry(store, time.Second)

	reg.Register(context.Background(), nodeA)

	members, err := mr.Members("nodes")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.JSONEq(t, `{"id":"node-a","host":"10.0.0.1","port":3001}`, members[0])
}
