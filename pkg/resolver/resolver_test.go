package resolver

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/LeeDigitalWorks/zapgate/pkg/coord"
	"github.com/LeeDigitalWorks/zapgate/pkg/storage"
	"github.com/LeeDigitalWorks/zapgate/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selfNode = types.NodeDescriptor{ID: "self", Host: "10.0.0.1", Port: 3001}
	peerNode = types.NodeDescriptor{ID: "peer", Host: "10.0.0.2", Port: 3002}
)

type fixture struct {
	local    *storage.Store
	kv       *coord.MemoryStore
	dir      *coord.Directory
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := storage.New(t.TempDir())
	require.NoError(t, err)
	kv := coord.NewMemoryStore()
	dir := coord.NewDirectory(kv, time.Second)
	return &fixture{
		local:    local,
		kv:       kv,
		dir:      dir,
		resolver: New(local, dir, selfNode),
	}
}

// countingLocator records how often the directory is consulted.
type countingLocator struct {
	Locator
	lookups int
	forgets int
}

func (c *countingLocator) Lookup(ctx context.Context, bucket, key string) (types.NodeDescriptor, bool) {
	c.lookups++
	return c.Locator.Lookup(ctx, bucket, key)
}

func (c *countingLocator) Forget(ctx context.Context, bucket, key string) coord.Outcome {
	c.forgets++
	return c.Locator.Forget(ctx, bucket, key)
}

func TestOpen_LocalHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	obj, err := f.local.PutObject(ctx, "photos", "a.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)

	counting := &countingLocator{Locator: f.dir}
	r := New(f.local, counting, selfNode)

	res, err := r.Open(ctx, "photos", obj.Key)
	require.NoError(t, err)
	require.Equal(t, LocalHit, res.State)
	defer res.Reader.Close()

	data, err := io.ReadAll(res.Reader)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
	assert.Equal(t, int64(4), res.Object.Size)
	assert.Zero(t, counting.lookups, "local hits must not consult the directory")
}

func TestOpen_Redirected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dir.Record(ctx, "photos", "1700000000000-9-a.jpg", peerNode)

	res, err := f.resolver.Open(ctx, "photos", "1700000000000-9-a.jpg")
	require.NoError(t, err)
	assert.Equal(t, Redirected, res.State)
	assert.Equal(t, peerNode, res.Owner)
	assert.Equal(t, "http://10.0.0.2:3002/api/buckets/photos/files/1700000000000-9-a.jpg", res.Location)
	assert.Nil(t, res.Reader)
}

func TestStat_RedirectsToInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dir.Record(ctx, "photos", "k", peerNode)

	res, err := f.resolver.Stat(ctx, "photos", "k")
	require.NoError(t, err)
	assert.Equal(t, Redirected, res.State)
	assert.Equal(t, "http://10.0.0.2:3002/api/buckets/photos/files/k/info", res.Location)
}

func TestStat_LocalHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	obj, err := f.local.PutObject(ctx, "docs", "a.txt", strings.NewReader("hello"))
	require.NoError(t, err)

	res, err := f.resolver.Stat(ctx, "docs", obj.Key)
	require.NoError(t, err)
	assert.Equal(t, LocalHit, res.State)
	assert.Nil(t, res.Reader)
	assert.Equal(t, int64(5), res.Object.Size)
}

func TestOpen_NotFound(t *testing.T) {
	f := newFixture(t)

	counting := &countingLocator{Locator: f.dir}
	r := New(f.local, counting, selfNode)

	res, err := r.Open(context.Background(), "photos", "missing")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)
	assert.Equal(t, 1, counting.lookups)
}

func TestOpen_DirectoryUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.dir.Record(ctx, "photos", "k", peerNode)
	f.kv.FailWith(errors.New("connection refused"))

	res, err := f.resolver.Open(ctx, "photos", "k")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)
}

func TestOpen_SelfPointerIsNotFollowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Same endpoint, different id: still this node.
	stale := selfNode
	stale.ID = "self-before-restart"
	f.dir.Record(ctx, "photos", "gone", stale)

	counting := &countingLocator{Locator: f.dir}
	r := New(f.local, counting, selfNode)

	res, err := r.Open(ctx, "photos", "gone")
	require.NoError(t, err)
	assert.Equal(t, NotFound, res.State)
	assert.Equal(t, 1, counting.forgets)

	_, found := f.dir.Lookup(ctx, "photos", "gone")
	assert.False(t, found, "stale self pointer should be forgotten")
}

func TestOpen_InvalidKeyIsAnError(t *testing.T) {
	f := newFixture(t)

	_, err := f.resolver.Open(context.Background(), "photos", "..")
	assert.ErrorIs(t, err, storage.ErrInvalidObjectKey)
}

func TestRedirectURL(t *testing.T) {
	tests := []struct {
		name  string
		owner types.NodeDescriptor
		key   string
		stat  bool
		want  string
	}{
		{"plain", peerNode, "k", false, "http://10.0.0.2:3002/api/buckets/b/files/k"},
		{"info", peerNode, "k", true, "http://10.0.0.2:3002/api/buckets/b/files/k/info"},
		{"escaped", peerNode, "1-2-my file?.txt", false, "http://10.0.0.2:3002/api/buckets/b/files/1-2-my%20file%3F.txt"},
		{"ipv6", types.NodeDescriptor{Host: "::1", Port: 3001}, "k", false, "http://[::1]:3001/api/buckets/b/files/k"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RedirectURL(tt.owner, "b", tt.key, tt.stat))
		})
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "local_hit", LocalHit.String())
	assert.Equal(t, "not_found", NotFound.String())
	assert.Equal(t, "redirected", Redirected.String())
	assert.Equal(t, "unknown", State(42).String())
}
