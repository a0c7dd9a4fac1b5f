package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"panicconf/pkg/rediskeys"
)

func newConnectedClient(t *testing.T, namespace string) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(Options{Addr: mr.Addr(), Namespace: namespace}, zap.NewNop())
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Disconnect() })
	return client
}

func TestOperationsBeforeConnectReturnErrNotConnected(t *testing.T) {
	client := NewClient(Options{Addr: "localhost:0"}, zap.NewNop())
	ctx := context.Background()

	require.False(t, client.Connected())
	assert.ErrorIs(t, client.Set(ctx, "k", "v", 0), ErrNotConnected)
	_, err := client.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = client.HGetAll(ctx, "h")
	assert.ErrorIs(t, err, ErrNotConnected)
	_, err = client.Delete(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestDisconnectReturnsClientToDisconnectedState(t *testing.T) {
	client := newConnectedClient(t, "")
	require.True(t, client.Connected())

	require.NoError(t, client.Disconnect())
	require.False(t, client.Connected())
	assert.ErrorIs(t, client.Set(context.Background(), "k", "v", 0), ErrNotConnected)

	// second disconnect is a no-op
	require.NoError(t, client.Disconnect())
}

func TestNamespacePrefixing(t *testing.T) {
	client := newConnectedClient(t, "panic")
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "heartbeat", "alive", time.Minute))
	got, err := client.Get(ctx, "heartbeat")
	require.NoError(t, err)
	assert.Equal(t, "alive", got)

	other := newConnectedClient(t, "staging")
	_, err = other.Get(ctx, "heartbeat")
	assert.Error(t, err, "different namespace must not see the key")
}

func TestHashOperations(t *testing.T) {
	client := newConnectedClient(t, "panic")
	ctx := context.Background()
	hash := rediskeys.ParentHash("chain1")

	require.NoError(t, client.HSet(ctx, hash, map[string]any{
		rediskeys.GitHubNoOfReleases("repo1"):  "14",
		rediskeys.GitHubLastMonitored("repo1"): "1700000000",
	}))

	releases, err := client.HGet(ctx, hash, rediskeys.GitHubNoOfReleases("repo1"))
	require.NoError(t, err)
	assert.Equal(t, "14", releases)

	all, err := client.HGetAll(ctx, hash)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, client.HDelete(ctx, hash, rediskeys.GitHubNoOfReleases("repo1")))
	all, err = client.HGetAll(ctx, hash)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConcurrentConnectDisconnectAndOperations(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(Options{Addr: mr.Addr(), Namespace: "panic"}, zap.NewNop())
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Disconnect() })

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Errors are expected mid-reconnect; the point is that
				// the handle swap never races these calls.
				_ = client.MuteAll(ctx)
				_, _ = client.AllMuted(ctx)
				client.Connected()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 25; j++ {
			_ = client.Disconnect()
			_ = client.Connect(ctx)
		}
	}()
	wg.Wait()

	require.True(t, client.Connected())
	require.NoError(t, client.MuteAll(ctx))
	muted, err := client.AllMuted(ctx)
	require.NoError(t, err)
	assert.True(t, muted)
}

func TestChainMuteLifecycle(t *testing.T) {
	client := newConnectedClient(t, "panic")
	ctx := context.Background()

	muted, err := client.ChainMuted(ctx, "chain1")
	require.NoError(t, err)
	assert.False(t, muted)

	require.NoError(t, client.MuteChain(ctx, "chain1"))
	muted, err = client.ChainMuted(ctx, "chain1")
	require.NoError(t, err)
	assert.True(t, muted)

	require.NoError(t, client.UnmuteChain(ctx, "chain1"))
	muted, err = client.ChainMuted(ctx, "chain1")
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestGlobalMuteLifecycle(t *testing.T) {
	client := newConnectedClient(t, "panic")
	ctx := context.Background()

	muted, err := client.AllMuted(ctx)
	require.NoError(t, err)
	assert.False(t, muted)

	require.NoError(t, client.MuteAll(ctx))
	muted, err = client.AllMuted(ctx)
	require.NoError(t, err)
	assert.True(t, muted)

	require.NoError(t, client.UnmuteAll(ctx))
	muted, err = client.AllMuted(ctx)
	require.NoError(t, err)
	assert.False(t, muted)
}
