//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/db/models"
	"github.com/velastools/velastools/pkg/redis"
)

func startRedis(t *testing.T) (*redis.Client, *goredis.Client) {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	c := redis.New(rdb, zaptest.NewLogger(t), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Health(ctx))
	return c, rdb
}

func TestGetSetJSON(t *testing.T) {
	c, _ := startRedis(t)
	ctx := context.Background()

	var got map[string]int
	assert.ErrorIs(t, c.GetJSON(ctx, "missing", &got), redis.ErrCacheMiss)

	require.NoError(t, c.SetJSON(ctx, "k", map[string]int{"a": 1}))
	require.NoError(t, c.GetJSON(ctx, "k", &got))
	assert.Equal(t, map[string]int{"a": 1}, got)
}

func TestInvalidateCluster(t *testing.T) {
	c, rdb := startRedis(t)
	ctx := context.Background()

	keep := redis.TableKey(models.Credits, cluster.Testnet, 5)
	other := redis.TableKey(models.Rewards, cluster.Mainnet, 15)
	drop1 := redis.TableKey(models.Credits, cluster.Mainnet, 5)
	drop2 := redis.TableKey(models.Credits, cluster.Mainnet, 20)
	for _, k := range []string{keep, other, drop1, drop2} {
		require.NoError(t, c.SetJSON(ctx, k, 1))
	}

	sub := rdb.Subscribe(ctx, redis.ReconciledChannel(models.Credits, cluster.Mainnet))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, c.InvalidateCluster(ctx, models.Credits, cluster.Mainnet))

	var v int
	assert.NoError(t, c.GetJSON(ctx, keep, &v))
	assert.NoError(t, c.GetJSON(ctx, other, &v))
	assert.ErrorIs(t, c.GetJSON(ctx, drop1, &v), redis.ErrCacheMiss)
	assert.ErrorIs(t, c.GetJSON(ctx, drop2, &v), redis.ErrCacheMiss)

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "velastools:mainnet:credits.reconciled", msg.Channel)
	case <-time.After(5 * time.Second):
		t.Fatal("no reconcile notification")
	}
}
