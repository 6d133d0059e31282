package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vipgate/pkg/account"
	"github.com/dmitrymomot/vipgate/pkg/redis"
	"github.com/dmitrymomot/vipgate/pkg/session"
)

func setup(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestStorage_GetSetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := setup(t)
	s := redis.NewStorage(client, redis.WithKeyPrefix("test:"))

	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.Set(ctx, "k", []byte("value")))
	assert.True(t, mr.Exists("test:k"))

	v, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	assert.False(t, mr.Exists("test:k"))
}

func TestStorage_EmptyKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, client := setup(t)
	s := redis.NewStorage(client)

	_, err := s.Get(ctx, "")
	assert.ErrorIs(t, err, redis.ErrEmptyKey)
	assert.ErrorIs(t, s.Set(ctx, "", []byte("x")), redis.ErrEmptyKey)
	assert.ErrorIs(t, s.Delete(ctx, ""), redis.ErrEmptyKey)
}

func TestStorage_TTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := setup(t)
	s := redis.NewStorageWithConfig(client, redis.Config{KeyPrefix: "p:", SessionTTL: time.Minute})

	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	assert.Equal(t, time.Minute, mr.TTL("p:k"))

	mr.FastForward(2 * time.Minute)
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStorage_AsSessionBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := setup(t)
	store := session.NewBlobStore(redis.NewStorage(client, redis.WithKeyPrefix("vipgate:")))

	acc := &account.Account{ID: uuid.New(), Role: account.RoleVIP}
	s := session.New(acc)
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.AccountID)
	assert.Equal(t, account.RoleVIP, got.Role)

	// foreign data under the session key is dropped
	require.NoError(t, mr.Set("vipgate:"+session.DefaultKey, "not-a-session"))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.False(t, mr.Exists("vipgate:"+session.DefaultKey))
}

func TestStorage_ServerDown(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, client := setup(t)
	s := redis.NewStorage(client)
	mr.Close()

	_, err := s.Get(ctx, "k")
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + mr.Addr() + "/0",
		RetryAttempts:  2,
		RetryInterval:  10 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, redis.Healthcheck(client)(context.Background()))
}

func TestConnect_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := redis.Connect(ctx, redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)

	_, err = redis.Connect(ctx, redis.Config{ConnectionURL: "http://nope"})
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err = redis.Connect(ctx, redis.Config{
		ConnectionURL:  "redis://" + addr + "/0",
		RetryAttempts:  2,
		RetryInterval:  5 * time.Millisecond,
		ConnectTimeout: time.Second,
	})
	assert.ErrorIs(t, err, redis.ErrRedisNotReady)
}

func TestHealthcheck_Failure(t *testing.T) {
	t.Parallel()
	mr, client := setup(t)
	mr.Close()

	err := redis.Healthcheck(client)(context.Background())
	assert.ErrorIs(t, err, redis.ErrHealthcheckFailed)
}
