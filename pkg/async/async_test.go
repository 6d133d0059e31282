package async_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vipgate/pkg/async"
)

func TestGo(t *testing.T) {
	t.Parallel()

	f := async.Go(context.Background(), func(ctx context.Context) (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 42, nil
	})

	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, f.IsComplete())

	// repeated awaits return the same result
	v, err = f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestGo_Error(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")

	_, err := async.Go(context.Background(), func(ctx context.Context) (string, error) {
		return "", boom
	}).Await()
	assert.ErrorIs(t, err, boom)
}

func TestGo_CanceledContextSkipsFn(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Bool
	_, err := async.Go(ctx, func(ctx context.Context) (int, error) {
		called.Store(true)
		return 1, nil
	}).Await()

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called.Load())
}

func TestFuture_DoesNotBlockCaller(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})

	f := async.Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 7, nil
	})
	assert.False(t, f.IsComplete())

	close(release)
	<-f.Done()
	v, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestFuture_AwaitContext(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	defer close(release)

	f := async.Go(context.Background(), func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, f.IsComplete())
}
