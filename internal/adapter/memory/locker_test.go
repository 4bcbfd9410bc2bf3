package memory_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyang/prompt-mesh/internal/adapter/memory"
)

func TestLocker_SerialisesSameKey(t *testing.T) {
	l := memory.NewLocker()
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.WithLock(context.Background(), 7, func(context.Context) error {
				n := inside.Add(1)
				for {
					m := maxInside.Load()
					if n <= m || maxInside.CompareAndSwap(m, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
	assert.Equal(t, 0, l.Len())
}

func TestLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := memory.NewLocker()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- l.WithLock(context.Background(), 1, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, l.WithLock(ctx, 2, func(context.Context) error { return nil }))

	close(release)
	require.NoError(t, <-done)
}

func TestLocker_WaitHonoursContext(t *testing.T) {
	l := memory.NewLocker()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- l.WithLock(context.Background(), 1, func(context.Context) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	called := false
	err := l.WithLock(ctx, 1, func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, called)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 0, l.Len())
}

func TestLocker_ReturnsFnError(t *testing.T) {
	l := memory.NewLocker()
	boom := errors.New("boom")
	err := l.WithLock(context.Background(), 3, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	// The lock is free again.
	require.NoError(t, l.WithLock(context.Background(), 3, func(context.Context) error { return nil }))
}
