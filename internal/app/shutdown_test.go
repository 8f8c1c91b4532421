package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestShutdownHandler_ReverseOrder(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), time.Second)

	var mu sync.Mutex
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}

	sh.AddFunc("first", record("first"))
	sh.AddFunc("second", record("second"))
	sh.Add("third", closerFunc(func() error { return record("third")(context.Background()) }))

	require.NoError(t, sh.Shutdown(context.Background()))
	assert.Equal(t, []string{"third", "second", "first"}, order)
}

func TestShutdownHandler_CollectsErrors(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), time.Second)

	closed := false
	sh.AddFunc("ok", func(context.Context) error { closed = true; return nil })
	sh.AddFunc("broken", func(context.Context) error { return errors.New("boom") })

	err := sh.Shutdown(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken: boom")
	assert.True(t, closed)
}

func TestShutdownHandler_Timeout(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), 20*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	sh.AddFunc("stuck", func(context.Context) error { <-release; return nil })

	err := sh.Shutdown(context.Background())
	assert.ErrorContains(t, err, "stuck: shutdown timeout")
}

func TestShutdownHandler_RunsOnce(t *testing.T) {
	sh := NewShutdownHandler(zaptest.NewLogger(t), time.Second)

	calls := 0
	sh.AddFunc("svc", func(context.Context) error { calls++; return nil })

	require.NoError(t, sh.Shutdown(context.Background()))
	require.NoError(t, sh.Shutdown(context.Background()))
	assert.Equal(t, 1, calls)
}
