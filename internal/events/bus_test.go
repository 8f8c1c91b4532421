package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

func TestBus_PublishRunsHandlersInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))

	var calls []string
	bus.SubscribeFunc(domain.KindSwap, func(_ context.Context, ev domain.Event) error {
		calls = append(calls, "first:"+ev.Key)
		return nil
	})
	bus.SubscribeFunc(domain.KindSwap, func(_ context.Context, ev domain.Event) error {
		calls = append(calls, "second:"+ev.Key)
		return nil
	})
	bus.SubscribeFunc(domain.KindFreezeAccount, func(context.Context, domain.Event) error {
		calls = append(calls, "freeze")
		return nil
	})

	require.NoError(t, bus.Publish(context.Background(), domain.Event{Kind: domain.KindSwap, Key: "PoolA"}))
	assert.Equal(t, []string{"first:PoolA", "second:PoolA"}, calls)
}

func TestBus_ErrorsAndPanicsDoNotStopChain(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))

	boom := errors.New("boom")
	reached := false
	bus.SubscribeFunc(domain.KindSwap, func(context.Context, domain.Event) error { return boom })
	bus.SubscribeFunc(domain.KindSwap, func(context.Context, domain.Event) error { panic("handler bug") })
	bus.SubscribeFunc(domain.KindSwap, func(context.Context, domain.Event) error {
		reached = true
		return nil
	})

	err := bus.Publish(context.Background(), domain.Event{Kind: domain.KindSwap})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "handler panic")
	assert.True(t, reached)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))

	count := 0
	subs := bus.SubscribeAll(LiquidityKinds, HandlerFunc(func(context.Context, domain.Event) error {
		count++
		return nil
	}))
	require.Len(t, subs, 2)

	_ = bus.Publish(context.Background(), domain.Event{Kind: domain.KindSwap})
	_ = bus.Publish(context.Background(), domain.Event{Kind: domain.KindLiquidityRemoved})
	assert.Equal(t, 2, count)

	for _, s := range subs {
		s.Unsubscribe()
	}
	_ = bus.Publish(context.Background(), domain.Event{Kind: domain.KindSwap})
	assert.Equal(t, 2, count)
}
