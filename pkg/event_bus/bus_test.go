package event_bus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBus_EmitOrder(t *testing.T) {
	b := New()
	var calls []string

	b.On("message", func(ctx context.Context, args ...any) error {
		calls = append(calls, "first")
		require.Equal(t, []any{"a", 1}, args)
		return nil
	})
	b.On("message", func(ctx context.Context, args ...any) error {
		calls = append(calls, "second")
		return nil
	})
	b.On("other", func(ctx context.Context, args ...any) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, b.Emit(context.Background(), "message", "a", 1))
	require.Equal(t, []string{"first", "second"}, calls)
	require.Equal(t, 2, b.Listeners("message"))
	require.Equal(t, 0, b.Listeners("missing"))
}

func TestBus_EmitNoListeners(t *testing.T) {
	require.NoError(t, New().Emit(context.Background(), "nothing"))
}

func TestBus_ErrorsJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	ran := 0

	b.On("ev", func(ctx context.Context, args ...any) error { ran++; return errA })
	b.On("ev", func(ctx context.Context, args ...any) error { ran++; return errB })

	err := b.Emit(context.Background(), "ev")
	require.Equal(t, 2, ran)
	require.True(t, errors.Is(err, errA))
	require.True(t, errors.Is(err, errB))
}

func TestBus_ZeroValue(t *testing.T) {
	var b Bus
	fired := false
	b.On("ev", func(ctx context.Context, args ...any) error { fired = true; return nil })
	require.NoError(t, b.Emit(context.Background(), "ev"))
	require.True(t, fired)
}
