package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReadinessAllComponentsReady(t *testing.T) {
	r := NewReadiness(zap.NewNop())

	r.AddComponent("producer")
	r.AddComponent("consumer-contact")
	assert.False(t, r.IsReady())

	r.MarkReady("producer")
	assert.False(t, r.IsReady())

	r.MarkReady("consumer-contact")
	assert.True(t, r.IsReady())
}

func TestReadinessStatus(t *testing.T) {
	r := NewReadiness(zap.NewNop())

	r.AddComponent("producer")
	r.AddComponent("consumer-contact")
	r.MarkReady("producer")

	status := r.Status()
	assert.False(t, status.Ready)
	require.Len(t, status.Components, 2)

	byName := map[string]ComponentStatus{}
	for _, c := range status.Components {
		byName[c.Name] = c
	}
	assert.True(t, byName["producer"].Ready)
	assert.False(t, byName["consumer-contact"].Ready)
}

func TestReadinessMarkReadyUnknownComponent(t *testing.T) {
	r := NewReadiness(zap.NewNop())

	r.AddComponent("producer")
	r.MarkReady("does-not-exist")
	assert.False(t, r.IsReady())
}

func TestReadinessWaitReady(t *testing.T) {
	r := NewReadiness(zap.NewNop())
	r.AddComponent("producer")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, r.WaitReady(ctx), context.DeadlineExceeded)

	r.MarkReady("producer")
	require.NoError(t, r.WaitReady(context.Background()))
}

func TestReadinessAddComponentIdempotent(t *testing.T) {
	r := NewReadiness(zap.NewNop())

	r.AddComponent("producer")
	r.MarkReady("producer")
	r.AddComponent("producer")

	assert.True(t, r.IsReady())
	assert.Len(t, r.Status().Components, 1)
}
