package queuemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitorProbe(t *testing.T) {
	up := newFake("a-up", true)
	down := newFake("b-down", false)
	registry, _ := newTestRegistry(up, down)

	m := NewHealthMonitor(registry, "@every 1h")
	assert.Empty(t, m.Status())

	m.Probe(context.Background())
	status := m.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "a-up", status[0].Name)
	assert.True(t, status[0].Healthy)
	assert.Equal(t, "b-down", status[1].Name)
	assert.False(t, status[1].Healthy)
	assert.False(t, status[1].CheckedAt.IsZero())

	// 状态变化在下一次探测后可见
	down.healthy.Store(true)
	m.Probe(context.Background())
	assert.True(t, m.Status()[1].Healthy)
}

func TestHealthMonitorRejectsBadSpec(t *testing.T) {
	registry, _ := newTestRegistry(newFake("main", true))

	m := NewHealthMonitor(registry, "not a cron")
	assert.Error(t, m.Start())

	m = NewHealthMonitor(registry, "@every 30s")
	require.NoError(t, m.Start())
	m.Stop()
}
