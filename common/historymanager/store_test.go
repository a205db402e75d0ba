package historymanager

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cfgtypes "github.com/yanshicheng/kube-nova-board/common/configmanager/types"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

func sampleHistory() History {
	cfg := cfgtypes.NewDashboardConfig()
	cfg.Title = "ops"
	cfg.Queries.Set("pods", "cpu_v1-0-0", `sum(rate(container_cpu_usage_seconds_total{namespace="{{namespace}}"}[5m]))`)
	return History{
		Snapshots: []Snapshot{
			{ID: "a", Timestamp: 1, ChangeType: ChangeManual, Config: cfg},
			{ID: "b", Timestamp: 2, ChangeType: ChangeQueryEdit, Label: "cpu", Config: cfg.DeepCopy()},
		},
		CurrentIndex: 1,
	}
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rds := redis.MustNewRedis(redis.RedisConf{Host: mr.Addr(), Type: redis.NodeType})
	return mr, rds
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(filepath.Join(dir, "data"))
	require.NoError(t, err)
	ctx := context.Background()

	var h History
	found, err := store.Load(ctx, HistoryKey(), &h)
	require.NoError(t, err)
	assert.False(t, found)

	want := sampleHistory()
	require.NoError(t, store.Save(ctx, HistoryKey(), want))

	found, err = store.Load(ctx, HistoryKey(), &h)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, h)

	// 不残留临时文件
	entries, err := os.ReadDir(filepath.Join(dir, "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStoreCorrupted(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(store.path("k"), []byte("{not json"), 0o644))

	var h History
	_, err = store.Load(context.Background(), "k", &h)
	assert.Error(t, err)

	_, err = NewFileStore(" ")
	assert.Error(t, err)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, rds := newMiniRedis(t)
	store := NewRedisStore(rds)
	ctx := context.Background()

	var h History
	found, err := store.Load(ctx, HistoryKey(), &h)
	require.NoError(t, err)
	assert.False(t, found)

	want := sampleHistory()
	require.NoError(t, store.Save(ctx, HistoryKey(), want))
	assert.True(t, mr.Exists(HistoryKey()))

	found, err = store.Load(ctx, HistoryKey(), &h)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, h)
}

func TestManagerWithRedisStore(t *testing.T) {
	_, rds := newMiniRedis(t)
	store := NewRedisStore(rds)
	live := &fakeLive{cfg: cfgtypes.NewDashboardConfig()}
	ctx := context.Background()

	m := NewManager(store, live)
	snapshotN(t, m, live, 3)

	other := NewManager(store, live)
	require.NoError(t, other.Load(ctx))
	assert.Equal(t, 3, other.History().Len())
	assert.Equal(t, 2, other.History().CurrentIndex)
}

func TestLocalBroadcasterUnsubscribe(t *testing.T) {
	b := NewLocalBroadcaster()
	ch, cancel := b.Subscribe(1)

	require.NoError(t, b.Publish(context.Background(), Event{Type: EventClear}))
	// 缓冲区满时不阻塞
	require.NoError(t, b.Publish(context.Background(), Event{Type: EventClear}))

	ev := <-ch
	assert.Equal(t, EventClear, ev.Type)
	assert.Equal(t, b.InstanceID(), ev.Source)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	require.NoError(t, b.Publish(context.Background(), Event{Type: EventClear}))
}

func TestRedisBroadcasterAcrossInstances(t *testing.T) {
	_, rds := newMiniRedis(t)

	a := NewRedisBroadcaster(rds)
	b := NewRedisBroadcaster(rds)
	t.Cleanup(a.Close)
	t.Cleanup(b.Close)

	remote := make(chan Event, 4)
	require.NoError(t, a.Start(func(ctx context.Context, ev Event) { remote <- ev }))
	require.NoError(t, b.Start(nil))

	events, cancel := a.Subscribe(4)
	defer cancel()

	require.NoError(t, b.Publish(context.Background(), Event{Type: EventSnapshot, SnapshotID: "s1", Length: 1}))

	select {
	case ev := <-remote:
		assert.Equal(t, "s1", ev.SnapshotID)
		assert.Equal(t, b.InstanceID(), ev.Source)
	case <-time.After(3 * time.Second):
		t.Fatal("未收到其他实例的事件")
	}

	select {
	case ev := <-events:
		assert.Equal(t, EventSnapshot, ev.Type)
	case <-time.After(3 * time.Second):
		t.Fatal("本地订阅者未收到事件")
	}

	// 自己发布的事件只在本地分发一次，不回调 onRemote
	require.NoError(t, a.Publish(context.Background(), Event{Type: EventClear}))
	ev := <-events
	assert.Equal(t, EventClear, ev.Type)
	select {
	case ev := <-remote:
		t.Fatalf("不应回调自己的事件: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}
