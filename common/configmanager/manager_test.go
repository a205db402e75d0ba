package configmanager

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanshicheng/kube-nova-board/common/configmanager/types"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/utils"
)

func newTestManager(t *testing.T, opts ...historymanager.Option) (*Manager, historymanager.Store) {
	t.Helper()
	store, err := historymanager.NewFileStore(t.TempDir())
	require.NoError(t, err)
	m := NewManager(store, opts...)
	require.NoError(t, m.Load(context.Background()))
	return m, store
}

func TestLoadCreatesBaseline(t *testing.T) {
	m, store := newTestManager(t)

	h := m.History().History()
	require.Equal(t, 1, h.Len())
	assert.Equal(t, historymanager.ChangeManual, h.Snapshots[0].ChangeType)
	assert.Equal(t, 0, h.CurrentIndex)

	// 再次加载不重复创建
	other := NewManager(store)
	require.NoError(t, other.Load(context.Background()))
	assert.Equal(t, 1, other.History().History().Len())
}

func TestSaveQueryEnforcesVersionSuffix(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.SaveQuery(ctx, "pods", "cpu_usage", "sum(x)")
	assert.ErrorIs(t, err, utils.ErrInvalidQueryName)
	_, err = m.SaveQuery(ctx, "pods", "cpu.usage_v1-0-0", "sum(x)")
	assert.ErrorIs(t, err, utils.ErrInvalidQueryName)
	_, err = m.SaveQuery(ctx, "pods", "cpu_usage_v1-0-0", " ")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, 1, m.History().History().Len())

	cfg, err := m.SaveQuery(ctx, "pods", "cpu_usage_v1-0-0", `sum(rate(cpu{namespace="{{namespace}}"}[5m]))`)
	require.NoError(t, err)
	tpl, ok := cfg.Queries.Get("pods", "cpu_usage_v1-0-0")
	require.True(t, ok)
	assert.Contains(t, tpl, "{{namespace}}")

	h := m.History().History()
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, historymanager.ChangeQueryEdit, h.Snapshots[1].ChangeType)
}

func TestUserQueryShadowsBaseAndDeleteReverts(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	base := querymanager.Catalog{"pods": {"cpu_v1-0-0": "base"}}

	_, err := m.SaveQuery(ctx, "pods", "cpu_v1-0-0", "user")
	require.NoError(t, err)
	tpl, _ := m.Library(base).Lookup("pods", "cpu_v1-0-0")
	assert.Equal(t, "user", tpl)

	_, err = m.DeleteQuery(ctx, "pods", "cpu_v1-0-0")
	require.NoError(t, err)
	tpl, _ = m.Library(base).Lookup("pods", "cpu_v1-0-0")
	assert.Equal(t, "base", tpl)

	_, err = m.DeleteQuery(ctx, "pods", "cpu_v1-0-0")
	assert.ErrorIs(t, err, querymanager.ErrQueryNotFound)
}

func TestQueueQueries(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.SaveQueueQuery(ctx, "ops", "failed", qtypes.QueueQuery{Provider: "main", Status: "broken"})
	assert.ErrorIs(t, err, qtypes.ErrInvalidQueueQuery)

	_, err = m.SaveQueueQuery(ctx, "ops", "failed", qtypes.QueueQuery{Provider: "main", Queue: "emails", Status: qtypes.StatusFailed})
	require.NoError(t, err)

	table := m.QueueQueryTable(nil)
	q, ok := table.Get("ops", "failed")
	require.True(t, ok)
	assert.Equal(t, 20, q.Limit)

	_, err = m.DeleteQueueQuery(ctx, "ops", "failed")
	require.NoError(t, err)
	_, ok = m.QueueQueryTable(nil).Get("ops", "failed")
	assert.False(t, ok)
}

func TestPageAndWidgetEditsWithUndoRedo(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	cfg, err := m.AddPage(ctx, types.Page{ID: "overview", Title: "Overview"})
	require.NoError(t, err)
	require.Len(t, cfg.Pages, 1)

	_, err = m.AddPage(ctx, types.Page{ID: "overview"})
	assert.ErrorIs(t, err, ErrPageExists)

	cfg, err = m.UpsertWidget(ctx, "overview", types.Widget{
		ID:       "cpu",
		Title:    "CPU",
		Type:     "timeseries",
		QueryRef: "queries.pods.cpu_v1-0-0",
		Layout:   types.Layout{W: 6, H: 4},
	})
	require.NoError(t, err)
	require.Len(t, cfg.Pages[0].Widgets, 1)

	_, err = m.UpsertWidget(ctx, "overview", types.Widget{ID: "bad", QueryRef: "a.b.c"})
	assert.ErrorIs(t, err, querymanager.ErrReferenceFormat)
	_, err = m.UpsertWidget(ctx, "missing", types.Widget{ID: "x"})
	assert.ErrorIs(t, err, ErrPageNotFound)

	cfg, err = m.MoveWidget(ctx, "overview", "cpu", types.Layout{X: 6, Y: 0, W: 6, H: 4}, "")
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Pages[0].Widgets[0].Layout.X)

	_, err = m.MoveWidget(ctx, "overview", "ghost", types.Layout{}, "")
	assert.ErrorIs(t, err, ErrWidgetNotFound)

	// baseline + page-add + widget + move
	h := m.History().History()
	require.Equal(t, 4, h.Len())
	assert.Equal(t, historymanager.ChangePageAdd, h.Snapshots[1].ChangeType)
	assert.Equal(t, historymanager.ChangeLayoutEdit, h.Snapshots[3].ChangeType)

	res, err := m.Undo(ctx)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, 0, m.Current().Pages[0].Widgets[0].Layout.X)

	res, err = m.Undo(ctx)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Empty(t, m.Current().Pages[0].Widgets)

	res, err = m.Redo(ctx)
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Len(t, m.Current().Pages[0].Widgets, 1)

	cfg, err = m.RemoveWidget(ctx, "overview", "cpu")
	require.NoError(t, err)
	assert.Empty(t, cfg.Pages[0].Widgets)
	assert.False(t, m.History().CanRedo())

	cfg, err = m.RemovePage(ctx, "overview")
	require.NoError(t, err)
	assert.Empty(t, cfg.Pages)
	assert.Equal(t, historymanager.ChangePageRemove, m.History().History().Snapshots[m.History().History().CurrentIndex].ChangeType)
}

func TestMoveWidgetAcrossPages(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddPage(ctx, types.Page{ID: "a", Widgets: []types.Widget{{ID: "w1"}, {ID: "w2"}}})
	require.NoError(t, err)
	_, err = m.AddPage(ctx, types.Page{ID: "b"})
	require.NoError(t, err)

	cfg, err := m.MoveWidget(ctx, "a", "w1", types.Layout{X: 1}, "b")
	require.NoError(t, err)
	require.Len(t, cfg.Pages[0].Widgets, 1)
	assert.Equal(t, "w2", cfg.Pages[0].Widgets[0].ID)
	require.Len(t, cfg.Pages[1].Widgets, 1)
	assert.Equal(t, "w1", cfg.Pages[1].Widgets[0].ID)
	assert.Equal(t, 1, cfg.Pages[1].Widgets[0].Layout.X)
}

func TestRestoreDoesNotSnapshot(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddPage(ctx, types.Page{ID: "p1"})
	require.NoError(t, err)
	_, err = m.AddPage(ctx, types.Page{ID: "p2"})
	require.NoError(t, err)

	first := m.History().History().Snapshots[0]
	res, err := m.Restore(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, m.Current().Pages)
	assert.Equal(t, 3, m.History().History().Len())
	assert.Equal(t, 0, m.History().History().CurrentIndex)

	_, err = m.Restore(ctx, "nope")
	assert.ErrorIs(t, err, historymanager.ErrSnapshotNotFound)
}

func TestDeleteCurrentSnapshotAppliesPredecessor(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddPage(ctx, types.Page{ID: "p1"})
	require.NoError(t, err)
	cur := m.History().History()

	res, err := m.DeleteSnapshot(ctx, cur.Snapshots[cur.CurrentIndex].ID)
	require.NoError(t, err)
	require.NotNil(t, res.Snapshot)
	assert.Empty(t, m.Current().Pages)
	assert.Equal(t, 0, m.History().History().CurrentIndex)
}

func TestImportAndSnapshot(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	bad := types.NewDashboardConfig()
	bad.Queries.Set("pods", "no_version", "x")
	_, err := m.Import(ctx, bad, "")
	assert.ErrorIs(t, err, utils.ErrInvalidQueryName)

	in := types.NewDashboardConfig()
	in.Title = "imported"
	in.Pages = []types.Page{{Title: "auto id"}}
	in.QueueQueries.Set("ops", "all", qtypes.QueueQuery{Provider: "main"})

	cfg, err := m.Import(ctx, in, "")
	require.NoError(t, err)
	assert.Equal(t, "imported", cfg.Title)
	assert.NotEmpty(t, cfg.Pages[0].ID)
	q, _ := cfg.QueueQueries.Get("ops", "all")
	assert.Equal(t, 20, q.Limit)

	snap, err := m.Snapshot(ctx, "checkpoint")
	require.NoError(t, err)
	assert.Equal(t, historymanager.ChangeManual, snap.ChangeType)
	assert.Equal(t, "imported", snap.Config.Title)

	h := m.History().History()
	assert.Equal(t, historymanager.ChangeImport, h.Snapshots[1].ChangeType)
	assert.Equal(t, "导入配置", h.Snapshots[1].Label)
}

func TestPersistedAcrossInstances(t *testing.T) {
	m, store := newTestManager(t)
	ctx := context.Background()

	_, err := m.AddPage(ctx, types.Page{ID: "p1", Title: "First"})
	require.NoError(t, err)

	other := NewManager(store)
	require.NoError(t, other.Load(ctx))
	require.Len(t, other.Current().Pages, 1)
	assert.Equal(t, 2, other.History().History().Len())

	_, err = m.AddPage(ctx, types.Page{ID: "p2"})
	require.NoError(t, err)
	require.NoError(t, other.Reload(ctx))
	assert.Len(t, other.Current().Pages, 2)
	assert.Equal(t, 3, other.History().History().Len())
}

func TestCurrentIsCopy(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.AddPage(context.Background(), types.Page{ID: "p1", Title: "T"})
	require.NoError(t, err)

	cfg := m.Current()
	cfg.Pages[0].Title = "changed"
	assert.Equal(t, "T", m.Current().Pages[0].Title)
}

func TestSavedQueryInNamespaceNamedQueriesResolves(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.SaveQuery(ctx, "queries", "cpu_v1-0-0", "sum(x)")
	require.NoError(t, err)

	resolved, err := querymanager.ResolveQuery("queries.cpu_v1-0-0", m.Library(nil), nil)
	require.NoError(t, err)
	assert.Equal(t, "queries", resolved.Namespace)
	assert.Equal(t, "sum(x)", resolved.Template)
}

// failingStore 对指定键的写入返回错误
type failingStore struct {
	historymanager.Store
	mu      sync.Mutex
	failKey string
}

func (s *failingStore) failOn(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKey = key
}

func (s *failingStore) Save(ctx context.Context, key string, v any) error {
	s.mu.Lock()
	fail := s.failKey != "" && s.failKey == key
	s.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return s.Store.Save(ctx, key, v)
}

func newFailingManager(t *testing.T) (*Manager, *failingStore) {
	t.Helper()
	inner, err := historymanager.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := &failingStore{Store: inner}
	m := NewManager(store)
	require.NoError(t, m.Load(context.Background()))
	return m, store
}

func TestRestoreWithFailingHistorySaveKeepsStateConsistent(t *testing.T) {
	ctx := context.Background()
	m, store := newFailingManager(t)
	baseline := m.History().History().Snapshots[0].ID

	_, err := m.AddPage(ctx, types.Page{ID: "p1", Title: "p1"})
	require.NoError(t, err)

	store.failOn(historymanager.HistoryKey())
	_, err = m.Restore(ctx, baseline)
	require.Error(t, err)

	h := m.History().History()
	assert.Equal(t, 1, h.CurrentIndex)
	assert.Len(t, h.Snapshots[h.CurrentIndex].Config.Pages, 1)
	assert.Len(t, m.Current().Pages, 1)

	_, err = m.Undo(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, m.History().History().CurrentIndex)
	assert.Len(t, m.Current().Pages, 1)
}

func TestEditWithFailingHistorySaveChangesNothing(t *testing.T) {
	ctx := context.Background()
	m, store := newFailingManager(t)

	store.failOn(historymanager.HistoryKey())
	_, err := m.AddPage(ctx, types.Page{ID: "p1", Title: "p1"})
	require.Error(t, err)

	assert.Empty(t, m.Current().Pages)
	assert.Equal(t, 1, m.History().History().Len())
}

func TestEditWithFailingConfigSaveRollsBackHistory(t *testing.T) {
	ctx := context.Background()
	m, store := newFailingManager(t)

	store.failOn(LiveConfigKey())
	_, err := m.AddPage(ctx, types.Page{ID: "p1", Title: "p1"})
	require.Error(t, err)

	assert.Empty(t, m.Current().Pages)
	assert.Equal(t, 1, m.History().History().Len())

	// 持久化的历史也已回滚
	store.failOn("")
	other := NewManager(store.Store)
	require.NoError(t, other.Load(ctx))
	assert.Equal(t, 1, other.History().History().Len())
	assert.Empty(t, other.Current().Pages)
}

func TestUndoWithFailingConfigSaveKeepsPointer(t *testing.T) {
	ctx := context.Background()
	m, store := newFailingManager(t)

	_, err := m.AddPage(ctx, types.Page{ID: "p1", Title: "p1"})
	require.NoError(t, err)

	store.failOn(LiveConfigKey())
	_, err = m.Undo(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, m.History().History().CurrentIndex)
	assert.Len(t, m.Current().Pages, 1)

	_, err = m.DeleteSnapshot(ctx, m.History().History().Snapshots[1].ID)
	require.Error(t, err)
	assert.Equal(t, 2, m.History().History().Len())
	assert.Len(t, m.Current().Pages, 1)

	store.failOn("")
	res, err := m.Undo(ctx)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, m.Current().Pages)
}
