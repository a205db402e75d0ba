package queuemanager

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

type fakeProvider struct {
	name       string
	connectErr error
	connDelay  time.Duration

	healthy    atomic.Bool
	connects   atomic.Int32
	disconnect atomic.Int32
	dispatches atomic.Int32

	queues []types.QueueDescriptor
	jobs   []types.Job
}

func (f *fakeProvider) Name() string             { return f.name }
func (f *fakeProvider) Type() types.ProviderType { return types.ProviderTypeBullMQ }
func (f *fakeProvider) DisplayName() string      { return "Fake " + f.name }

func (f *fakeProvider) Connect(ctx context.Context) error {
	f.connects.Add(1)
	if f.connDelay > 0 {
		time.Sleep(f.connDelay)
	}
	return f.connectErr
}

func (f *fakeProvider) Disconnect(ctx context.Context) error {
	f.disconnect.Add(1)
	return nil
}

func (f *fakeProvider) IsHealthy(ctx context.Context) bool { return f.healthy.Load() }

func (f *fakeProvider) ListQueues(ctx context.Context) ([]types.QueueDescriptor, error) {
	f.dispatches.Add(1)
	return f.queues, nil
}

func (f *fakeProvider) GetJobs(ctx context.Context, q types.JobQuery) ([]types.Job, error) {
	f.dispatches.Add(1)
	out := make([]types.Job, 0, len(f.jobs))
	for _, j := range f.jobs {
		if q.Status == "" || j.State == q.Status {
			out = append(out, j)
		}
	}
	// 故意不截断，由注册表保证 limit
	return out, nil
}

type fakeFactory struct {
	mu        sync.Mutex
	providers map[string]*fakeProvider
	creates   int
}

func (f *fakeFactory) Create(cfg types.ProviderConfig) (types.QueueProvider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	p, ok := f.providers[cfg.Name]
	if !ok {
		return nil, types.ErrUnsupportedProviderType
	}
	return p, nil
}

func newFake(name string, healthy bool) *fakeProvider {
	p := &fakeProvider{name: name}
	p.healthy.Store(healthy)
	return p
}

func failedJobs(n int) []types.Job {
	jobs := make([]types.Job, 0, n*2)
	for i := 0; i < n; i++ {
		jobs = append(jobs,
			types.Job{ID: "f" + strconv.Itoa(i), Queue: "emails", State: types.StatusFailed},
			types.Job{ID: "c" + strconv.Itoa(i), Queue: "emails", State: types.StatusCompleted},
		)
	}
	return jobs
}

func newTestRegistry(providers ...*fakeProvider) (*Registry, *fakeFactory) {
	factory := &fakeFactory{providers: make(map[string]*fakeProvider)}
	configs := make([]types.ProviderConfig, 0, len(providers))
	for _, p := range providers {
		factory.providers[p.name] = p
		configs = append(configs, types.ProviderConfig{Name: p.name, Type: types.ProviderTypeBullMQ})
	}
	return NewRegistry(configs, factory), factory
}

func TestExecuteQueryFailedJobsWithinLimit(t *testing.T) {
	main := newFake("main", true)
	main.jobs = failedJobs(30)
	reg, _ := newTestRegistry(main)

	query, err := ParseQueueQuery([]byte(`{"provider":"main","queue":"emails","status":"failed"}`))
	require.NoError(t, err)

	res, err := reg.ExecuteQuery(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, types.ResultKindJobs, res.Kind)
	assert.Equal(t, "emails", res.Queue)
	assert.Len(t, res.Jobs, 20)
	assert.Equal(t, 20, res.Count)
	for _, j := range res.Jobs {
		assert.Equal(t, types.StatusFailed, j.State)
	}
}

func TestExecuteQueryListsQueuesWithoutQueue(t *testing.T) {
	main := newFake("main", true)
	main.queues = []types.QueueDescriptor{{Name: "emails"}, {Name: "reports"}}
	reg, _ := newTestRegistry(main)

	res, err := reg.ExecuteQuery(context.Background(), types.QueueQuery{Provider: "main"})
	require.NoError(t, err)
	assert.Equal(t, types.ResultKindQueues, res.Kind)
	assert.Equal(t, 2, res.Count)
	assert.Empty(t, res.Jobs)
}

func TestExecuteQueryUnhealthyNeverDispatches(t *testing.T) {
	main := newFake("main", false)
	main.jobs = failedJobs(3)
	reg, _ := newTestRegistry(main)

	_, err := reg.ExecuteQuery(context.Background(), types.QueueQuery{Provider: "main", Queue: "emails", Limit: 5})
	assert.ErrorIs(t, err, types.ErrProviderUnhealthy)
	_, err = reg.ExecuteQuery(context.Background(), types.QueueQuery{Provider: "main"})
	assert.ErrorIs(t, err, types.ErrProviderUnhealthy)
	assert.Zero(t, main.dispatches.Load())

	// 恢复健康后无需重新初始化
	main.healthy.Store(true)
	_, err = reg.ExecuteQuery(context.Background(), types.QueueQuery{Provider: "main", Queue: "emails", Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 1, main.dispatches.Load())
}

func TestExecuteQueryProviderNotFound(t *testing.T) {
	reg, _ := newTestRegistry(newFake("main", true))

	_, err := reg.ExecuteQuery(context.Background(), types.QueueQuery{Provider: "ghost"})
	assert.ErrorIs(t, err, types.ErrProviderNotFound)
}

func TestInitializeConcurrentConnectsOnce(t *testing.T) {
	main := newFake("main", true)
	main.connDelay = 50 * time.Millisecond
	reg, factory := newTestRegistry(main)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Initialize(context.Background())
		}()
	}
	wg.Wait()

	assert.True(t, reg.IsInitialized())
	assert.EqualValues(t, 1, main.connects.Load())
	assert.Equal(t, 1, factory.creates)

	reg.Initialize(context.Background())
	assert.EqualValues(t, 1, main.connects.Load())
}

func TestInitializeIsolatesFailures(t *testing.T) {
	good := newFake("good", true)
	bad := newFake("bad", true)
	bad.connectErr = errors.New("dial tcp: refused")

	factory := &fakeFactory{providers: map[string]*fakeProvider{"good": good, "bad": bad}}
	reg := NewRegistry([]types.ProviderConfig{
		{Name: "bad"},
		{Name: "good"},
		{Name: "unknown-type"},
		{Name: "good"},
	}, factory)

	reg.Initialize(context.Background())

	_, ok := reg.GetProvider("good")
	assert.True(t, ok)
	_, ok = reg.GetProvider("bad")
	assert.False(t, ok)

	infos := reg.Providers(context.Background())
	require.Len(t, infos, 1)
	assert.Equal(t, types.ProviderInfo{Name: "good", Type: types.ProviderTypeBullMQ, DisplayName: "Fake good"}, infos[0])

	_, err := reg.ExecuteQuery(context.Background(), types.QueueQuery{Provider: "bad"})
	assert.ErrorIs(t, err, types.ErrProviderNotFound)
}

func TestDisconnectAllResets(t *testing.T) {
	a := newFake("a", true)
	b := newFake("b", true)
	reg, _ := newTestRegistry(a, b)
	ctx := context.Background()

	reg.Initialize(ctx)
	require.True(t, reg.IsInitialized())

	reg.DisconnectAll(ctx)
	assert.False(t, reg.IsInitialized())
	assert.EqualValues(t, 1, a.disconnect.Load())
	assert.EqualValues(t, 1, b.disconnect.Load())
	_, ok := reg.GetProvider("a")
	assert.False(t, ok)

	// 下一次查询重新初始化
	_, err := reg.ExecuteQuery(ctx, types.QueueQuery{Provider: "a"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, a.connects.Load())
}

func TestExecuteReference(t *testing.T) {
	main := newFake("main", true)
	main.jobs = failedJobs(5)
	reg, _ := newTestRegistry(main)

	table := querymanager.QueueQueryTable{
		"ops": {
			"failed_emails": {Provider: "main", Queue: "emails", Status: types.StatusFailed, Limit: 3},
			"all_queues":    {Provider: "main"},
		},
	}

	res, err := reg.ExecuteReference(context.Background(), "queueQueries.ops.failed_emails", table)
	require.NoError(t, err)
	assert.Len(t, res.Jobs, 3)

	res, err = reg.ExecuteReference(context.Background(), "queueQueries.ops.all_queues", table)
	require.NoError(t, err)
	assert.Equal(t, types.ResultKindQueues, res.Kind)

	_, err = reg.ExecuteReference(context.Background(), "queueQueries.ops.missing", table)
	assert.ErrorIs(t, err, querymanager.ErrQueryNotFound)

	_, err = reg.ExecuteReference(context.Background(), "queueQueries.ops", table)
	assert.ErrorIs(t, err, querymanager.ErrReferenceFormat)
	_, err = reg.ExecuteReference(context.Background(), "queries.ops.failed_emails", table)
	assert.ErrorIs(t, err, querymanager.ErrReferenceFormat)
}
