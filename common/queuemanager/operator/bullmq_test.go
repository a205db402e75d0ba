package operator

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

func seedBullMQ(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()

	// emails: 2 waiting, 1 active, 3 failed, 1 completed
	mr.HSet("bull:emails:meta", "opts.maxLenEvents", "10000")
	mr.Set("bull:emails:id", "7")
	_, _ = mr.Lpush("bull:emails:wait", "1")
	_, _ = mr.Lpush("bull:emails:wait", "2")
	_, _ = mr.Lpush("bull:emails:active", "3")
	for i, id := range []string{"4", "5", "6"} {
		_, _ = mr.ZAdd("bull:emails:failed", float64(1000+i), id)
	}
	_, _ = mr.ZAdd("bull:emails:completed", 900, "7")

	for i := 1; i <= 7; i++ {
		id := strconv.Itoa(i)
		mr.HSet("bull:emails:"+id,
			"name", "send-welcome",
			"data", `{"to":"user`+id+`@example.com"}`,
			"timestamp", strconv.Itoa(1700000000000+i),
			"attemptsMade", "1",
		)
	}
	mr.HSet("bull:emails:4", "failedReason", "smtp timeout", "finishedOn", "1700000001000", "attemptsMade", "3")

	// reports: 仅有 id 键
	mr.Set("bull:reports:id", "0")
	_, _ = mr.ZAdd("bull:reports:delayed", 10, "1")
	mr.HSet("bull:reports:1", "name", "daily", "data", "{}", "timestamp", "1700000000000")

	// 其他前缀不应被发现
	mr.Set("other:misc:id", "1")
}

func newTestBullMQ(t *testing.T) (*BullMQProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	seedBullMQ(t, mr)

	p, err := NewBullMQProvider(types.ProviderConfig{
		Name:       "main",
		Type:       types.ProviderTypeBullMQ,
		Connection: map[string]string{"addr": mr.Addr()},
	})
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	t.Cleanup(func() { _ = p.Disconnect(context.Background()) })
	return p, mr
}

func TestNewBullMQProviderValidatesConnection(t *testing.T) {
	_, err := NewBullMQProvider(types.ProviderConfig{Name: "x", Type: types.ProviderTypeBullMQ})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrConnection)

	_, err = NewBullMQProvider(types.ProviderConfig{
		Name:       "x",
		Connection: map[string]string{"addr": "127.0.0.1:6379", "db": "abc"},
	})
	assert.ErrorIs(t, err, types.ErrConnection)
}

func TestBullMQConnectUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	p, err := NewBullMQProvider(types.ProviderConfig{Name: "down", Connection: map[string]string{"addr": addr}})
	require.NoError(t, err)

	err = p.Connect(context.Background())
	assert.ErrorIs(t, err, types.ErrConnection)
	assert.False(t, p.IsHealthy(context.Background()))
}

func TestBullMQHealthAndDisconnect(t *testing.T) {
	p, mr := newTestBullMQ(t)
	ctx := context.Background()

	assert.True(t, p.IsHealthy(ctx))
	assert.Equal(t, "main", p.DisplayName())

	mr.SetError("server down")
	assert.False(t, p.IsHealthy(ctx))
	mr.SetError("")

	require.NoError(t, p.Disconnect(ctx))
	require.NoError(t, p.Disconnect(ctx))
	assert.False(t, p.IsHealthy(ctx))
}

func TestBullMQListQueues(t *testing.T) {
	p, _ := newTestBullMQ(t)

	queues, err := p.ListQueues(context.Background())
	require.NoError(t, err)
	require.Len(t, queues, 2)

	assert.Equal(t, "emails", queues[0].Name)
	assert.Equal(t, types.StateCounts{Waiting: 2, Active: 1, Completed: 1, Failed: 3}, queues[0].Counts)
	assert.EqualValues(t, 7, queues[0].Counts.Total())

	assert.Equal(t, "reports", queues[1].Name)
	assert.EqualValues(t, 1, queues[1].Counts.Delayed)
}

func TestBullMQGetFailedJobs(t *testing.T) {
	p, _ := newTestBullMQ(t)

	jobs, err := p.GetJobs(context.Background(), types.JobQuery{Queue: "emails", Status: types.StatusFailed, Limit: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	for _, job := range jobs {
		assert.Equal(t, types.StatusFailed, job.State)
		assert.Equal(t, "emails", job.Queue)
	}
	// 按分数倒序
	assert.Equal(t, "6", jobs[0].ID)
	assert.Equal(t, "5", jobs[1].ID)

	all, err := p.GetJobs(context.Background(), types.JobQuery{Queue: "emails", Status: types.StatusFailed, Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 3)
	last := all[2]
	assert.Equal(t, "4", last.ID)
	assert.Equal(t, "smtp timeout", last.FailedReason)
	assert.Equal(t, 3, last.Attempts)
	require.NotNil(t, last.FinishedAt)
	assert.EqualValues(t, 1700000001000, last.FinishedAt.UnixMilli())
	assert.True(t, strings.Contains(last.PayloadSummary, "user4@example.com"))
}

func TestBullMQGetJobsAllStatusesRespectsLimit(t *testing.T) {
	p, _ := newTestBullMQ(t)

	jobs, err := p.GetJobs(context.Background(), types.JobQuery{Queue: "emails", Limit: 4})
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	assert.Equal(t, types.StatusWaiting, jobs[0].State)
	assert.Equal(t, types.StatusWaiting, jobs[1].State)
	assert.Equal(t, types.StatusActive, jobs[2].State)
	assert.Equal(t, types.StatusCompleted, jobs[3].State)
	assert.Empty(t, jobs[0].FailedReason)
}

func TestBullMQSkipsRemovedJobData(t *testing.T) {
	p, mr := newTestBullMQ(t)
	mr.Del("bull:emails:5")

	jobs, err := p.GetJobs(context.Background(), types.JobQuery{Queue: "emails", Status: types.StatusFailed, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
}

func TestBullMQUnknownQueueIsEmpty(t *testing.T) {
	p, _ := newTestBullMQ(t)

	jobs, err := p.GetJobs(context.Background(), types.JobQuery{Queue: "nope", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
