package operator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func kubeJob(ns, name string, created time.Time, mutate func(*batchv1.Job)) *batchv1.Job {
	job := &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Namespace:         ns,
			Name:              name,
			CreationTimestamp: metav1.NewTime(created),
		},
		Spec: batchv1.JobSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{
					Containers: []corev1.Container{{
						Name:    "main",
						Image:   "busybox:1.36",
						Command: []string{"sh", "-c", "echo hi"},
					}},
				},
			},
		},
	}
	if mutate != nil {
		mutate(job)
	}
	return job
}

func failedCondition(reason, message string) batchv1.JobCondition {
	return batchv1.JobCondition{
		Type:    batchv1.JobFailed,
		Status:  corev1.ConditionTrue,
		Reason:  reason,
		Message: message,
	}
}

func newTestKubeJobs(t *testing.T, conn map[string]string) *KubernetesJobsProvider {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	suspend := true

	client := fake.NewSimpleClientset(
		kubeJob("batch", "import-1", base, func(j *batchv1.Job) {
			j.Status.Conditions = []batchv1.JobCondition{failedCondition("BackoffLimitExceeded", "Job has reached the specified backoff limit")}
			j.Status.Failed = 4
		}),
		kubeJob("batch", "import-2", base.Add(time.Minute), func(j *batchv1.Job) {
			j.Status.Conditions = []batchv1.JobCondition{failedCondition("DeadlineExceeded", "")}
			j.Status.Failed = 1
		}),
		kubeJob("batch", "import-3", base.Add(2*time.Minute), func(j *batchv1.Job) {
			j.Status.Active = 1
			start := metav1.NewTime(base.Add(2 * time.Minute))
			j.Status.StartTime = &start
		}),
		kubeJob("batch", "import-4", base.Add(3*time.Minute), func(j *batchv1.Job) {
			j.Spec.Suspend = &suspend
		}),
		kubeJob("reports", "daily-29000", base, func(j *batchv1.Job) {
			j.OwnerReferences = []metav1.OwnerReference{{Kind: "CronJob", Name: "daily"}}
			j.Status.Conditions = []batchv1.JobCondition{{Type: batchv1.JobComplete, Status: corev1.ConditionTrue}}
			j.Status.Succeeded = 1
			done := metav1.NewTime(base.Add(time.Minute))
			j.Status.CompletionTime = &done
		}),
		kubeJob("reports", "adhoc", base.Add(time.Hour), nil),
	)

	if conn == nil {
		conn = map[string]string{"authType": "incluster"}
	}
	p, err := NewKubernetesJobsProvider(types.ProviderConfig{
		Name:        "cluster",
		Type:        types.ProviderTypeKubernetesJobs,
		DisplayName: "Cluster Jobs",
		Connection:  conn,
	}, WithKubernetesClient(client))
	require.NoError(t, err)
	require.NoError(t, p.Connect(context.Background()))
	return p
}

func TestParseKubeConnection(t *testing.T) {
	tests := []struct {
		name    string
		params  map[string]string
		want    AuthType
		wantErr bool
	}{
		{name: "默认集群内", params: nil, want: AuthTypeInCluster},
		{name: "推断 kubeconfig", params: map[string]string{"kubeconfig": "/tmp/kc"}, want: AuthTypeKubeConfig},
		{name: "推断 token", params: map[string]string{"token": "t", "apiServer": "https://k8s:6443"}, want: AuthTypeToken},
		{name: "token 缺少地址", params: map[string]string{"authType": "token", "token": "t"}, wantErr: true},
		{name: "kubeconfig 缺少内容", params: map[string]string{"authType": "kubeconfig"}, wantErr: true},
		{name: "未知类型", params: map[string]string{"authType": "oidc"}, wantErr: true},
		{name: "insecure 非法", params: map[string]string{"insecure": "maybe"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, err := parseKubeConnection(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, conn.AuthType)
		})
	}
}

func TestBuildRESTConfigToken(t *testing.T) {
	cfg, err := buildRESTConfig(kubeConnection{
		AuthType:  AuthTypeToken,
		APIServer: "https://k8s.example:6443",
		Token:     "abc",
		Insecure:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://k8s.example:6443", cfg.Host)
	assert.Equal(t, "abc", cfg.BearerToken)
	assert.True(t, cfg.TLSClientConfig.Insecure)
	assert.NotZero(t, cfg.Timeout)
}

func TestNewKubernetesJobsProviderInvalid(t *testing.T) {
	_, err := NewKubernetesJobsProvider(types.ProviderConfig{
		Name:       "bad",
		Connection: map[string]string{"authType": "token"},
	})
	assert.ErrorIs(t, err, types.ErrConnection)
}

func TestKubeJobsListQueues(t *testing.T) {
	p := newTestKubeJobs(t, nil)
	ctx := context.Background()

	assert.True(t, p.IsHealthy(ctx))
	assert.Equal(t, "Cluster Jobs", p.DisplayName())

	queues, err := p.ListQueues(ctx)
	require.NoError(t, err)
	require.Len(t, queues, 2)

	assert.Equal(t, "batch", queues[0].Name)
	assert.Equal(t, types.StateCounts{Failed: 2, Active: 1, Delayed: 1}, queues[0].Counts)
	assert.Equal(t, "reports", queues[1].Name)
	assert.Equal(t, types.StateCounts{Completed: 1, Waiting: 1}, queues[1].Counts)
}

func TestKubeJobsGetFailed(t *testing.T) {
	p := newTestKubeJobs(t, nil)

	jobs, err := p.GetJobs(context.Background(), types.JobQuery{Queue: "batch", Status: types.StatusFailed, Limit: 20})
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	// 最新创建的在前
	assert.Equal(t, "import-2", jobs[0].ID)
	assert.Equal(t, "DeadlineExceeded", jobs[0].FailedReason)
	assert.Equal(t, "import-1", jobs[1].ID)
	assert.Equal(t, "BackoffLimitExceeded: Job has reached the specified backoff limit", jobs[1].FailedReason)
	assert.Equal(t, 4, jobs[1].Attempts)
	assert.Equal(t, "busybox:1.36 sh -c echo hi", jobs[1].PayloadSummary)
	for _, job := range jobs {
		assert.Equal(t, types.StatusFailed, job.State)
	}
}

func TestKubeJobsGetJobsLimitAndFields(t *testing.T) {
	p := newTestKubeJobs(t, nil)
	ctx := context.Background()

	jobs, err := p.GetJobs(ctx, types.JobQuery{Queue: "batch", Limit: 2})
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "import-4", jobs[0].ID)
	assert.Equal(t, types.StatusDelayed, jobs[0].State)
	assert.Equal(t, types.StatusActive, jobs[1].State)
	require.NotNil(t, jobs[1].ProcessedAt)

	reports, err := p.GetJobs(ctx, types.JobQuery{Queue: "reports", Status: types.StatusCompleted, Limit: 5})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "daily", reports[0].Name)
	require.NotNil(t, reports[0].FinishedAt)
}

func TestKubeJobsNamespaceScoped(t *testing.T) {
	p := newTestKubeJobs(t, map[string]string{"authType": "incluster", "namespace": "reports"})
	ctx := context.Background()

	queues, err := p.ListQueues(ctx)
	require.NoError(t, err)
	require.Len(t, queues, 1)
	assert.Equal(t, "reports", queues[0].Name)

	jobs, err := p.GetJobs(ctx, types.JobQuery{Queue: "batch", Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestKubeJobsDisconnect(t *testing.T) {
	p := newTestKubeJobs(t, nil)
	ctx := context.Background()

	require.NoError(t, p.Disconnect(ctx))
	assert.False(t, p.IsHealthy(ctx))

	_, err := p.ListQueues(ctx)
	assert.ErrorIs(t, err, types.ErrConnection)
}
