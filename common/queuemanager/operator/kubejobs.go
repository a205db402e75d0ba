package operator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/logx"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// AuthType Kubernetes 认证方式
type AuthType string

const (
	AuthTypeKubeConfig AuthType = "kubeconfig"
	AuthTypeToken      AuthType = "token"
	AuthTypeInCluster  AuthType = "incluster"
)

// kubeConnection kubernetes-jobs 连接参数
type kubeConnection struct {
	AuthType       AuthType
	KubeConfig     string // kubeconfig 文件路径
	KubeConfigData string // kubeconfig 内容
	APIServer      string
	Token          string
	Insecure       bool
	Namespace      string // 为空表示所有命名空间
	LabelSelector  string
}

func parseKubeConnection(params map[string]string) (kubeConnection, error) {
	conn := kubeConnection{
		AuthType:       AuthType(paramString(params, "authType", "")),
		KubeConfig:     paramString(params, "kubeconfig", ""),
		KubeConfigData: paramString(params, "kubeconfigData", ""),
		APIServer:      paramString(params, "apiServer", ""),
		Token:          paramString(params, "token", ""),
		Namespace:      paramString(params, "namespace", metav1.NamespaceAll),
		LabelSelector:  paramString(params, "labelSelector", ""),
	}

	var err error
	if conn.Insecure, err = paramBool(params, "insecure"); err != nil {
		return conn, err
	}

	if conn.AuthType == "" {
		switch {
		case conn.KubeConfig != "" || conn.KubeConfigData != "":
			conn.AuthType = AuthTypeKubeConfig
		case conn.Token != "":
			conn.AuthType = AuthTypeToken
		default:
			conn.AuthType = AuthTypeInCluster
		}
	}

	switch conn.AuthType {
	case AuthTypeKubeConfig:
		if conn.KubeConfig == "" && conn.KubeConfigData == "" {
			return conn, fmt.Errorf("kubeconfig 不能为空")
		}
	case AuthTypeToken:
		if conn.APIServer == "" || conn.Token == "" {
			return conn, fmt.Errorf("API 服务器地址和 token 不能为空")
		}
	case AuthTypeInCluster:
	default:
		return conn, fmt.Errorf("不支持的认证类型: %s", conn.AuthType)
	}
	return conn, nil
}

// buildRESTConfig 创建 REST 配置
func buildRESTConfig(conn kubeConnection) (*rest.Config, error) {
	var (
		restConfig *rest.Config
		err        error
	)
	switch conn.AuthType {
	case AuthTypeKubeConfig:
		if conn.KubeConfigData != "" {
			restConfig, err = clientcmd.RESTConfigFromKubeConfig([]byte(conn.KubeConfigData))
		} else {
			restConfig, err = clientcmd.BuildConfigFromFlags("", conn.KubeConfig)
		}
	case AuthTypeInCluster:
		restConfig, err = rest.InClusterConfig()
	case AuthTypeToken:
		restConfig = &rest.Config{
			Host:        conn.APIServer,
			BearerToken: conn.Token,
			TLSClientConfig: rest.TLSClientConfig{
				Insecure: conn.Insecure,
			},
		}
	default:
		return nil, fmt.Errorf("不支持的认证类型: %s", conn.AuthType)
	}
	if err != nil {
		return nil, fmt.Errorf("创建 REST 配置失败: %w", err)
	}
	restConfig.Timeout = vars.ProviderRequestTimeout
	return restConfig, nil
}

// KubeJobsOption 构造选项
type KubeJobsOption func(*KubernetesJobsProvider)

// WithKubernetesClient 使用外部提供的 clientset，跳过 REST 配置构建
func WithKubernetesClient(client kubernetes.Interface) KubeJobsOption {
	return func(p *KubernetesJobsProvider) {
		p.newClient = func() (kubernetes.Interface, error) { return client, nil }
	}
}

// KubernetesJobsProvider 把 batch/v1 Job 当作队列任务：命名空间即队列
type KubernetesJobsProvider struct {
	cfg  types.ProviderConfig
	conn kubeConnection

	newClient func() (kubernetes.Interface, error)

	mu     sync.RWMutex
	client kubernetes.Interface

	log logx.Logger
}

// NewKubernetesJobsProvider 创建驱动实例
func NewKubernetesJobsProvider(cfg types.ProviderConfig, opts ...KubeJobsOption) (*KubernetesJobsProvider, error) {
	conn, err := parseKubeConnection(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: provider=%s, %v", types.ErrConnection, cfg.Name, err)
	}

	p := &KubernetesJobsProvider{
		cfg:  cfg,
		conn: conn,
		log:  logx.WithContext(context.Background()).WithFields(logx.Field("provider", cfg.Name)),
	}
	p.newClient = func() (kubernetes.Interface, error) {
		restConfig, err := buildRESTConfig(p.conn)
		if err != nil {
			return nil, err
		}
		return kubernetes.NewForConfig(restConfig)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *KubernetesJobsProvider) Name() string             { return p.cfg.Name }
func (p *KubernetesJobsProvider) Type() types.ProviderType { return types.ProviderTypeKubernetesJobs }

func (p *KubernetesJobsProvider) DisplayName() string {
	if p.cfg.DisplayName != "" {
		return p.cfg.DisplayName
	}
	return p.cfg.Name
}

// Connect 创建 clientset 并通过 ServerVersion 验证连通性
func (p *KubernetesJobsProvider) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return nil
	}

	client, err := p.newClient()
	if err != nil {
		return connectionError(p.cfg.Name, "build client", err)
	}

	version, err := client.Discovery().ServerVersion()
	if err != nil {
		return connectionError(p.cfg.Name, "server version", err)
	}

	p.client = client
	p.log.Infof("Kubernetes 连接成功: authType=%s, version=%s", p.conn.AuthType, version.GitVersion)
	return nil
}

// Disconnect 幂等，clientset 无需显式关闭
func (p *KubernetesJobsProvider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = nil
	return nil
}

// IsHealthy 未连接或 API Server 不可达都视为不健康
func (p *KubernetesJobsProvider) IsHealthy(ctx context.Context) bool {
	client := p.getClient()
	if client == nil {
		return false
	}
	if _, err := client.Discovery().ServerVersion(); err != nil {
		p.log.Errorf("Kubernetes 健康检查失败: %v", err)
		return false
	}
	return true
}

func (p *KubernetesJobsProvider) getClient() kubernetes.Interface {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

func (p *KubernetesJobsProvider) listJobs(ctx context.Context, namespace string) ([]batchv1.Job, error) {
	client := p.getClient()
	if client == nil {
		return nil, connectionError(p.cfg.Name, "list jobs", fmt.Errorf("未连接"))
	}
	list, err := client.BatchV1().Jobs(namespace).List(ctx, metav1.ListOptions{LabelSelector: p.conn.LabelSelector})
	if err != nil {
		return nil, connectionError(p.cfg.Name, "list jobs in "+namespaceLabel(namespace), err)
	}
	return list.Items, nil
}

// ListQueues 按命名空间聚合 Job 状态
func (p *KubernetesJobsProvider) ListQueues(ctx context.Context) ([]types.QueueDescriptor, error) {
	jobs, err := p.listJobs(ctx, p.conn.Namespace)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]*types.StateCounts)
	for i := range jobs {
		ns := jobs[i].Namespace
		c, ok := counts[ns]
		if !ok {
			c = &types.StateCounts{}
			counts[ns] = c
		}
		switch jobState(&jobs[i]) {
		case types.StatusWaiting:
			c.Waiting++
		case types.StatusActive:
			c.Active++
		case types.StatusCompleted:
			c.Completed++
		case types.StatusFailed:
			c.Failed++
		case types.StatusDelayed:
			c.Delayed++
		}
	}

	out := make([]types.QueueDescriptor, 0, len(counts))
	for ns, c := range counts {
		out = append(out, types.QueueDescriptor{Name: ns, Counts: *c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// GetJobs 列出某命名空间的 Job，最新创建的在前
func (p *KubernetesJobsProvider) GetJobs(ctx context.Context, query types.JobQuery) ([]types.Job, error) {
	if p.conn.Namespace != metav1.NamespaceAll && query.Queue != p.conn.Namespace {
		return []types.Job{}, nil
	}

	items, err := p.listJobs(ctx, query.Queue)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreationTimestamp.After(items[j].CreationTimestamp.Time)
	})

	jobs := make([]types.Job, 0, min(len(items), query.Limit))
	for i := range items {
		if len(jobs) >= query.Limit {
			break
		}
		state := jobState(&items[i])
		if query.Status != "" && state != query.Status {
			continue
		}
		jobs = append(jobs, normalizeKubeJob(&items[i], state))
	}
	return jobs, nil
}

// jobState Job 状态映射：Failed 条件 -> failed，Complete 条件 -> completed，
// 有运行中的 Pod -> active，挂起 -> delayed，其余 -> waiting
func jobState(job *batchv1.Job) types.JobStatus {
	for _, c := range job.Status.Conditions {
		if c.Status != corev1.ConditionTrue {
			continue
		}
		switch c.Type {
		case batchv1.JobFailed:
			return types.StatusFailed
		case batchv1.JobComplete:
			return types.StatusCompleted
		}
	}
	if job.Status.Active > 0 {
		return types.StatusActive
	}
	if job.Spec.Suspend != nil && *job.Spec.Suspend {
		return types.StatusDelayed
	}
	return types.StatusWaiting
}

func normalizeKubeJob(job *batchv1.Job, state types.JobStatus) types.Job {
	out := types.Job{
		ID:        job.Name,
		Queue:     job.Namespace,
		State:     state,
		CreatedAt: job.CreationTimestamp.Time,
		Attempts:  int(job.Status.Active + job.Status.Succeeded + job.Status.Failed),
	}
	for _, ref := range job.OwnerReferences {
		if ref.Kind == "CronJob" {
			out.Name = ref.Name
			break
		}
	}
	if job.Status.StartTime != nil {
		t := job.Status.StartTime.Time
		out.ProcessedAt = &t
	}
	if job.Status.CompletionTime != nil {
		t := job.Status.CompletionTime.Time
		out.FinishedAt = &t
	}

	if state == types.StatusFailed {
		for _, c := range job.Status.Conditions {
			if c.Type == batchv1.JobFailed && c.Status == corev1.ConditionTrue {
				out.FailedReason = strings.TrimSpace(strings.Trim(c.Reason+": "+c.Message, ": "))
				if out.FinishedAt == nil && !c.LastTransitionTime.IsZero() {
					t := c.LastTransitionTime.Time
					out.FinishedAt = &t
				}
				break
			}
		}
	}

	out.PayloadSummary = summarizePayload(containerSummary(job.Spec.Template.Spec.Containers))
	return out
}

func containerSummary(containers []corev1.Container) string {
	if len(containers) == 0 {
		return ""
	}
	c := containers[0]
	parts := make([]string, 0, 1+len(c.Command)+len(c.Args))
	parts = append(parts, c.Image)
	parts = append(parts, c.Command...)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

func namespaceLabel(ns string) string {
	if ns == metav1.NamespaceAll {
		return "all namespaces"
	}
	return ns
}

// 编译期检查
var (
	_ types.QueueProvider = (*BullMQProvider)(nil)
	_ types.QueueProvider = (*KubernetesJobsProvider)(nil)
)
