package types

import (
	"context"
	"time"
)

// ProviderType 队列提供者类型
type ProviderType string

const (
	ProviderTypeBullMQ         ProviderType = "redis-bullmq"
	ProviderTypeKubernetesJobs ProviderType = "kubernetes-jobs"
)

// JobStatus 任务状态（封闭集合）
type JobStatus string

const (
	StatusWaiting   JobStatus = "waiting"
	StatusActive    JobStatus = "active"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusDelayed   JobStatus = "delayed"
)

// AllStatuses 全部状态，按展示顺序
var AllStatuses = []JobStatus{StatusWaiting, StatusActive, StatusCompleted, StatusFailed, StatusDelayed}

// Valid 是否属于封闭集合
func (s JobStatus) Valid() bool {
	for _, st := range AllStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// ProviderConfig 单个队列提供者的配置
type ProviderConfig struct {
	Name        string            `json:"name" yaml:"name"`
	Type        ProviderType      `json:"type" yaml:"type"`
	DisplayName string            `json:"displayName" yaml:"displayName"`
	Connection  map[string]string `json:"connection,omitempty" yaml:"connection,omitempty"`
}

// QueueQuery 结构化队列查询
// Queue 为空表示列出队列，否则列出该队列的任务。
type QueueQuery struct {
	Provider string    `json:"provider" validate:"required"`
	Queue    string    `json:"queue,omitempty"`
	Status   JobStatus `json:"status,omitempty" validate:"omitempty,oneof=waiting active completed failed delayed"`
	Limit    int       `json:"limit,omitempty" default:"20" validate:"gte=1,lte=1000"`
}

// JobQuery 下发给提供者的任务查询
type JobQuery struct {
	Queue  string
	Status JobStatus // 为空表示不过滤
	Limit  int
}

// StateCounts 按状态统计的任务数
type StateCounts struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Delayed   int64 `json:"delayed"`
}

// Total 总数
func (c StateCounts) Total() int64 {
	return c.Waiting + c.Active + c.Completed + c.Failed + c.Delayed
}

// QueueDescriptor 队列描述
type QueueDescriptor struct {
	Name   string      `json:"name"`
	Counts StateCounts `json:"counts"`
}

// Job 归一化后的任务记录
type Job struct {
	ID             string     `json:"id"`
	Name           string     `json:"name,omitempty"`
	Queue          string     `json:"queue"`
	State          JobStatus  `json:"state"`
	CreatedAt      time.Time  `json:"createdAt"`
	ProcessedAt    *time.Time `json:"processedAt,omitempty"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	Attempts       int        `json:"attempts"`
	PayloadSummary string     `json:"payloadSummary,omitempty"`
	FailedReason   string     `json:"failedReason,omitempty"`
}

// ResultKind 查询结果类型
type ResultKind string

const (
	ResultKindQueues ResultKind = "queues"
	ResultKindJobs   ResultKind = "jobs"
)

// QueueQueryResult 查询结果
// Kind 为 queues 时填充 Queues，为 jobs 时填充 Queue 与 Jobs。
type QueueQueryResult struct {
	Kind         ResultKind        `json:"kind"`
	Provider     string            `json:"provider"`
	ProviderType ProviderType      `json:"providerType"`
	Queue        string            `json:"queue,omitempty"`
	Queues       []QueueDescriptor `json:"queues,omitempty"`
	Jobs         []Job             `json:"jobs,omitempty"`
	Count        int               `json:"count"`
}

// ProviderInfo 已注册提供者的描述
type ProviderInfo struct {
	Name        string       `json:"name"`
	Type        ProviderType `json:"type"`
	DisplayName string       `json:"displayName"`
}

// QueueProvider 队列后端驱动需要实现的能力接口
type QueueProvider interface {
	Name() string
	Type() ProviderType
	DisplayName() string

	// Connect 连接后端，地址不可达或参数无效时返回 ErrConnection
	Connect(ctx context.Context) error
	// Disconnect 幂等
	Disconnect(ctx context.Context) error
	// IsHealthy 不返回错误，只报告健康状态
	IsHealthy(ctx context.Context) bool

	ListQueues(ctx context.Context) ([]QueueDescriptor, error)
	GetJobs(ctx context.Context, query JobQuery) ([]Job, error)
}
