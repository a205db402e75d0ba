package operator

import (
	"context"
	"crypto/tls"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	red "github.com/redis/go-redis/v9"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	defaultBullMQPrefix = "bull"
	scanBatchSize       = 200
)

// bullMQConnection redis-bullmq 连接参数
type bullMQConnection struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
	TLS      bool
}

func parseBullMQConnection(params map[string]string) (bullMQConnection, error) {
	conn := bullMQConnection{
		Addr:     paramString(params, "addr", ""),
		Username: paramString(params, "username", ""),
		Password: paramString(params, "password", ""),
		Prefix:   paramString(params, "prefix", defaultBullMQPrefix),
	}
	if conn.Addr == "" {
		return conn, fmt.Errorf("连接参数 addr 不能为空")
	}

	var err error
	if conn.DB, err = paramInt(params, "db", 0); err != nil {
		return conn, err
	}
	if conn.TLS, err = paramBool(params, "tls"); err != nil {
		return conn, err
	}
	return conn, nil
}

// BullMQProvider 基于 Redis 的 BullMQ 队列驱动
// 键布局：<prefix>:<queue>:{wait,paused,active} 为 list，
// {prioritized,completed,failed,delayed} 为 zset，任务数据在 <prefix>:<queue>:<id> hash 中。
type BullMQProvider struct {
	cfg  types.ProviderConfig
	conn bullMQConnection

	mu     sync.RWMutex
	client *red.Client

	log logx.Logger
}

// NewBullMQProvider 创建驱动实例，连接参数在此校验
func NewBullMQProvider(cfg types.ProviderConfig) (*BullMQProvider, error) {
	conn, err := parseBullMQConnection(cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("%w: provider=%s, %v", types.ErrConnection, cfg.Name, err)
	}
	return &BullMQProvider{
		cfg:  cfg,
		conn: conn,
		log:  logx.WithContext(context.Background()).WithFields(logx.Field("provider", cfg.Name)),
	}, nil
}

func (p *BullMQProvider) Name() string             { return p.cfg.Name }
func (p *BullMQProvider) Type() types.ProviderType { return types.ProviderTypeBullMQ }

func (p *BullMQProvider) DisplayName() string {
	if p.cfg.DisplayName != "" {
		return p.cfg.DisplayName
	}
	return p.cfg.Name
}

// Connect 建立连接并 Ping
func (p *BullMQProvider) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return nil
	}

	opts := &red.Options{
		Addr:     p.conn.Addr,
		Username: p.conn.Username,
		Password: p.conn.Password,
		DB:       p.conn.DB,
	}
	if p.conn.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	client := red.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return connectionError(p.cfg.Name, "ping "+p.conn.Addr, err)
	}

	p.client = client
	p.log.Infof("BullMQ 连接成功: addr=%s, prefix=%s", p.conn.Addr, p.conn.Prefix)
	return nil
}

// Disconnect 幂等
func (p *BullMQProvider) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return nil
	}
	err := p.client.Close()
	p.client = nil
	if err != nil {
		return connectionError(p.cfg.Name, "close", err)
	}
	return nil
}

// IsHealthy 未连接或 Ping 失败都视为不健康
func (p *BullMQProvider) IsHealthy(ctx context.Context) bool {
	client := p.getClient()
	if client == nil {
		return false
	}
	if err := client.Ping(ctx).Err(); err != nil {
		p.log.Errorf("BullMQ 健康检查失败: %v", err)
		return false
	}
	return true
}

func (p *BullMQProvider) getClient() *red.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

func (p *BullMQProvider) key(queue, suffix string) string {
	return p.conn.Prefix + ":" + queue + ":" + suffix
}

// ListQueues 通过 SCAN <prefix>:*:meta 与 <prefix>:*:id 发现队列，再用一次 pipeline 统计各状态数量
func (p *BullMQProvider) ListQueues(ctx context.Context) ([]types.QueueDescriptor, error) {
	client := p.getClient()
	if client == nil {
		return nil, connectionError(p.cfg.Name, "list queues", fmt.Errorf("未连接"))
	}

	names := make(map[string]struct{})
	for _, suffix := range []string{"meta", "id"} {
		if err := p.scanQueueNames(ctx, client, suffix, names); err != nil {
			return nil, err
		}
	}

	queues := make([]string, 0, len(names))
	for name := range names {
		queues = append(queues, name)
	}
	sort.Strings(queues)

	type counters struct {
		wait, paused, prioritized, active, completed, failed, delayed *red.IntCmd
	}
	cmds := make([]counters, len(queues))

	_, err := client.Pipelined(ctx, func(pipe red.Pipeliner) error {
		for i, q := range queues {
			cmds[i] = counters{
				wait:        pipe.LLen(ctx, p.key(q, "wait")),
				paused:      pipe.LLen(ctx, p.key(q, "paused")),
				prioritized: pipe.ZCard(ctx, p.key(q, "prioritized")),
				active:      pipe.LLen(ctx, p.key(q, "active")),
				completed:   pipe.ZCard(ctx, p.key(q, "completed")),
				failed:      pipe.ZCard(ctx, p.key(q, "failed")),
				delayed:     pipe.ZCard(ctx, p.key(q, "delayed")),
			}
		}
		return nil
	})
	if err != nil && err != red.Nil {
		return nil, connectionError(p.cfg.Name, "count jobs", err)
	}

	out := make([]types.QueueDescriptor, 0, len(queues))
	for i, q := range queues {
		c := cmds[i]
		out = append(out, types.QueueDescriptor{
			Name: q,
			Counts: types.StateCounts{
				Waiting:   c.wait.Val() + c.paused.Val() + c.prioritized.Val(),
				Active:    c.active.Val(),
				Completed: c.completed.Val(),
				Failed:    c.failed.Val(),
				Delayed:   c.delayed.Val(),
			},
		})
	}
	return out, nil
}

func (p *BullMQProvider) scanQueueNames(ctx context.Context, client *red.Client, suffix string, names map[string]struct{}) error {
	pattern := p.conn.Prefix + ":*:" + suffix
	head := p.conn.Prefix + ":"
	tail := ":" + suffix

	iter := client.Scan(ctx, 0, pattern, scanBatchSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if !strings.HasPrefix(key, head) || !strings.HasSuffix(key, tail) || len(key) <= len(head)+len(tail) {
			continue
		}
		name := key[len(head) : len(key)-len(tail)]
		if name == "" || strings.Contains(name, ":") {
			continue
		}
		names[name] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		return connectionError(p.cfg.Name, "scan "+pattern, err)
	}
	return nil
}

// GetJobs 读取指定状态的任务；未指定状态时按 waiting/active/completed/failed/delayed 顺序凑满 limit
func (p *BullMQProvider) GetJobs(ctx context.Context, query types.JobQuery) ([]types.Job, error) {
	client := p.getClient()
	if client == nil {
		return nil, connectionError(p.cfg.Name, "get jobs", fmt.Errorf("未连接"))
	}
	if query.Limit <= 0 {
		return []types.Job{}, nil
	}

	statuses := types.AllStatuses
	if query.Status != "" {
		statuses = []types.JobStatus{query.Status}
	}

	jobs := make([]types.Job, 0, query.Limit)
	for _, status := range statuses {
		remaining := query.Limit - len(jobs)
		if remaining <= 0 {
			break
		}

		ids, err := p.jobIDs(ctx, client, query.Queue, status, remaining)
		if err != nil {
			return nil, err
		}
		loaded, err := p.loadJobs(ctx, client, query.Queue, status, ids)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, loaded...)
	}
	return jobs, nil
}

// jobIDs 按状态读取任务 ID，completed/failed 最新的在前
func (p *BullMQProvider) jobIDs(ctx context.Context, client *red.Client, queue string, status types.JobStatus, limit int) ([]string, error) {
	stop := int64(limit - 1)

	var (
		ids []string
		err error
	)
	switch status {
	case types.StatusWaiting:
		for _, src := range []struct {
			suffix string
			zset   bool
		}{{"wait", false}, {"paused", false}, {"prioritized", true}} {
			if len(ids) >= limit {
				break
			}
			var part []string
			end := int64(limit-len(ids)) - 1
			if src.zset {
				part, err = client.ZRange(ctx, p.key(queue, src.suffix), 0, end).Result()
			} else {
				part, err = client.LRange(ctx, p.key(queue, src.suffix), 0, end).Result()
			}
			if err != nil && err != red.Nil {
				break
			}
			err = nil
			ids = append(ids, part...)
		}
	case types.StatusActive:
		ids, err = client.LRange(ctx, p.key(queue, "active"), 0, stop).Result()
	case types.StatusCompleted, types.StatusFailed:
		ids, err = client.ZRevRange(ctx, p.key(queue, string(status)), 0, stop).Result()
	case types.StatusDelayed:
		ids, err = client.ZRange(ctx, p.key(queue, "delayed"), 0, stop).Result()
	default:
		return nil, fmt.Errorf("%w: 不支持的任务状态 %q", types.ErrInvalidQueueQuery, status)
	}
	if err != nil && err != red.Nil {
		return nil, connectionError(p.cfg.Name, fmt.Sprintf("read %s ids of %s", status, queue), err)
	}
	return ids, nil
}

// loadJobs pipeline 读取任务 hash，已被清理的任务直接跳过
func (p *BullMQProvider) loadJobs(ctx context.Context, client *red.Client, queue string, status types.JobStatus, ids []string) ([]types.Job, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*red.MapStringStringCmd, len(ids))
	_, err := client.Pipelined(ctx, func(pipe red.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, p.key(queue, id))
		}
		return nil
	})
	if err != nil && err != red.Nil {
		return nil, connectionError(p.cfg.Name, "load jobs of "+queue, err)
	}

	jobs := make([]types.Job, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			p.log.Debugf("任务数据已不存在，跳过: queue=%s, id=%s", queue, id)
			continue
		}
		jobs = append(jobs, normalizeBullMQJob(queue, id, status, fields))
	}
	return jobs, nil
}

func normalizeBullMQJob(queue, id string, status types.JobStatus, fields map[string]string) types.Job {
	job := types.Job{
		ID:             id,
		Name:           fields["name"],
		Queue:          queue,
		State:          status,
		ProcessedAt:    msToTime(fields["processedOn"]),
		FinishedAt:     msToTime(fields["finishedOn"]),
		PayloadSummary: summarizePayload(fields["data"]),
	}
	if created := msToTime(fields["timestamp"]); created != nil {
		job.CreatedAt = *created
	}
	if attempts, err := strconv.Atoi(fields["attemptsMade"]); err == nil {
		job.Attempts = attempts
	}
	if status == types.StatusFailed {
		job.FailedReason = fields["failedReason"]
	}
	return job
}
