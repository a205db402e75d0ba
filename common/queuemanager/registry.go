package queuemanager

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/syncx"
	"github.com/zeromicro/go-zero/core/threading"
)

const initializeKey = "queue-registry:initialize"

// Factory 按类型创建提供者实例
type Factory interface {
	Create(cfg types.ProviderConfig) (types.QueueProvider, error)
}

// Registry 队列提供者注册表
// 由组合根显式创建并注入，不使用全局单例。
// 提供者表只由 Initialize（写入）和 DisconnectAll（清空）修改，ExecuteQuery 只读。
type Registry struct {
	configs []types.ProviderConfig
	factory Factory

	// 并发的 Initialize 共享同一次进行中的初始化
	barrier syncx.SingleFlight
	// 串行化初始化与断开，避免清空后又被进行中的初始化写回
	lifecycle sync.Mutex

	mu          sync.RWMutex
	providers   map[string]types.QueueProvider
	initialized bool

	log logx.Logger
}

// NewRegistry 创建注册表
func NewRegistry(configs []types.ProviderConfig, factory Factory) *Registry {
	cfgs := make([]types.ProviderConfig, len(configs))
	copy(cfgs, configs)
	return &Registry{
		configs:   cfgs,
		factory:   factory,
		barrier:   syncx.NewSingleFlight(),
		providers: make(map[string]types.QueueProvider),
		log:       logx.WithContext(context.Background()),
	}
}

// Initialize 幂等初始化，连接失败的提供者只记录日志并从注册表中缺席
func (r *Registry) Initialize(ctx context.Context) {
	if r.IsInitialized() {
		return
	}

	_, _ = r.barrier.Do(initializeKey, func() (any, error) {
		r.lifecycle.Lock()
		defer r.lifecycle.Unlock()

		if r.IsInitialized() {
			return nil, nil
		}

		providers := r.connectAll(ctx)

		r.mu.Lock()
		r.providers = providers
		r.initialized = true
		r.mu.Unlock()

		r.log.Infof("队列提供者注册表初始化完成: configured=%d, connected=%d", len(r.configs), len(providers))
		return nil, nil
	})
}

// connectAll 为每个配置创建实例并连接，各提供者互不影响
func (r *Registry) connectAll(ctx context.Context) map[string]types.QueueProvider {
	var (
		mu        sync.Mutex
		providers = make(map[string]types.QueueProvider, len(r.configs))
		seen      = make(map[string]struct{}, len(r.configs))
		group     = threading.NewRoutineGroup()
	)

	// 调用方取消不应影响其他等待同一次初始化的调用方
	baseCtx := context.WithoutCancel(ctx)

	for _, cfg := range r.configs {
		if _, dup := seen[cfg.Name]; dup {
			r.log.Errorf("队列提供者名称重复，忽略: name=%s", cfg.Name)
			continue
		}
		seen[cfg.Name] = struct{}{}

		provider, err := r.factory.Create(cfg)
		if err != nil {
			r.log.Errorf("创建队列提供者失败: name=%s, type=%s, error=%v", cfg.Name, cfg.Type, err)
			continue
		}

		group.RunSafe(func() {
			connectCtx, cancel := context.WithTimeout(baseCtx, vars.ProviderConnectTimeout)
			defer cancel()

			if err := provider.Connect(connectCtx); err != nil {
				r.log.Errorf("连接队列提供者失败: name=%s, type=%s, error=%v", provider.Name(), provider.Type(), err)
				return
			}

			mu.Lock()
			providers[provider.Name()] = provider
			mu.Unlock()
			r.log.Infof("队列提供者连接成功: name=%s, type=%s", provider.Name(), provider.Type())
		})
	}
	group.Wait()

	return providers
}

// IsInitialized 是否已完成初始化
func (r *Registry) IsInitialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

// GetProvider 按名称获取提供者
func (r *Registry) GetProvider(name string) (types.QueueProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Providers 已注册的提供者，按名称排序
func (r *Registry) Providers(ctx context.Context) []types.ProviderInfo {
	r.Initialize(ctx)

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.ProviderInfo, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, types.ProviderInfo{Name: p.Name(), Type: p.Type(), DisplayName: p.DisplayName()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ExecuteQuery 将结构化查询分发给对应提供者
// 每次分发前都重新做健康检查，不缓存健康状态。
func (r *Registry) ExecuteQuery(ctx context.Context, query types.QueueQuery) (*types.QueueQueryResult, error) {
	r.Initialize(ctx)

	provider, ok := r.GetProvider(query.Provider)
	if !ok {
		r.log.Errorf("队列提供者不存在: provider=%s", query.Provider)
		return nil, fmt.Errorf("%w: %s", types.ErrProviderNotFound, query.Provider)
	}

	if !provider.IsHealthy(ctx) {
		r.log.Errorf("队列提供者不健康，拒绝下发查询: provider=%s", query.Provider)
		return nil, fmt.Errorf("%w: %s", types.ErrProviderUnhealthy, query.Provider)
	}

	result := &types.QueueQueryResult{
		Provider:     provider.Name(),
		ProviderType: provider.Type(),
	}

	if query.Queue == "" {
		queues, err := provider.ListQueues(ctx)
		if err != nil {
			r.log.Errorf("列出队列失败: provider=%s, error=%v", query.Provider, err)
			return nil, fmt.Errorf("列出队列失败: %w", err)
		}
		result.Kind = types.ResultKindQueues
		result.Queues = queues
		result.Count = len(queues)
		return result, nil
	}

	limit := query.Limit
	if limit <= 0 {
		limit = vars.QueueQueryLimit
	}

	jobs, err := provider.GetJobs(ctx, types.JobQuery{
		Queue:  query.Queue,
		Status: query.Status,
		Limit:  limit,
	})
	if err != nil {
		r.log.Errorf("查询任务失败: provider=%s, queue=%s, error=%v", query.Provider, query.Queue, err)
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}

	result.Kind = types.ResultKindJobs
	result.Queue = query.Queue
	result.Jobs = jobs
	result.Count = len(jobs)
	return result, nil
}

// DisconnectAll 逐个断开所有提供者（单个失败不影响其他），然后清空注册表并重置初始化标记
func (r *Registry) DisconnectAll(ctx context.Context) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.mu.Lock()
	providers := r.providers
	r.providers = make(map[string]types.QueueProvider)
	r.initialized = false
	r.mu.Unlock()

	for name, p := range providers {
		if err := p.Disconnect(ctx); err != nil {
			r.log.Errorf("断开队列提供者失败: name=%s, error=%v", name, err)
			continue
		}
		r.log.Infof("队列提供者已断开: name=%s", name)
	}
}
