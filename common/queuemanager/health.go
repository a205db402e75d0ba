package queuemanager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yanshicheng/kube-nova-board/common/vars"
	"github.com/zeromicro/go-zero/core/logx"
)

// ProviderHealth 最近一次探测结果
type ProviderHealth struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	CheckedAt time.Time `json:"checkedAt"`
}

// HealthMonitor 按 cron 表达式定时探测提供者健康状态
// 结果仅用于展示，下发查询前仍会实时检查。
type HealthMonitor struct {
	registry *Registry
	spec     string
	cron     *cron.Cron

	mu     sync.RWMutex
	status map[string]ProviderHealth

	log logx.Logger
}

// NewHealthMonitor 创建健康探测，spec 支持秒级表达式与 @every 描述符
func NewHealthMonitor(registry *Registry, spec string) *HealthMonitor {
	return &HealthMonitor{
		registry: registry,
		spec:     spec,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.Recover(cron.DefaultLogger)),
		),
		status: make(map[string]ProviderHealth),
		log:    logx.WithContext(context.Background()),
	}
}

// Start 注册定时任务并启动
func (m *HealthMonitor) Start() error {
	if _, err := m.cron.AddFunc(m.spec, func() { m.Probe(context.Background()) }); err != nil {
		return fmt.Errorf("注册健康探测任务失败: spec=%s, %w", m.spec, err)
	}
	m.cron.Start()
	m.log.Infof("队列提供者健康探测已启动: spec=%s", m.spec)
	return nil
}

// Stop 停止调度并等待正在执行的探测结束
func (m *HealthMonitor) Stop() {
	<-m.cron.Stop().Done()
	m.log.Info("队列提供者健康探测已停止")
}

// Probe 立即探测一次所有已注册的提供者
func (m *HealthMonitor) Probe(ctx context.Context) {
	infos := m.registry.Providers(ctx)
	next := make(map[string]ProviderHealth, len(infos))

	for _, info := range infos {
		p, ok := m.registry.GetProvider(info.Name)
		if !ok {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, vars.ProviderRequestTimeout)
		healthy := p.IsHealthy(probeCtx)
		cancel()

		next[info.Name] = ProviderHealth{Name: info.Name, Healthy: healthy, CheckedAt: time.Now()}
		if !healthy {
			m.log.Errorf("队列提供者健康检查失败: provider=%s", info.Name)
		}
	}

	m.mu.Lock()
	m.status = next
	m.mu.Unlock()
}

// Status 最近一次探测结果，按名称排序
func (m *HealthMonitor) Status() []ProviderHealth {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ProviderHealth, 0, len(m.status))
	for _, h := range m.status {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
