package operator

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

// Constructor 由配置创建提供者实例（此时不建立连接）
type Constructor func(cfg types.ProviderConfig) (types.QueueProvider, error)

// Factory 类型到构造函数的映射，未知类型直接失败，不回退默认驱动
type Factory struct {
	mu           sync.RWMutex
	constructors map[types.ProviderType]Constructor
}

// NewFactory 创建工厂并注册内置驱动
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[types.ProviderType]Constructor)}
	f.Register(types.ProviderTypeBullMQ, func(cfg types.ProviderConfig) (types.QueueProvider, error) {
		return NewBullMQProvider(cfg)
	})
	f.Register(types.ProviderTypeKubernetesJobs, func(cfg types.ProviderConfig) (types.QueueProvider, error) {
		return NewKubernetesJobsProvider(cfg)
	})
	return f
}

// Register 注册（或替换）某类型的构造函数
func (f *Factory) Register(providerType types.ProviderType, c Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[providerType] = c
}

// Types 已注册的类型
func (f *Factory) Types() []types.ProviderType {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]types.ProviderType, 0, len(f.constructors))
	for t := range f.constructors {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Create 按类型创建提供者
func (f *Factory) Create(cfg types.ProviderConfig) (types.QueueProvider, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("队列提供者名称不能为空: type=%s", cfg.Type)
	}

	f.mu.RLock()
	c, ok := f.constructors[cfg.Type]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (provider=%s)", types.ErrUnsupportedProviderType, cfg.Type, cfg.Name)
	}
	return c(cfg)
}
