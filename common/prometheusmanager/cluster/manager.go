package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yanshicheng/kube-nova-board/common/prometheusmanager/operator"
	"github.com/yanshicheng/kube-nova-board/common/prometheusmanager/types"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	// 本地缓存 TTL
	localCacheTTL = 5 * time.Minute
)

// ErrInstanceNotFound 未配置的 Prometheus 实例
var ErrInstanceNotFound = errors.New("prometheus instance not found")

// cachedClient 带时间戳的缓存客户端
type cachedClient struct {
	client    types.PrometheusClient
	createdAt time.Time
}

// isExpired 检查缓存是否过期
func (c *cachedClient) isExpired() bool {
	return time.Since(c.createdAt) > localCacheTTL
}

// PrometheusManager Prometheus 多实例管理器
// 实例配置来自服务配置文件，客户端在首次使用时创建并缓存。
type PrometheusManager struct {
	mu         sync.RWMutex
	configs    map[string]types.PrometheusConfig
	localCache map[string]*cachedClient
	defaultKey string
	log        logx.Logger
}

// NewPrometheusManager 创建 Prometheus 管理器，第一个实例作为默认实例
func NewPrometheusManager(configs []types.PrometheusConfig) *PrometheusManager {
	m := &PrometheusManager{
		configs:    make(map[string]types.PrometheusConfig, len(configs)),
		localCache: make(map[string]*cachedClient),
		log:        logx.WithContext(context.Background()),
	}
	for _, c := range configs {
		if c.Name == "" {
			m.log.Errorf("忽略未命名的 Prometheus 配置: endpoint=%s", c.Endpoint)
			continue
		}
		if _, dup := m.configs[c.Name]; dup {
			m.log.Errorf("Prometheus 实例名称重复，忽略: name=%s", c.Name)
			continue
		}
		if m.defaultKey == "" {
			m.defaultKey = c.Name
		}
		m.configs[c.Name] = c
	}
	return m
}

// Names 已配置的实例名称
func (m *PrometheusManager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.configs))
	for name := range m.configs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Get 获取 Prometheus 客户端，name 为空时使用默认实例
func (m *PrometheusManager) Get(name string) (types.PrometheusClient, error) {
	if name == "" {
		name = m.defaultKey
	}

	m.mu.RLock()
	cached, exists := m.localCache[name]
	m.mu.RUnlock()
	if exists && !cached.isExpired() {
		return cached.client, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 双重检查
	if cached, exists := m.localCache[name]; exists {
		if !cached.isExpired() {
			return cached.client, nil
		}
		if err := cached.client.Close(); err != nil {
			m.log.Errorf("关闭过期客户端失败: name=%s, error=%v", name, err)
		}
		delete(m.localCache, name)
	}

	config, ok := m.configs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInstanceNotFound, name)
	}

	client, err := operator.NewPrometheusClient(&config)
	if err != nil {
		m.log.Errorf("创建 Prometheus 客户端失败: name=%s, error=%v", name, err)
		return nil, fmt.Errorf("创建 Prometheus 客户端失败: %w", err)
	}

	m.localCache[name] = &cachedClient{client: client, createdAt: time.Now()}
	m.log.Infof("成功创建并缓存 Prometheus 客户端: name=%s, endpoint=%s", name, config.Endpoint)
	return client, nil
}

// Close 关闭所有客户端
func (m *PrometheusManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, cached := range m.localCache {
		if err := cached.client.Close(); err != nil {
			m.log.Errorf("关闭 Prometheus 客户端失败: name=%s, error=%v", name, err)
		}
	}
	m.localCache = make(map[string]*cachedClient)
}
