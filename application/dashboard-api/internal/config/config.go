package config

import (
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	ptypes "github.com/yanshicheng/kube-nova-board/common/prometheusmanager/types"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/rest"
)

const (
	StorageFile  = "file"
	StorageRedis = "redis"
	StorageMySQL = "mysql"
	StorageMinio = "minio"
)

type Config struct {
	rest.RestConf
	Cache          redis.RedisConf `json:",optional"`
	Storage        StorageConf
	QueryLibrary   string `json:",default=etc/queries.yaml"`
	History        HistoryConf
	QueueProviders []QueueProviderConf        `json:",optional"`
	Prometheus     []ptypes.PrometheusConfig `json:",optional"`
	HealthCheck    HealthCheckConf           `json:",optional"`
}

// StorageConf 配置与历史的持久化位置
type StorageConf struct {
	Type  string                   `json:",default=file,options=file|redis|mysql|minio"`
	Dir   string                   `json:",default=data"`
	Mysql historymanager.MySQLConf `json:",optional"`
	Minio historymanager.MinioConf `json:",optional"`
}

// HealthCheckConf 队列提供者定时健康探测，Cron 为空时不启用
type HealthCheckConf struct {
	Cron string `json:",optional"`
}

// HistoryConf 配置历史
type HistoryConf struct {
	MaxSnapshots int  `json:",default=50,range=[1:1000]"`
	Broadcast    bool `json:",optional"` // 多实例部署时经 Redis 同步历史变更
}

// QueueProviderConf 队列提供者
type QueueProviderConf struct {
	Name        string
	Type        string
	DisplayName string            `json:",optional"`
	Connection  map[string]string `json:",optional"`
}

// ProviderConfigs 转换为注册表使用的提供者配置
func (c Config) ProviderConfigs() []qtypes.ProviderConfig {
	out := make([]qtypes.ProviderConfig, 0, len(c.QueueProviders))
	for _, p := range c.QueueProviders {
		out = append(out, qtypes.ProviderConfig{
			Name:        p.Name,
			Type:        qtypes.ProviderType(p.Type),
			DisplayName: p.DisplayName,
			Connection:  p.Connection,
		})
	}
	return out
}

// RedisEnabled 是否配置了 Redis
func (c Config) RedisEnabled() bool {
	return c.Cache.Host != ""
}
