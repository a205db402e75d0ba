package svc

import (
	"context"
	"fmt"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/config"
	"github.com/yanshicheng/kube-nova-board/common/configmanager"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/yanshicheng/kube-nova-board/common/prometheusmanager/cluster"
	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/operator"
	"github.com/yanshicheng/kube-nova-board/common/verify"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
)

type ServiceContext struct {
	Config            config.Config
	Cache             *redis.Redis
	Validator         *verify.ValidatorInstance
	BaseLibrary       *querymanager.BaseLibrary
	ConfigManager     *configmanager.Manager
	QueueRegistry     *queuemanager.Registry
	PrometheusManager *cluster.PrometheusManager
	HistoryHub        *HistoryHub
	HealthMonitor     *queuemanager.HealthMonitor // 未配置时为 nil

	redisBroadcaster *historymanager.RedisBroadcaster
}

func NewServiceContext(c config.Config) *ServiceContext {
	validator, err := verify.InitValidator(verify.LocaleZH)
	if err != nil {
		panic(err)
	}

	base, err := querymanager.LoadBaseLibrary(c.QueryLibrary)
	if err != nil {
		panic(err)
	}
	logx.Infof("基础查询库已加载: path=%s, queries=%d", c.QueryLibrary, base.Queries.Len())

	var rdb *redis.Redis
	if c.RedisEnabled() {
		rdb = redis.MustNewRedis(c.Cache)
	}

	store, err := newStore(c, rdb)
	if err != nil {
		panic(err)
	}

	opts := []historymanager.Option{historymanager.WithMaxSnapshots(c.History.MaxSnapshots)}
	var rb *historymanager.RedisBroadcaster
	if c.History.Broadcast {
		if rdb == nil {
			panic("History.Broadcast 需要配置 Cache")
		}
		rb = historymanager.NewRedisBroadcaster(rdb)
		opts = append(opts, historymanager.WithBroadcaster(rb))
	}

	cm := configmanager.NewManager(store, opts...)
	if err := cm.Load(context.Background()); err != nil {
		panic(err)
	}

	if rb != nil {
		// 其他实例修改了配置或历史，重新从共享存储读取
		err := rb.Start(func(ctx context.Context, event historymanager.Event) {
			if err := cm.Reload(ctx); err != nil {
				logx.WithContext(ctx).Errorf("同步其他实例的配置失败: type=%s, from=%s, error=%v",
					event.Type, event.Source, err)
			}
		})
		if err != nil {
			panic(err)
		}
	}

	hub := NewHistoryHub(cm.History().Broadcaster())
	hub.Start()

	registry := queuemanager.NewRegistry(c.ProviderConfigs(), operator.NewFactory())
	var monitor *queuemanager.HealthMonitor
	if c.HealthCheck.Cron != "" {
		monitor = queuemanager.NewHealthMonitor(registry, c.HealthCheck.Cron)
		if err := monitor.Start(); err != nil {
			panic(err)
		}
	}

	return &ServiceContext{
		Config:            c,
		Cache:             rdb,
		Validator:         validator,
		BaseLibrary:       base,
		ConfigManager:     cm,
		QueueRegistry:     registry,
		PrometheusManager: cluster.NewPrometheusManager(c.Prometheus),
		HistoryHub:        hub,
		HealthMonitor:     monitor,
		redisBroadcaster:  rb,
	}
}

func newStore(c config.Config, rdb *redis.Redis) (historymanager.Store, error) {
	switch c.Storage.Type {
	case config.StorageRedis:
		if rdb == nil {
			return nil, fmt.Errorf("Storage.Type=redis 需要配置 Cache")
		}
		return historymanager.NewRedisStore(rdb), nil
	case config.StorageMySQL:
		return historymanager.NewMySQLStoreFromConf(context.Background(), c.Storage.Mysql)
	case config.StorageMinio:
		return historymanager.NewMinioStoreFromConf(context.Background(), c.Storage.Minio)
	default:
		return historymanager.NewFileStore(c.Storage.Dir)
	}
}

// QueryLibrary 内置库与用户覆盖库合并后的查询库
func (s *ServiceContext) QueryLibrary() *querymanager.Library {
	return s.ConfigManager.Library(s.BaseLibrary.Queries)
}

// QueueQueries 合并后的队列查询表
func (s *ServiceContext) QueueQueries() querymanager.QueueQueryTable {
	return s.ConfigManager.QueueQueryTable(s.BaseLibrary.QueueQueries)
}

// Close 释放连接与后台协程
func (s *ServiceContext) Close(ctx context.Context) {
	s.HistoryHub.Stop()
	if s.HealthMonitor != nil {
		s.HealthMonitor.Stop()
	}
	s.QueueRegistry.DisconnectAll(ctx)
	s.PrometheusManager.Close()
	if s.redisBroadcaster != nil {
		s.redisBroadcaster.Close()
	}
}
