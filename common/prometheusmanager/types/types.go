package types

import (
	"context"
	"time"
)

// PrometheusConfig Prometheus 连接配置
type PrometheusConfig struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"` // http://prometheus.example.com:9090
	Username string `json:"username,optional"`
	Password string `json:"password,optional"`
	Insecure bool   `json:"insecure,optional"`
	Timeout  int    `json:"timeout,default=30"` // 超时时间（秒）
}

// TimeRange 范围查询的时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Step  string    `json:"step"` // 查询步长，如 "15s", "1m", "5m"，为空时自动计算
}

// InstantQueryResult 即时查询结果
type InstantQueryResult struct {
	Metric map[string]string `json:"metric"`
	Value  float64           `json:"value"`
	Time   time.Time         `json:"time"`
}

// RangeQueryResult 范围查询结果
type RangeQueryResult struct {
	Metric map[string]string `json:"metric"`
	Values []MetricValue     `json:"values"`
}

// MetricValue 指标值
type MetricValue struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PrometheusClient Prometheus 客户端接口
type PrometheusClient interface {
	GetName() string
	GetEndpoint() string

	// 即时查询
	Query(ctx context.Context, query string, timestamp *time.Time) ([]InstantQueryResult, error)

	// 范围查询
	QueryRange(ctx context.Context, query string, timeRange TimeRange) ([]RangeQueryResult, error)

	// 健康检查
	Ping(ctx context.Context) error
	Close() error
}
