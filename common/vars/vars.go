package vars

import "time"

// 队列查询默认值
const (
	QueueQueryLimit    = 20   // 未指定 limit 时返回的任务数
	QueueQueryMaxLimit = 1000 // 单次查询允许的最大任务数
)

// 配置历史
const (
	MaxHistorySnapshots = 50 // 快照保留上限，超出后从最旧的一端淘汰
)

// 提供者 I/O 超时
const (
	ProviderConnectTimeout = 10 * time.Second
	ProviderRequestTimeout = 15 * time.Second
)

// Redis key 前缀
const (
	DashboardKeyPrefix     = "nova-board"
	HistoryChannelSuffix   = "history:events"
	HistoryStoreKeySuffix  = "history:data"
	LiveConfigKeySuffix    = "config:live"
	PayloadSummaryMaxRunes = 256
)

// 项目版本信息
const (
	ProjectName = "kube-nova-board"
	ProjectVer  = "v0.1.0"
)
