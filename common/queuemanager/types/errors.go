package types

import "errors"

var (
	// ErrUnsupportedProviderType 配置中的提供者类型没有对应驱动
	ErrUnsupportedProviderType = errors.New("unsupported provider type")
	// ErrProviderNotFound 查询指定的提供者未注册
	ErrProviderNotFound = errors.New("provider not found")
	// ErrProviderUnhealthy 下发查询前的健康检查失败
	ErrProviderUnhealthy = errors.New("provider unhealthy")
	// ErrConnection 连接、健康检查或查询过程中的 I/O 错误
	ErrConnection = errors.New("provider connection error")
	// ErrInvalidQueueQuery 队列查询结构校验失败
	ErrInvalidQueueQuery = errors.New("invalid queue query")
)
