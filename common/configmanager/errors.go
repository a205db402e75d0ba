package configmanager

import "errors"

var (
	// ErrPageNotFound 页面不存在
	ErrPageNotFound = errors.New("page not found")
	// ErrWidgetNotFound 组件不存在
	ErrWidgetNotFound = errors.New("widget not found")
	// ErrPageExists 页面 ID 重复
	ErrPageExists = errors.New("page already exists")
	// ErrInvalidConfig 配置内容不合法
	ErrInvalidConfig = errors.New("invalid dashboard config")
)
