package operator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/yanshicheng/kube-nova-board/common/vars"
)

// connectionError 统一包装为 ErrConnection
func connectionError(provider, action string, err error) error {
	return fmt.Errorf("%w: provider=%s, %s: %v", types.ErrConnection, provider, action, err)
}

// truncateString 按字符截断
func truncateString(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

func summarizePayload(s string) string {
	return truncateString(strings.TrimSpace(s), vars.PayloadSummaryMaxRunes)
}

// paramString 读取连接参数，缺失时返回默认值
func paramString(params map[string]string, key, def string) string {
	if v, ok := params[key]; ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func paramInt(params map[string]string, key string, def int) (int, error) {
	v := paramString(params, key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("连接参数 %s 不是整数: %q", key, v)
	}
	return n, nil
}

func paramBool(params map[string]string, key string) (bool, error) {
	v := paramString(params, key, "")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("连接参数 %s 不是布尔值: %q", key, v)
	}
	return b, nil
}

// msToTime 毫秒时间戳转时间，0 或无法解析时返回 nil
func msToTime(v string) *time.Time {
	if v == "" {
		return nil
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}
