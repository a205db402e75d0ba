package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidQueryName 查询名称不符合命名规则
	ErrInvalidQueryName = errors.New("invalid query name")

	queryNamePattern    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-]*$`)
	versionSuffixRegexp = regexp.MustCompile(`_v(\d+)-(\d+)-(\d+)$`)
)

// ValidateQueryName 验证查询名称格式
// 规则：
// 1. 只能英文开头
// 2. 包含英文、数字、'_'、'-'，不能包含 '.'（'.' 是引用分隔符）
// 3. 必须以版本后缀 _v<major>-<minor>-<patch> 结尾
//
// 只在写入时校验，解析已存储的查询时不再重复校验。
func ValidateQueryName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: 查询名称不能为空", ErrInvalidQueryName)
	}

	if strings.Contains(name, ".") {
		return fmt.Errorf("%w: 查询名称不能包含 '.': %s", ErrInvalidQueryName, name)
	}

	if !queryNamePattern.MatchString(name) {
		return fmt.Errorf("%w: 查询名称必须以英文字母开头，且只能包含英文、数字、'_' 和 '-': %s", ErrInvalidQueryName, name)
	}

	if !versionSuffixRegexp.MatchString(name) {
		return fmt.Errorf("%w: 查询名称必须以 _v<major>-<minor>-<patch> 结尾: %s", ErrInvalidQueryName, name)
	}

	return nil
}

// ValidateNamespace 验证命名空间（自由分组字符串，不能为空且不能包含 '.'）
func ValidateNamespace(namespace string) error {
	if strings.TrimSpace(namespace) == "" {
		return fmt.Errorf("%w: 命名空间不能为空", ErrInvalidQueryName)
	}
	if strings.Contains(namespace, ".") {
		return fmt.Errorf("%w: 命名空间不能包含 '.': %s", ErrInvalidQueryName, namespace)
	}
	return nil
}

// QueryVersion 从查询名称中解析版本号，不符合规则时 ok 为 false
func QueryVersion(name string) (version string, ok bool) {
	m := versionSuffixRegexp.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("%s.%s.%s", m[1], m[2], m[3]), true
}
