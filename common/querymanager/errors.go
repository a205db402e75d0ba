package querymanager

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReferenceFormat 引用字符串无法解析为唯一的 namespace + name
	ErrReferenceFormat = errors.New("malformed query reference")
	// ErrQueryNotFound 引用格式正确但库中没有对应条目
	ErrQueryNotFound = errors.New("query not found")
	// ErrMissingVariable 模板变量缺少取值
	ErrMissingVariable = errors.New("missing template variable")
)

// MissingVariableError 列出所有缺失取值的变量名
type MissingVariableError struct {
	Reference string
	Missing   []string
}

func (e *MissingVariableError) Error() string {
	if e.Reference == "" {
		return fmt.Sprintf("%s: %s", ErrMissingVariable, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s: %s (reference=%s)", ErrMissingVariable, strings.Join(e.Missing, ", "), e.Reference)
}

func (e *MissingVariableError) Is(target error) bool {
	return target == ErrMissingVariable
}
