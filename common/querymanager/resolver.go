package querymanager

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"
)

// ReferencePrefix 指标查询引用的可选前缀
const ReferencePrefix = "queries."

var placeholderRegexp = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ResolvedQuery 解析结果
type ResolvedQuery struct {
	Reference   string   `json:"reference"`
	Namespace   string   `json:"namespace"`
	Name        string   `json:"name"`
	Template    string   `json:"template"`
	Variables   []string `json:"variables"`
	Query       string   `json:"query,omitempty"`
	Substituted bool     `json:"substituted"`
}

// VariableCheck 变量校验结果
type VariableCheck struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// ExtractVariables 按首次出现顺序返回模板中的变量名，重复项只保留一次
func ExtractVariables(template string) []string {
	matches := placeholderRegexp.FindAllStringSubmatch(template, -1)
	seen := make(map[string]struct{}, len(matches))
	vars := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		vars = append(vars, m[1])
	}
	return vars
}

// ValidateVariables 检查 values 是否覆盖模板中的所有变量，不做替换
func ValidateVariables(template string, values map[string]string) VariableCheck {
	missing := missingVariables(ExtractVariables(template), values)
	return VariableCheck{Valid: len(missing) == 0, Missing: missing}
}

// ParseReference 解析 "<namespace>.<queryName>"，允许带 "queries." 前缀
// 前缀只在剩余恰好两段时剥离，命名空间本身可以叫 queries。
func ParseReference(reference string) (namespace, name string, err error) {
	parts := strings.Split(strings.TrimSpace(reference), ".")
	if len(parts) == 3 && parts[0]+"." == ReferencePrefix {
		parts = parts[1:]
	}
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrReferenceFormat, reference)
	}
	return parts[0], parts[1], nil
}

// ResolveQuery 将引用解析为具体模板
// variables 为 nil 表示调用方延后替换，只返回模板与变量列表；
// 非 nil（包括空 map）表示要求替换，缺失任何变量都会返回 *MissingVariableError。
func ResolveQuery(reference string, library *Library, variables map[string]string) (*ResolvedQuery, error) {
	namespace, name, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}

	template, ok := library.Lookup(namespace, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrQueryNotFound, namespace, name)
	}

	resolved := &ResolvedQuery{
		Reference: reference,
		Namespace: namespace,
		Name:      name,
		Template:  template,
		Variables: ExtractVariables(template),
	}

	if variables == nil {
		return resolved, nil
	}

	if missing := missingVariables(resolved.Variables, variables); len(missing) > 0 {
		return nil, &MissingVariableError{Reference: reference, Missing: missing}
	}

	resolved.Query = substitute(template, variables)
	resolved.Substituted = true
	return resolved, nil
}

// ResolveQueries 逐个解析，遇到第一个错误即返回
// 调用方负责先用 CleanReferences 过滤空引用。
func ResolveQueries(references []string, library *Library, variables map[string]string) ([]ResolvedQuery, error) {
	out := make([]ResolvedQuery, 0, len(references))
	for _, ref := range references {
		resolved, err := ResolveQuery(ref, library, variables)
		if err != nil {
			return nil, err
		}
		out = append(out, *resolved)
	}
	return out, nil
}

// CleanReferences 过滤空引用和序列化后的空值（"undefined"、"null"、"<nil>"）
// 只记录日志，不返回错误。
func CleanReferences(references []string) []string {
	out := make([]string, 0, len(references))
	for i, ref := range references {
		trimmed := strings.TrimSpace(ref)
		switch trimmed {
		case "", "undefined", "null", "<nil>":
			logx.Infof("忽略无效的查询引用: index=%d, reference=%q", i, ref)
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// substitute 单次替换，变量值中的 {{x}} 不会被再次展开
func substitute(template string, values map[string]string) string {
	return placeholderRegexp.ReplaceAllStringFunc(template, func(match string) string {
		name := match[2 : len(match)-2]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

func missingVariables(names []string, values map[string]string) []string {
	missing := make([]string, 0)
	for _, name := range names {
		if _, ok := values[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
