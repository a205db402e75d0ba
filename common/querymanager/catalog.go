package querymanager

import "sort"

// Catalog 查询目录：namespace -> queryName -> template
type Catalog map[string]map[string]string

// Clone 两级深拷贝
func (c Catalog) Clone() Catalog {
	if c == nil {
		return nil
	}
	out := make(Catalog, len(c))
	for ns, queries := range c {
		inner := make(map[string]string, len(queries))
		for name, tpl := range queries {
			inner[name] = tpl
		}
		out[ns] = inner
	}
	return out
}

// Get 查找单个模板
func (c Catalog) Get(namespace, name string) (string, bool) {
	queries, ok := c[namespace]
	if !ok {
		return "", false
	}
	tpl, ok := queries[name]
	return tpl, ok
}

// Set 写入模板，同一 namespace 下同名覆盖
func (c Catalog) Set(namespace, name, template string) {
	queries, ok := c[namespace]
	if !ok {
		queries = make(map[string]string)
		c[namespace] = queries
	}
	queries[name] = template
}

// Delete 删除模板，namespace 为空时一并删除，返回是否存在
func (c Catalog) Delete(namespace, name string) bool {
	queries, ok := c[namespace]
	if !ok {
		return false
	}
	if _, ok := queries[name]; !ok {
		return false
	}
	delete(queries, name)
	if len(queries) == 0 {
		delete(c, namespace)
	}
	return true
}

// Namespaces 按字母序返回所有 namespace
func (c Catalog) Namespaces() []string {
	out := make([]string, 0, len(c))
	for ns := range c {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Len 模板总数
func (c Catalog) Len() int {
	n := 0
	for _, queries := range c {
		n += len(queries)
	}
	return n
}

// Merge 合并基础库与用户覆盖库
// 优先级：user 覆盖 base 中相同 (namespace, name) 的条目；
// user 中不存在的 namespace 原样取自 base。两个输入都不会被修改。
func Merge(base, user Catalog) Catalog {
	out := base.Clone()
	if out == nil {
		out = make(Catalog, len(user))
	}
	for ns, queries := range user {
		inner, ok := out[ns]
		if !ok {
			inner = make(map[string]string, len(queries))
			out[ns] = inner
		}
		for name, tpl := range queries {
			inner[name] = tpl
		}
	}
	return out
}
