package querymanager

// Library 合并后的只读查询库
type Library struct {
	merged Catalog
}

// NewLibrary 由基础库和用户覆盖库构建查询库
func NewLibrary(base, user Catalog) *Library {
	return &Library{merged: Merge(base, user)}
}

// Lookup 按 (namespace, name) 查找模板
func (l *Library) Lookup(namespace, name string) (string, bool) {
	if l == nil {
		return "", false
	}
	return l.merged.Get(namespace, name)
}

// Namespaces 所有 namespace
func (l *Library) Namespaces() []string {
	if l == nil {
		return nil
	}
	return l.merged.Namespaces()
}

// Catalog 返回合并结果的副本
func (l *Library) Catalog() Catalog {
	if l == nil {
		return Catalog{}
	}
	return l.merged.Clone()
}

// Len 模板总数
func (l *Library) Len() int {
	if l == nil {
		return 0
	}
	return l.merged.Len()
}
