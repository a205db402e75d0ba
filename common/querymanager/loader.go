package querymanager

import (
	"fmt"
	"os"

	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"sigs.k8s.io/yaml"
)

// QueueQueryTable 队列查询配置表：namespace -> name -> query
type QueueQueryTable map[string]map[string]types.QueueQuery

// Clone 两级深拷贝
func (t QueueQueryTable) Clone() QueueQueryTable {
	if t == nil {
		return nil
	}
	out := make(QueueQueryTable, len(t))
	for ns, queries := range t {
		inner := make(map[string]types.QueueQuery, len(queries))
		for name, q := range queries {
			inner[name] = q
		}
		out[ns] = inner
	}
	return out
}

// Get 查找单个队列查询
func (t QueueQueryTable) Get(namespace, name string) (types.QueueQuery, bool) {
	queries, ok := t[namespace]
	if !ok {
		return types.QueueQuery{}, false
	}
	q, ok := queries[name]
	return q, ok
}

// Set 写入队列查询，同名覆盖
func (t QueueQueryTable) Set(namespace, name string, query types.QueueQuery) {
	queries, ok := t[namespace]
	if !ok {
		queries = make(map[string]types.QueueQuery)
		t[namespace] = queries
	}
	queries[name] = query
}

// Delete 删除队列查询，命名空间为空时一并删除
func (t QueueQueryTable) Delete(namespace, name string) bool {
	queries, ok := t[namespace]
	if !ok {
		return false
	}
	if _, ok := queries[name]; !ok {
		return false
	}
	delete(queries, name)
	if len(queries) == 0 {
		delete(t, namespace)
	}
	return true
}

// MergeQueueQueries 与 Merge 相同的两级覆盖规则，user 优先
func MergeQueueQueries(base, user QueueQueryTable) QueueQueryTable {
	out := base.Clone()
	if out == nil {
		out = make(QueueQueryTable, len(user))
	}
	for ns, queries := range user {
		inner, ok := out[ns]
		if !ok {
			inner = make(map[string]types.QueueQuery, len(queries))
			out[ns] = inner
		}
		for name, q := range queries {
			inner[name] = q
		}
	}
	return out
}

// BaseLibrary 随程序发布的只读基础库
type BaseLibrary struct {
	Queries      Catalog         `json:"queries"`
	QueueQueries QueueQueryTable `json:"queueQueries"`
}

// LoadBaseLibrary 从 YAML 文件加载基础库
func LoadBaseLibrary(path string) (*BaseLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取基础查询库失败: %w", err)
	}
	return ParseBaseLibrary(data)
}

// ParseBaseLibrary 解析 YAML 内容
func ParseBaseLibrary(data []byte) (*BaseLibrary, error) {
	var lib BaseLibrary
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("解析基础查询库失败: %w", err)
	}
	if lib.Queries == nil {
		lib.Queries = Catalog{}
	}
	if lib.QueueQueries == nil {
		lib.QueueQueries = QueueQueryTable{}
	}
	return &lib, nil
}
