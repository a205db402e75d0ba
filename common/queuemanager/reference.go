package queuemanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanshicheng/kube-nova-board/common/querymanager"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
)

// QueueReferencePrefix 队列查询引用的固定前缀
const QueueReferencePrefix = "queueQueries"

// ParseQueueReference 解析 "queueQueries.<namespace>.<name>"，前缀后必须恰好两段
func ParseQueueReference(reference string) (namespace, name string, err error) {
	parts := strings.Split(strings.TrimSpace(reference), ".")
	if len(parts) != 3 || parts[0] != QueueReferencePrefix || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("%w: %q", querymanager.ErrReferenceFormat, reference)
	}
	return parts[1], parts[2], nil
}

// ResolveQueueReference 在配置表中查找引用对应的结构化查询
func ResolveQueueReference(reference string, table querymanager.QueueQueryTable) (types.QueueQuery, error) {
	namespace, name, err := ParseQueueReference(reference)
	if err != nil {
		return types.QueueQuery{}, err
	}
	query, ok := table.Get(namespace, name)
	if !ok {
		return types.QueueQuery{}, fmt.Errorf("%w: %s.%s.%s", querymanager.ErrQueryNotFound, QueueReferencePrefix, namespace, name)
	}
	return NormalizeQueueQuery(query)
}

// ExecuteReference 解析引用后执行查询
func (r *Registry) ExecuteReference(ctx context.Context, reference string, table querymanager.QueueQueryTable) (*types.QueueQueryResult, error) {
	query, err := ResolveQueueReference(reference, table)
	if err != nil {
		r.log.Errorf("解析队列查询引用失败: reference=%s, error=%v", reference, err)
		return nil, err
	}
	return r.ExecuteQuery(ctx, query)
}
