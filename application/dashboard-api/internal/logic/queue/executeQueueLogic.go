package queue

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/common/queuemanager"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type ExecuteQueueLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 执行内联队列查询，请求体按严格模式解析
func NewExecuteQueueLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ExecuteQueueLogic {
	return &ExecuteQueueLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ExecuteQueueLogic) ExecuteQueue(body []byte) (resp *qtypes.QueueQueryResult, err error) {
	query, err := queuemanager.ParseQueueQuery(body)
	if err != nil {
		l.Errorf("队列查询解析失败: error=%v", err)
		return nil, err
	}

	result, err := l.svcCtx.QueueRegistry.ExecuteQuery(l.ctx, query)
	if err != nil {
		return nil, err
	}
	l.Infof("队列查询完成: provider=%s, queue=%s, kind=%s, count=%d",
		query.Provider, query.Queue, result.Kind, result.Count)
	return result, nil
}
