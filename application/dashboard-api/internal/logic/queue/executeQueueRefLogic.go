package queue

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type ExecuteQueueRefLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 按引用执行已保存的队列查询
func NewExecuteQueueRefLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ExecuteQueueRefLogic {
	return &ExecuteQueueRefLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ExecuteQueueRefLogic) ExecuteQueueRef(req *types.ExecuteQueueRefRequest) (resp *qtypes.QueueQueryResult, err error) {
	result, err := l.svcCtx.QueueRegistry.ExecuteReference(l.ctx, req.Reference, l.svcCtx.QueueQueries())
	if err != nil {
		l.Errorf("按引用执行队列查询失败: reference=%s, error=%v", req.Reference, err)
		return nil, err
	}
	return result, nil
}
