package queue

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type DeleteQueueQueryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteQueueQueryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteQueueQueryLogic {
	return &DeleteQueueQueryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteQueueQueryLogic) DeleteQueueQuery(req *types.DeleteQueueQueryRequest) (resp string, err error) {
	if _, err := l.svcCtx.ConfigManager.DeleteQueueQuery(l.ctx, req.Namespace, req.Name); err != nil {
		l.Errorf("删除队列查询失败: namespace=%s, name=%s, error=%v", req.Namespace, req.Name, err)
		return "", err
	}
	return "删除队列查询成功", nil
}
