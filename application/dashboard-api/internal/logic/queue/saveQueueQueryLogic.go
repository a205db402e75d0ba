package queue

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	qtypes "github.com/yanshicheng/kube-nova-board/common/queuemanager/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type SaveQueueQueryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 保存用户队列查询
func NewSaveQueueQueryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SaveQueueQueryLogic {
	return &SaveQueueQueryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SaveQueueQueryLogic) SaveQueueQuery(req *types.SaveQueueQueryRequest) (resp string, err error) {
	query := qtypes.QueueQuery{
		Provider: req.Provider,
		Queue:    req.Queue,
		Status:   qtypes.JobStatus(req.Status),
		Limit:    req.Limit,
	}
	if _, err := l.svcCtx.ConfigManager.SaveQueueQuery(l.ctx, req.Namespace, req.Name, query); err != nil {
		l.Errorf("保存队列查询失败: namespace=%s, name=%s, error=%v", req.Namespace, req.Name, err)
		return "", err
	}
	l.Infof("队列查询已保存: namespace=%s, name=%s, provider=%s", req.Namespace, req.Name, req.Provider)
	return "保存队列查询成功", nil
}
