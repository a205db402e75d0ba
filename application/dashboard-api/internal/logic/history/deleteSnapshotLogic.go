package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type DeleteSnapshotLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteSnapshotLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteSnapshotLogic {
	return &DeleteSnapshotLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteSnapshotLogic) DeleteSnapshot(req *types.SnapshotIdRequest) (resp *types.HistoryResultResponse, err error) {
	result, err := l.svcCtx.ConfigManager.DeleteSnapshot(l.ctx, req.Id)
	if err != nil {
		l.Errorf("删除快照失败: id=%s, error=%v", req.Id, err)
		return nil, err
	}
	l.Infof("快照已删除: id=%s", req.Id)
	return toResultResponse(result), nil
}
