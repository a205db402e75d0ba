package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type RestoreSnapshotLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 恢复到指定快照，不产生新快照
func NewRestoreSnapshotLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RestoreSnapshotLogic {
	return &RestoreSnapshotLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *RestoreSnapshotLogic) RestoreSnapshot(req *types.SnapshotIdRequest) (resp *types.HistoryResultResponse, err error) {
	result, err := l.svcCtx.ConfigManager.Restore(l.ctx, req.Id)
	if err != nil {
		l.Errorf("恢复快照失败: id=%s, error=%v", req.Id, err)
		return nil, err
	}
	l.Infof("已恢复快照: id=%s", req.Id)
	return toResultResponse(result), nil
}
