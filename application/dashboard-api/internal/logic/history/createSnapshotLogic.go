package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type CreateSnapshotLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 手动记录当前配置
func NewCreateSnapshotLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateSnapshotLogic {
	return &CreateSnapshotLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CreateSnapshotLogic) CreateSnapshot(req *types.CreateSnapshotRequest) (resp *types.HistoryResultResponse, err error) {
	snap, err := l.svcCtx.ConfigManager.Snapshot(l.ctx, req.Label)
	if err != nil {
		l.Errorf("创建快照失败: label=%s, error=%v", req.Label, err)
		return nil, err
	}
	l.Infof("快照已创建: id=%s, label=%s", snap.ID, snap.Label)
	return &types.HistoryResultResponse{Success: true, Snapshot: &snap}, nil
}
