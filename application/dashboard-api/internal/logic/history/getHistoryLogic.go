package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/yanshicheng/kube-nova-board/common/historymanager"
	"github.com/zeromicro/go-zero/core/logx"
)

type GetHistoryLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// 当前配置历史
func NewGetHistoryLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetHistoryLogic {
	return &GetHistoryLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetHistoryLogic) GetHistory() (resp *types.HistoryResponse, err error) {
	return buildHistoryResponse(l.svcCtx.ConfigManager.History()), nil
}

func buildHistoryResponse(m *historymanager.Manager) *types.HistoryResponse {
	h := m.History()
	return &types.HistoryResponse{
		Snapshots:    h.Snapshots,
		CurrentIndex: h.CurrentIndex,
		CanUndo:      m.CanUndo(),
		CanRedo:      m.CanRedo(),
		MaxSnapshots: m.MaxSnapshots(),
	}
}

func toResultResponse(r historymanager.Result) *types.HistoryResultResponse {
	return &types.HistoryResultResponse{Success: r.Success, Snapshot: r.Snapshot}
}
