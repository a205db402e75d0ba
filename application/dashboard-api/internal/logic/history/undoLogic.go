package history

import (
	"context"

	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/svc"
	"github.com/yanshicheng/kube-nova-board/application/dashboard-api/internal/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type UndoLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewUndoLogic(ctx context.Context, svcCtx *svc.ServiceContext) *UndoLogic {
	return &UndoLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *UndoLogic) Undo() (resp *types.HistoryResultResponse, err error) {
	result, err := l.svcCtx.ConfigManager.Undo(l.ctx)
	if err != nil {
		l.Errorf("撤销失败: %v", err)
		return nil, err
	}
	return toResultResponse(result), nil
}
